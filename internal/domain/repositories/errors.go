package repositories

import "errors"

// Domain-specific repository errors
var (
	// ErrNotFound is returned when a key, object or field does not exist
	ErrNotFound = errors.New("not found")

	// ErrStrategyNotFound is returned when no strategy is stored under a name
	ErrStrategyNotFound = errors.New("strategy not found")

	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrLinkNotFound is returned when no local user is linked to an external id
	ErrLinkNotFound = errors.New("account link not found")

	// ErrFieldNotAllowed is returned when a profile update touches a field outside the allow-list
	ErrFieldNotAllowed = errors.New("profile field not allowed")

	// ErrInvalidFieldValue is returned when the host rejects a profile field value
	ErrInvalidFieldValue = errors.New("invalid profile field value")
)
