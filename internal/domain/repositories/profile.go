package repositories

import (
	"fmt"
	"strings"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/pkg/urlutil"
)

// MaxUsernameAttempts bounds the suffix search when a username is taken
const MaxUsernameAttempts = 50

// UsernameCandidate returns the username tried on the given attempt: base, "base 1", "base 2", ...
func UsernameCandidate(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	return fmt.Sprintf("%s %d", base, attempt)
}

// ValidateProfileUpdate applies the host allow-list to a profile update.
// Only fullname and picture may be written; a picture must be an absolute
// http(s) URL or an inline data:image/ reference.
func ValidateProfileUpdate(fields map[entities.ProfileField]string) error {
	for field, value := range fields {
		switch field {
		case entities.ProfileFullname:
			if strings.ContainsAny(value, "\r\n") {
				return fmt.Errorf("%w: fullname", ErrInvalidFieldValue)
			}
		case entities.ProfilePicture:
			if value == "" {
				continue
			}
			if !urlutil.IsHTTPURL(value) && !strings.HasPrefix(value, "data:image/") {
				return fmt.Errorf("%w: picture", ErrInvalidFieldValue)
			}
		default:
			return fmt.Errorf("%w: %s", ErrFieldNotAllowed, field)
		}
	}
	return nil
}
