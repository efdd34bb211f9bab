package entities

import "time"

// AdministratorsGroup is the host group whose members may manage strategies
const AdministratorsGroup = "administrators"

// User is the host's local account record as seen by this service
type User struct {
	ID             string            `json:"uid" db:"id"`
	Username       string            `json:"username" db:"username"`
	Email          string            `json:"email,omitempty" db:"email"`
	EmailConfirmed bool              `json:"email:confirmed" db:"email_confirmed"`
	Fullname       string            `json:"fullname,omitempty" db:"fullname"`
	Picture        string            `json:"picture,omitempty" db:"picture"`
	CreatedAt      time.Time         `json:"joindate" db:"created_at"`
	Fields         map[string]string `json:"-" db:"-"` // custom fields such as {provider}Id
}

// ProfileField names a user profile field this service may overwrite
type ProfileField string

const (
	ProfileFullname ProfileField = "fullname"
	ProfilePicture  ProfileField = "picture"
)
