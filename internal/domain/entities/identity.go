package entities

// CanonicalIdentity is the provider-agnostic form of a login profile.
// It is produced per login attempt and never stored.
type CanonicalIdentity struct {
	Provider      string   `json:"provider"`
	SubjectID     string   `json:"subjectId"`
	DisplayName   string   `json:"displayName"`
	Fullname      string   `json:"fullname,omitempty"`
	Picture       string   `json:"picture,omitempty"`
	Email         string   `json:"email"`
	EmailVerified bool     `json:"emailVerified"`
	Roles         []string `json:"roles,omitempty"`
}

// Complete reports whether the identity carries every claim a login needs
func (i *CanonicalIdentity) Complete() bool {
	return i.SubjectID != "" && i.DisplayName != "" && i.Email != ""
}
