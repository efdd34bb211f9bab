package entities

// SettingsKey is the host settings key the plugin stores its admin settings under
const SettingsKey = "sso-oauth2-multiple"

// RoleGroupAssociation maps an external role string to a local group
type RoleGroupAssociation struct {
	Role  string `json:"role"`
	Group string `json:"group"`
}

// AssociationSettings is the admin settings blob: parallel role and group lists,
// position i of Roles maps to position i of Groups.
type AssociationSettings struct {
	Roles  []string `json:"roles"`
	Groups []string `json:"groups"`
}

// Associations zips the parallel lists, dropping unpaired or blank entries
func (s *AssociationSettings) Associations() []RoleGroupAssociation {
	n := len(s.Roles)
	if len(s.Groups) < n {
		n = len(s.Groups)
	}

	out := make([]RoleGroupAssociation, 0, n)
	for i := 0; i < n; i++ {
		if s.Roles[i] == "" || s.Groups[i] == "" {
			continue
		}
		out = append(out, RoleGroupAssociation{Role: s.Roles[i], Group: s.Groups[i]})
	}
	return out
}

// NewAssociationSettings builds the parallel-list form from associations
func NewAssociationSettings(associations []RoleGroupAssociation) AssociationSettings {
	s := AssociationSettings{
		Roles:  make([]string, 0, len(associations)),
		Groups: make([]string, 0, len(associations)),
	}
	for _, a := range associations {
		s.Roles = append(s.Roles, a.Role)
		s.Groups = append(s.Groups, a.Group)
	}
	return s
}
