package entities

// AccountLink associates an external subject id at a provider with a local user.
// It is stored twice: forward in the {provider}Id:uid object (subject -> uid)
// and reverse as the {provider}Id field on the user record (-> subject).
type AccountLink struct {
	Provider  string `json:"provider"`
	SubjectID string `json:"subjectId"`
	UserID    string `json:"uid"`
}

// LinkField returns the user record field holding a provider's subject id
func LinkField(provider string) string {
	return provider + "Id"
}

// LinkObjectKey returns the object key of a provider's forward link table
func LinkObjectKey(provider string) string {
	return LinkField(provider) + ":uid"
}
