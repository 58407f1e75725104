package models

// AccessGrantedToken is the sentinel the relay returns as userToken when the
// secret phrase matched. The client accepts an issuance only when it sees
// this exact value.
const AccessGrantedToken = "ACCESS_GRANTED"

// Credentials holds the two opaque strings the access gate acquires and
// caches for the session.
type Credentials struct {
	UserToken string `json:"userToken"`
	APIToken  string `json:"apiToken"`
}

// Complete reports whether both credential fields are present.
func (c Credentials) Complete() bool {
	return c.UserToken != "" && c.APIToken != ""
}
