package idp

import "strings"

// ExternalIdentity is what the identity provider asserts about the person
// who just signed in. It carries facts only; no local user decisions.
type ExternalIdentity struct {
	Subject     string `validate:"required,max=255"`
	Email       string `validate:"required,email,max=255"`
	DisplayName string `validate:"max=255"`
	Issuer      string
}

// idTokenClaims are the id_token claims read from Entra-style tenants
type idTokenClaims struct {
	Subject           string   `json:"sub"`
	UPN               string   `json:"upn"`
	Email             string   `json:"email"`
	Emails            []string `json:"emails"`
	Name              string   `json:"name"`
	GivenName         string   `json:"given_name"`
	FamilyName        string   `json:"family_name"`
	PreferredUsername string   `json:"preferred_username"`
}

// email picks upn, then email, then the first entry of emails
func (c idTokenClaims) email() string {
	if v := strings.TrimSpace(c.UPN); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.Email); v != "" {
		return v
	}
	for _, e := range c.Emails {
		if v := strings.TrimSpace(e); v != "" {
			return v
		}
	}
	return ""
}

// displayName picks name, then given+family, then preferred_username, then email
func (c idTokenClaims) displayName(email string) string {
	if v := strings.TrimSpace(c.Name); v != "" {
		return v
	}
	if full := strings.TrimSpace(strings.TrimSpace(c.GivenName) + " " + strings.TrimSpace(c.FamilyName)); full != "" {
		return full
	}
	if v := strings.TrimSpace(c.PreferredUsername); v != "" {
		return v
	}
	return email
}
