package entity

// Principal is the verified identity and entitlements attached to a request
// after its access token passed verification. It lives for a single request
// and is never persisted.
type Principal struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	TokenID     string   `json:"token_id"`
	RawToken    string   `json:"-"`
}

// HasAnyRole reports whether the principal holds at least one of the given
// roles. An empty required set is satisfied trivially.
func (p *Principal) HasAnyRole(roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, required := range roles {
		for _, held := range p.Roles {
			if held == required {
				return true
			}
		}
	}
	return false
}

// HasAllPermissions reports whether the principal holds every one of the
// given permissions.
func (p *Principal) HasAllPermissions(permissions []string) bool {
	for _, required := range permissions {
		found := false
		for _, held := range p.Permissions {
			if held == required {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
