package entity

// User is the already-authenticated user record handed to token issuance.
// Credential verification and storage happen outside this service; by the
// time a User reaches the token layer its identity is settled.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func NewUser(id, email string, roles, permissions []string) *User {
	return &User{
		ID:          id,
		Email:       email,
		Roles:       roles,
		Permissions: permissions,
	}
}
