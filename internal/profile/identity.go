package profile

// Identity is what the authentication provider reports about the signed-in
// user. Either field may be missing.
type Identity struct {
	DisplayName *string `json:"display_name,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// FirstName resolves the greeting name for this identity.
func (id Identity) FirstName() string {
	return ResolveFirstName(id.DisplayName, id.Email)
}
