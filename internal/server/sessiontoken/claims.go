package sessiontoken

// Claims is the identity payload carried inside a session token. It is
// encrypted as canonical JSON and must round-trip exactly; downstream
// handlers trust these fields without another store lookup.
type Claims struct {
	Subject  string `json:"sub"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	IssuedAt int64  `json:"iat"`
	Expires  int64  `json:"exp"`
	TokenID  string `json:"jti"`
}
