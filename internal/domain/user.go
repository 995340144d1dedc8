package domain

// User is a registered storefront account.
// Password holds plaintext unless password hashing is enabled, in which case it
// holds a bcrypt hash.
type User struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"pw"`
}

// Session records the logged-in user
type Session struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
