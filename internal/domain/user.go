package domain

// Identity is the resolved caller identity from the platform bearer token.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}
