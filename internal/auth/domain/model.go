package domain

// Principal is the caller resolved from a verified access token.
type Principal struct {
	UserID string
	Email  string
	Role   string
}
