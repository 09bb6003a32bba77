package domain

// UserProfile is the caller identity taken from a verified bearer token
type UserProfile struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
	Wallet  string `json:"wallet,omitempty"`
}

// AuthClaims represents JWT token claims
type AuthClaims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Wallet  string `json:"wallet_address"`
	Iss     string `json:"iss"`
	Iat     int64  `json:"iat"`
	Exp     int64  `json:"exp"`
}
