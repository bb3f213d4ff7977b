package token

import "github.com/golang-jwt/jwt/v5"

// Claims is the payload of a login token. The token id travels in the
// registered "jti" claim.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
