package config

import "time"

const (
	jwtSecretVar   = "JWT_SECRET"
	tokenExpiryVar = "TOKEN_EXPIRY"

	defaultTokenExpiry = 24 * time.Hour
)

type Token struct{}

var _ TokenConfig = Token{}

func (Token) GetJWTSecret() string {
	return GetEnv(jwtSecretVar, "")
}

// GetTokenExpiry returns the validity window of issued tokens, one day unless
// TOKEN_EXPIRY holds a parseable duration.
func (Token) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(GetEnv(tokenExpiryVar, ""))
	if err != nil || d <= 0 {
		return defaultTokenExpiry
	}
	return d
}
