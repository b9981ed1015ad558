package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials is the access/refresh token pair issued by the auth endpoints.
// The pair is written and cleared as a unit: the client never holds a refresh
// token without an access token or vice versa.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refreshToken"`
}

// Valid reports whether a complete pair is held.
func (c Credentials) Valid() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// Empty reports whether neither token is held.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Expiry returns the access token's exp claim when one can be read. The
// token is parsed without signature verification: the value is only used for
// logging and metrics, the 401 response from the server stays authoritative.
func (c Credentials) Expiry() (time.Time, bool) {
	if c.AccessToken == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.AccessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
