package session

import (
	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims reads the claims of a backend access token without verifying
// its signature. The backend re-verifies on every call; here the claims are
// only used to label the session.
func tokenClaims(token string) jwt.MapClaims {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return jwt.MapClaims{}
	}
	return claims
}

func claimString(claims jwt.MapClaims, name string) string {
	v, _ := claims[name].(string)
	return v
}
