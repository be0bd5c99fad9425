package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// LegacyClaims is the claim set of the HMAC-signed tokens issued before
// the JWKS provider was introduced. Older clients still present them.
type LegacyClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ValidateLegacyToken parses and verifies an HMAC-signed token against
// the shared secret. Only HMAC methods are accepted; anything else is
// rejected outright so an RS256 token cannot sneak through here.
func ValidateLegacyToken(tokenString, secret string) (*LegacyClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &LegacyClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*LegacyClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}
