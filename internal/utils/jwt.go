package utils // package utils provides token and credential helpers

import (
	"errors" // errors reports invalid input
	"time"   // expiry computation

	"github.com/golang-jwt/jwt/v5" // signed token creation
)

// AccessToken is a signed HS256 JWT and its expiry.
type AccessToken struct {
	Token string    // the serialized JWT
	Exp   time.Time // UTC expiration time
}

// NewAccessToken signs a token for subject with the given role. The subject
// becomes the actor id recorded on every write the caller makes, so it must
// not be empty.
func NewAccessToken(secret, subject, role string, ttl time.Duration) (AccessToken, error) {
	if subject == "" {
		return AccessToken{}, errors.New("token subject is required")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  subject,    // actor id
		"role": role,       // SYSTEM_ADMIN or LAB_MANAGER
		"exp":  exp.Unix(), // expiry
		"iat":  now.Unix(), // issued at
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
