package jwt

import (
	"orderly/backend/internal/config"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateServiceToken creates a JWT for an internal service caller (the
// checkout flow, the POS bridge). There are no end-user tokens in this
// service; device identifiers are correlation keys, not credentials.
func GenerateServiceToken(service string) (string, error) {
	claims := jwt.MapClaims{
		"svc": service,
		"exp": time.Now().Add(time.Hour * 24 * 7).Unix(), // Token expires in 7 days
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(config.AppConfig.ServiceTokenSecret))
}
