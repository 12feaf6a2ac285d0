package auth

import (
	"errors"
	"time"

	"civicadmin/config"
	"civicadmin/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// AppMetadata carries server-assigned claims. Admins are marked with
// app_metadata.role = "admin".
type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

// Claims follows the access token layout of the hosted auth provider: the
// subject is the user id and role is the database role.
type Claims struct {
	Email       string      `json:"email,omitempty"`
	Role        string      `json:"role,omitempty"`
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

func (c *Claims) IsAdmin() bool {
	return c.AppMetadata.Role == domain.RoleAdmin ||
		c.Role == domain.RoleAdmin ||
		c.Role == domain.RoleServiceRole
}

var ErrInvalidToken = errors.New("invalid token")

// GenerateAccessToken mints an admin token signed with the shared secret.
// Used for local development and tests.
func GenerateAccessToken(cfg *config.JWTConfig, userID, email string) (string, error) {
	claims := Claims{
		Email:       email,
		Role:        "authenticated",
		AppMetadata: AppMetadata{Role: domain.RoleAdmin},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    cfg.Issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.AccessSecret))
}

func ParseAccessToken(cfg *config.JWTConfig, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.AccessSecret), nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
