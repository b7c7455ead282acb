package authx

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the validated identity attached to a request
type Claims struct {
	Subject   string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Service issues and validates HMAC-signed bearer tokens
type Service struct {
	secretKey []byte
	tokenTTL  time.Duration
	issuer    string
}

// NewService creates a token service. ttl defaults to 24h, issuer to
// "sitepilot".
func NewService(secret string, ttl time.Duration, issuer string) *Service {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	if issuer == "" {
		issuer = "sitepilot"
	}
	return &Service{
		secretKey: []byte(secret),
		tokenTTL:  ttl,
		issuer:    issuer,
	}
}

type tokenClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed token for subject
func (s *Service) GenerateToken(subject, name string) (string, error) {
	now := time.Now()

	claims := tokenClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", errorRegistry.NewWithCause(ErrTokenGeneration, err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, errorRegistry.New(ErrInvalidToken)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok {
		return nil, errorRegistry.New(ErrInvalidToken)
	}

	out := &Claims{
		Subject: claims.Subject,
		Name:    claims.Name,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Middleware validates the Authorization bearer token and stores the
// claims under c.Locals("auth")
func (s *Service) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return errorRegistry.New(ErrMissingToken)
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return errorRegistry.New(ErrMissingToken)
		}

		claims, err := s.ValidateToken(parts[1])
		if err != nil {
			return err
		}

		c.Locals("auth", claims)
		return c.Next()
	}
}

// FromContext retrieves the validated claims of a request, if any
func FromContext(c *fiber.Ctx) (*Claims, bool) {
	claims, ok := c.Locals("auth").(*Claims)
	return claims, ok
}
