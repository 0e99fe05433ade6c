package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
)

var (
	// ErrInvalidToken is returned when the provided token is invalid
	ErrInvalidToken = errors.New("invalid token")
	// jwtValidator is a singleton instance of the JWT validator
	jwtValidator *validator.Validator
)

// CustomClaims contains custom data we want from the token
type CustomClaims struct {
	Scope string `json:"scope"`
}

// Validate implements the validator.CustomClaims interface
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// setupAuth initializes the JWT validator with the auth tenant configuration
func setupAuth() (*validator.Validator, error) {
	if jwtValidator != nil {
		return jwtValidator, nil
	}

	issuerURL, err := url.Parse("https://" + os.Getenv("AUTH0_DOMAIN") + "/")
	if err != nil {
		log.Fatalf("Failed to parse the issuer url: %v", err)
	}
	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	v, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{os.Getenv("AUTH0_AUDIENCE")},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up validator: %w", err)
	}

	jwtValidator = v
	return jwtValidator, nil
}

// validateJWTToken validates the bearer token and returns the subject claim,
// which carries the provider user ID.
func validateJWTToken(c *gin.Context, authHeader string) (string, error) {
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" || token == authHeader {
		return "", ErrInvalidToken
	}

	v, err := setupAuth()
	if err != nil {
		return "", fmt.Errorf("auth setup failed: %w", err)
	}

	claims, err := v.ValidateToken(c.Request.Context(), token)
	if err != nil {
		return "", ErrInvalidToken
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims type")
	}

	subject := validatedClaims.RegisteredClaims.Subject
	if subject == "" {
		return "", ErrInvalidToken
	}

	return subject, nil
}

// EnsureValidToken is a middleware that requires a valid bearer token and
// sets userID in the request context. Missing or invalid tokens map to the
// not_authenticated error code the readiness API exposes.
func EnsureValidToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "No authentication provided",
				"code":  "not_authenticated",
			})
			c.Abort()
			return
		}

		userID, err := validateJWTToken(c, authHeader)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
				"code":  "not_authenticated",
			})
			c.Abort()
			return
		}

		c.Set("userID", userID)
		c.Set("authType", "jwt")
		c.Next()
	}
}
