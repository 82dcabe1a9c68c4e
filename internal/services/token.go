package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"helpinghands/internal/config"
	"helpinghands/internal/models"
)

var (
	// ErrInvalidToken is returned for malformed, forged or expired tokens
	ErrInvalidToken = errors.New("invalid token")
)

// TokenClaims are the claims carried by an access token
type TokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens
type TokenIssuer struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer from auth configuration
func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	expiry := cfg.JWTExpiry
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}
	return &TokenIssuer{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		expiry: expiry,
		now:    time.Now,
	}
}

// Issue signs a token for user
func (t *TokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.expiry)

	claims := TokenClaims{
		Role: user.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies a token and returns the principal it names
func (t *TokenIssuer) Parse(tokenString string) (models.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return models.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return models.Principal{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return models.Principal{UserID: userID, Role: role}, nil
}
