// Package resettoken issues and validates the short-lived bearer tokens that
// authorise a password reset for one subject.
package resettoken

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "pwreset/pkg/domain-errors"
)

// Purpose marks a token as usable only for password resets.
const Purpose = "password_reset"

// DefaultTTL is how long an issued reset token stays valid.
const DefaultTTL = 15 * time.Minute

// MaxTTL caps requested token lifetimes.
const MaxTTL = 24 * time.Hour

// Claims represents the JWT claims of a reset token.
type Claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Service handles reset token creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

func NewService(signingKey string, issuer string, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		now:        time.Now,
	}
}

// Issued is a signed reset token.
type Issued struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// Issue signs a token allowing subject to reset their password for ttl.
func (s *Service) Issue(subject string, ttl time.Duration) (*Issued, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "subject is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if ttl > MaxTTL {
		return nil, dErrors.New(dErrors.CodeValidation, "ttl exceeds maximum of 24h")
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	jti := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Purpose: Purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        jti,
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign reset token")
	}
	return &Issued{Token: signed, TokenID: jti, ExpiresAt: expiresAt}, nil
}

// ValidateToken parses a reset token and checks signature, expiry, issuer,
// audience and purpose.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Purpose != Purpose || claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token is not a reset token")
	}
	return claims, nil
}
