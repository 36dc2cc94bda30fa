// security/token.go
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	echo_errors "github.com/dev-mohitbeniwal/dataeng/api/errors"
	logger "github.com/dev-mohitbeniwal/dataeng/api/logging"
	"github.com/dev-mohitbeniwal/dataeng/api/model"
)

// SigningAlgorithm is the only algorithm tokens are issued with or accepted in.
const SigningAlgorithm = "HS256"

const defaultTokenTTL = 30 * time.Minute

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// CredentialVerifier issues and verifies HMAC signed bearer tokens.
type CredentialVerifier struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

func NewCredentialVerifier(secret string, defaultTTL time.Duration) (*CredentialVerifier, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is required")
	}
	if defaultTTL <= 0 {
		defaultTTL = defaultTokenTTL
	}
	return &CredentialVerifier{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source. Used by tests.
func (v *CredentialVerifier) WithClock(now func() time.Time) *CredentialVerifier {
	v.now = now
	return v
}

// DefaultTTL is the lifetime applied when Issue is called without one.
func (v *CredentialVerifier) DefaultTTL() time.Duration {
	return v.defaultTTL
}

// Issue signs claims with an absolute expiry of now+ttl.
func (v *CredentialVerifier) Issue(claims model.Claims, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = v.defaultTTL
	}
	issuedAt := v.now()
	expiresAt := issuedAt.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Role: string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry. Every failure is reported
// as ErrCredentialInvalid; user input never causes a panic here.
func (v *CredentialVerifier) Verify(tokenString string) (*model.Claims, error) {
	if tokenString == "" {
		return nil, echo_errors.ErrCredentialInvalid
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, v.keyFunc,
		jwt.WithValidMethods([]string{SigningAlgorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		logger.Debug("Token verification failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrCredentialInvalid, err)
	}

	out := &model.Claims{Subject: claims.Subject}
	if role, ok := model.ParseRole(claims.Role); ok {
		out.Role = role
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (v *CredentialVerifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	if len(v.secret) == 0 {
		return nil, errors.New("no signing secret configured")
	}
	return v.secret, nil
}
