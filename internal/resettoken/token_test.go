package resettoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pwreset/pkg/domain-errors"
)

func newTestService() *Service {
	return NewService("test-signing-key", "test-issuer", "test-audience")
}

func Test_IssueAndValidate(t *testing.T) {
	svc := newTestService()

	issued, err := svc.Issue("alice", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)

	claims, err := svc.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, Purpose, claims.Purpose)
	assert.Equal(t, issued.TokenID, claims.ID)
	assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt.Time, time.Second)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_Issue_DefaultTTL(t *testing.T) {
	svc := newTestService()
	issued, err := svc.Issue("alice", 0)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), claims.ExpiresAt.Time, time.Minute)
}

func Test_Issue_EmptySubject(t *testing.T) {
	_, err := newTestService().Issue("  ", time.Hour)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func Test_Issue_TTLAboveMax(t *testing.T) {
	_, err := newTestService().Issue("alice", MaxTTL+time.Second)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func Test_ValidateToken_Expired(t *testing.T) {
	svc := newTestService()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	issued, err := svc.Issue("alice", time.Hour)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(issued.Token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "token has expired")
}

func Test_ValidateToken_Invalid(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"garbage", func(t *testing.T) string { return "invalid-token-string" }},
		{"wrong key", func(t *testing.T) string {
			issued, err := NewService("other-key", "test-issuer", "test-audience").Issue("alice", time.Hour)
			require.NoError(t, err)
			return issued.Token
		}},
		{"wrong audience", func(t *testing.T) string {
			issued, err := NewService("test-signing-key", "test-issuer", "other").Issue("alice", time.Hour)
			require.NoError(t, err)
			return issued.Token
		}},
		{"wrong issuer", func(t *testing.T) string {
			issued, err := NewService("test-signing-key", "other", "test-audience").Issue("alice", time.Hour)
			require.NoError(t, err)
			return issued.Token
		}},
		{"wrong purpose", func(t *testing.T) string {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
				Purpose: "access",
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   "alice",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					Issuer:    "test-issuer",
					Audience:  []string{"test-audience"},
				},
			})
			signed, err := token.SignedString([]byte("test-signing-key"))
			require.NoError(t, err)
			return signed
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token(t))
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		})
	}
}

func Test_MiddlewareAdapter(t *testing.T) {
	svc := newTestService()
	issued, err := svc.Issue("alice", time.Hour)
	require.NoError(t, err)

	claims, err := NewMiddlewareAdapter(svc).ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.NotEmpty(t, claims.TokenID)
}
