package resettoken

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "pwreset/pkg/platform/audit"
	"pwreset/pkg/platform/audit/publisher"
	auditmemory "pwreset/pkg/platform/audit/store/memory"
	"pwreset/pkg/testutil"
)

func TestHandleIssue(t *testing.T) {
	svc := newTestService()
	r := chi.NewRouter()
	NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

	t.Run("issues a token for the subject", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/reset-tokens", IssueRequest{Subject: " alice ", TTLSeconds: 600})
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)

		resp := testutil.UnmarshalResponse[IssueResponse](t, rr)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), resp.ExpiresAt, time.Minute)

		claims, err := svc.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
	})

	t.Run("missing subject", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/reset-tokens", IssueRequest{})
		testutil.AssertStatusAndError(t, testutil.DoRequest(r, req), http.StatusBadRequest, "validation_error")
	})

	t.Run("ttl above the cap", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/reset-tokens", IssueRequest{Subject: "alice", TTLSeconds: 86401})
		testutil.AssertStatusAndError(t, testutil.DoRequest(r, req), http.StatusBadRequest, "validation_error")
	})
}

func TestHandleIssue_Audited(t *testing.T) {
	svc := newTestService()
	store := auditmemory.NewInMemoryStore()
	r := chi.NewRouter()
	NewHandler(svc, slog.New(slog.DiscardHandler), WithAuditPublisher(publisher.NewPublisher(store))).Register(r)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/reset-tokens", IssueRequest{Subject: "alice"})
	rr := testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	events, err := store.ListBySubject(req.Context(), "alice")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionResetTokenIssued, events[0].Action)

	claims, err := svc.ValidateToken(testutil.UnmarshalResponse[IssueResponse](t, rr).Token)
	require.NoError(t, err)
	assert.Equal(t, claims.ID, events[0].TokenID)
}
