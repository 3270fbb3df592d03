package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ride-hail-realtime/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndInspect(t *testing.T) {
	mgr, err := NewManager("dev-secret", 10*time.Minute)
	require.NoError(t, err)

	token, claims, err := mgr.IssueConnectionToken("rider-1", user.RoleRider)
	require.NoError(t, err)
	assert.Equal(t, "rider-1", claims.Subject)

	inspected, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "rider-1", inspected.Subject)
	assert.Equal(t, user.RoleRider, inspected.Role)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), inspected.Expiry(), 5*time.Second)

	verified, err := mgr.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "rider-1", verified.Subject)
}

func TestNewManager_EmptySecret(t *testing.T) {
	_, err := NewManager("  ", time.Minute)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestParseAndValidate_WrongSecret(t *testing.T) {
	a, _ := NewManager("a", time.Minute)
	b, _ := NewManager("b", time.Minute)

	token, _, err := a.IssueConnectionToken("driver-1", user.RoleDriver)
	require.NoError(t, err)

	_, err = b.ParseAndValidate(token)
	assert.Error(t, err)
}

func TestInspect_Garbage(t *testing.T) {
	_, err := Inspect("")
	assert.ErrorIs(t, err, ErrEmptyToken)

	_, err = Inspect("not.a.jwt")
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	mgr, _ := NewManager("dev-secret", time.Minute)
	riderTok, _, _ := mgr.IssueConnectionToken("rider-1", user.RoleRider)
	otherTok, _, _ := mgr.IssueConnectionToken("rider-2", user.RoleRider)

	h := Middleware(mgr, "rider-1", user.RoleRider)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := FromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(c.Subject))
	}))

	cases := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"header", "/ui", "Bearer " + riderTok, http.StatusOK},
		{"query", "/ui?token=" + riderTok, "", http.StatusOK},
		{"missing", "/ui", "", http.StatusUnauthorized},
		{"other subject", "/ui", "Bearer " + otherTok, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
