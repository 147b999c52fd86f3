package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rosterd/rosterd/internal/errors"
	"github.com/rosterd/rosterd/internal/memstore"
	"github.com/rosterd/rosterd/internal/models"
)

// countingUsers records how often the gate reaches the store.
type countingUsers struct {
	*memstore.Store
	lookups atomic.Int32
	err     error
}

func (c *countingUsers) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	c.lookups.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.Store.GetUserByID(ctx, id)
}

type recordingObserver struct {
	logins, registrations, rejections []string
}

func (r *recordingObserver) LoginAttempt(o string)  { r.logins = append(r.logins, o) }
func (r *recordingObserver) Registration(o string)  { r.registrations = append(r.registrations, o) }
func (r *recordingObserver) TokenRejected(o string) { r.rejections = append(r.rejections, o) }

func newGateFixture(t *testing.T, now time.Time) (*Gate, *countingUsers, *TokenCodec, *recordingObserver) {
	t.Helper()
	users := &countingUsers{Store: memstore.New()}
	_, err := users.CreateUser(context.Background(), "a@b.com", "hash")
	require.NoError(t, err)

	codec := newTestCodec(t, time.Minute)
	obs := &recordingObserver{}
	gate := NewGate(codec, users, WithClock(func() time.Time { return now }), WithObserver(obs))
	return gate, users, codec, obs
}

func TestAuthenticate(t *testing.T) {
	gate, _, codec, _ := newGateFixture(t, testNow)
	ctx := context.Background()

	valid, err := codec.Issue(1, testNow)
	require.NoError(t, err)
	expired, err := codec.Issue(1, testNow.Add(-2*time.Minute))
	require.NoError(t, err)
	ghost, err := codec.Issue(99, testNow)
	require.NoError(t, err)

	p, err := gate.Authenticate(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, &Principal{UserID: 1, Email: "a@b.com"}, p)

	_, err = gate.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = gate.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrExpired)

	_, err = gate.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.ErrorIs(t, err, ErrMalformedClaims)
	assert.NotErrorIs(t, err, ErrTokenExpired)

	_, err = gate.Authenticate(ctx, ghost)
	assert.ErrorIs(t, err, ErrUnknownSubject)
}

func TestMiddleware_RejectsWithoutReachingHandler(t *testing.T) {
	gate, users, codec, obs := newGateFixture(t, testNow)

	expired, err := codec.Issue(1, testNow.Add(-time.Hour))
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantCode   string
		wantReason string
		wantLookup bool
	}{
		{"no header", "", apperrors.CodeUnauthorized, ReasonMissing, false},
		{"basic scheme", "Basic YTpi", apperrors.CodeUnauthorized, ReasonMalformedHeader, false},
		{"scheme only", "Bearer", apperrors.CodeUnauthorized, ReasonMalformedHeader, false},
		{"empty token", "Bearer ", apperrors.CodeUnauthorized, ReasonMalformedHeader, false},
		{"extra parts", "Bearer a b", apperrors.CodeUnauthorized, ReasonMalformedHeader, false},
		{"garbage token", "Bearer garbage", apperrors.CodeInvalidToken, ReasonMalformedClaims, false},
		{"expired token", "Bearer " + expired, apperrors.CodeTokenExpired, ReasonExpired, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users.lookups.Store(0)
			obs.rejections = nil
			var reached bool
			handler := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/departments/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.False(t, reached)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			assert.Equal(t, int32(0), users.lookups.Load())
			assert.Equal(t, []string{tt.wantReason}, obs.rejections)

			var body apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestMiddleware_UnknownSubject(t *testing.T) {
	gate, _, codec, obs := newGateFixture(t, testNow)
	token, err := codec.Issue(7, testNow)
	require.NoError(t, err)

	handler := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found")
	assert.Equal(t, []string{ReasonUnknownSubject}, obs.rejections)
}

func TestMiddleware_StoreFailureIsInternal(t *testing.T) {
	gate, users, codec, obs := newGateFixture(t, testNow)
	users.err = errors.New("db down")
	token, err := codec.Issue(1, testNow)
	require.NoError(t, err)

	handler := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
	assert.Empty(t, obs.rejections)
}

func TestMiddleware_AttachesPrincipal(t *testing.T) {
	gate, _, codec, _ := newGateFixture(t, testNow)
	token, err := codec.Issue(1, testNow)
	require.NoError(t, err)

	var got *Principal
	handler := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.UserID)
}

func TestPrincipalFromContext_Empty(t *testing.T) {
	assert.Nil(t, PrincipalFromContext(context.Background()))
}
