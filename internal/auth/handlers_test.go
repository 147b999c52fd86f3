package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rosterd/rosterd/internal/errors"
)

func postForm(t *testing.T, h apperrors.Handler, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	apperrors.HandleFunc(h)(rec, req)
	return rec
}

func creds(user, pass string) url.Values {
	return url.Values{"username": {user}, "password": {pass}}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorBody {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHandlers_RegisterAndToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := NewHandlers(svc, false)

	rec := postForm(t, h.Register, creds("a@b.com", "pw"))
	require.Equal(t, http.StatusOK, rec.Code)
	var reg RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	assert.Equal(t, RegisterResponse{ID: 1, Email: "a@b.com"}, reg)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = postForm(t, h.Token, creds("a@b.com", "pw"))
	require.Equal(t, http.StatusOK, rec.Code)
	var tok TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)
}

func TestHandlers_RegisterDuplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := NewHandlers(svc, false)

	require.Equal(t, http.StatusOK, postForm(t, h.Register, creds("a@b.com", "pw")).Code)

	rec := postForm(t, h.Register, creds("a@b.com", "pw"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeAlreadyExists, body.Code)
	assert.Equal(t, "User already exists.", body.Message)
}

func TestHandlers_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := NewHandlers(svc, false)

	tests := []struct {
		name    string
		handler apperrors.Handler
		values  url.Values
	}{
		{"token without password", h.Token, url.Values{"username": {"a@b.com"}}},
		{"token without username", h.Token, url.Values{"password": {"pw"}}},
		{"register bad email", h.Register, creds("not-an-email", "pw")},
		{"register without password", h.Register, url.Values{"username": {"a@b.com"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(t, tt.handler, tt.values)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apperrors.CodeValidationError, decodeError(t, rec).Code)
		})
	}
}

func TestHandlers_LoginFailureMessages(t *testing.T) {
	tests := []struct {
		name    string
		reveal  bool
		user    string
		pass    string
		wantMsg string
	}{
		{"collapsed unknown email", false, "x@b.com", "pw", "Invalid credentials."},
		{"collapsed wrong password", false, "a@b.com", "bad", "Invalid credentials."},
		{"revealed unknown email", true, "x@b.com", "pw", "Invalid email."},
		{"revealed wrong password", true, "a@b.com", "bad", "Invalid password."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			h := NewHandlers(svc, tt.reveal)
			require.Equal(t, http.StatusOK, postForm(t, h.Register, creds("a@b.com", "pw")).Code)

			rec := postForm(t, h.Token, creds(tt.user, tt.pass))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, apperrors.CodeInvalidCredentials, body.Code)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestHandlers_MultibytePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := NewHandlers(svc, false)

	rec := postForm(t, h.Register, creds("a@b.com", strings.Repeat("é", 40)))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	body := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeValidationError, body.Code)
	assert.Equal(t, "password: must be at most 72 bytes", body.Message)

	fits := strings.Repeat("é", 36)
	require.Equal(t, http.StatusOK, postForm(t, h.Register, creds("a@b.com", fits)).Code)
	assert.Equal(t, http.StatusOK, postForm(t, h.Token, creds("a@b.com", fits)).Code)
}
