package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/rosterd/rosterd/internal/errors"
	"github.com/rosterd/rosterd/internal/store"
)

var (
	ErrMissingToken    = errors.New("missing bearer token")
	ErrMalformedHeader = errors.New("malformed authorization header")
	ErrTokenInvalid    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrUnknownSubject  = errors.New("token subject does not exist")
)

// Principal is the authenticated user attached to a request.
type Principal struct {
	UserID int64
	Email  string
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by Gate.Middleware, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// Gate resolves bearer tokens to live users.
type Gate struct {
	codec *TokenCodec
	users store.Users
	opts  options
}

func NewGate(codec *TokenCodec, users store.Users, opts ...Option) *Gate {
	return &Gate{codec: codec, users: users, opts: buildOptions(opts)}
}

func (g *Gate) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	id, err := g.codec.Decode(token, g.opts.clock())
	if err != nil {
		if errors.Is(err, ErrExpired) {
			return nil, fmt.Errorf("%w: %w: %w", ErrTokenInvalid, ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	user, err := g.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrUnknownSubject, id)
		}
		return nil, fmt.Errorf("lookup token subject: %w", err)
	}

	return &Principal{UserID: user.ID, Email: user.Email}, nil
}

// Middleware rejects requests without a valid bearer token before they reach
// next. Accepted requests carry the Principal in their context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return apperrors.HandleFunc(func(w http.ResponseWriter, r *http.Request) error {
		ctx := r.Context()

		token, err := bearerToken(r.Header.Get("Authorization"))
		var p *Principal
		if err == nil {
			p, err = g.Authenticate(ctx, token)
		}
		if err != nil {
			reason, appErr := g.reject(err)
			if reason != "" {
				g.opts.observer.TokenRejected(reason)
				g.opts.log.Debug(ctx, "request rejected", map[string]interface{}{
					"reason": reason,
					"path":   r.URL.Path,
				})
			}
			w.Header().Set("WWW-Authenticate", "Bearer")
			return appErr
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, p)))
		return nil
	})
}

// reject maps an authentication failure to its metric reason and HTTP error.
// Store failures have no reason and surface as 500.
func (g *Gate) reject(err error) (string, error) {
	switch {
	case errors.Is(err, ErrMissingToken):
		return ReasonMissing, apperrors.Unauthorized("Not authenticated")
	case errors.Is(err, ErrMalformedHeader):
		return ReasonMalformedHeader, apperrors.Unauthorized("Not authenticated")
	case errors.Is(err, ErrTokenExpired):
		return ReasonExpired, apperrors.TokenExpired()
	case errors.Is(err, ErrInvalidSignature):
		return ReasonInvalidSignature, apperrors.InvalidToken("Invalid token")
	case errors.Is(err, ErrTokenInvalid):
		return ReasonMalformedClaims, apperrors.InvalidToken("Invalid token")
	case errors.Is(err, ErrUnknownSubject):
		return ReasonUnknownSubject, apperrors.InvalidToken("User not found")
	default:
		return "", err
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", ErrMalformedHeader
	}
	return parts[1], nil
}
