package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterd/rosterd/internal/memstore"
)

func newTestService(t *testing.T) (*Service, *TokenCodec, *recordingObserver) {
	t.Helper()
	codec := newTestCodec(t, 30*time.Minute)
	obs := &recordingObserver{}
	svc := NewService(memstore.New(), NewHasher(4), codec,
		WithClock(func() time.Time { return testNow }),
		WithObserver(obs),
	)
	return svc, codec, obs
}

func TestRegisterThenLogin(t *testing.T) {
	svc, codec, obs := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	token, err := svc.Login(ctx, "a@b.com", "pw")
	require.NoError(t, err)

	id, err := codec.Decode(token, testNow)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	assert.Equal(t, []string{OutcomeSuccess}, obs.registrations)
	assert.Equal(t, []string{OutcomeSuccess}, obs.logins)
}

func TestLogin_Failures(t *testing.T) {
	svc, _, obs := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "a@b.com", "pw")
	require.NoError(t, err)
	require.Nil(t, svc.hasher.dummy)

	_, err = svc.Login(ctx, "nobody@b.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, ErrUnknownEmail)
	// Unknown emails still pay for a bcrypt compare.
	assert.NotNil(t, svc.hasher.dummy)

	_, err = svc.Login(ctx, "a@b.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, ErrWrongPassword)

	assert.Equal(t, []string{OutcomeUnknownEmail, OutcomeWrongPassword}, obs.logins)
}

func TestEmailNormalization(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  Alice@Example.COM ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = svc.Register(ctx, "ALICE@example.com", "other")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = svc.Login(ctx, "alice@EXAMPLE.com", "pw")
	assert.NoError(t, err)
}

func TestRegister_MultibytePassword(t *testing.T) {
	svc, _, obs := newTestService(t)
	ctx := context.Background()

	fits := strings.Repeat("é", 36)
	_, err := svc.Register(ctx, "a@b.com", fits)
	require.NoError(t, err)
	_, err = svc.Login(ctx, "a@b.com", fits)
	assert.NoError(t, err)

	_, err = svc.Register(ctx, "c@d.com", strings.Repeat("é", 40))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.Equal(t, []string{OutcomeSuccess, OutcomeInvalid}, obs.registrations)
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _, obs := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@b.com", "pw")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "a@b.com", "pw")
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, []string{OutcomeSuccess, OutcomeAlreadyExists}, obs.registrations)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	codec := newTestCodec(t, time.Minute)
	svc := NewService(memstore.New(), NewHasher(4), codec)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, "race@b.com", "pw")
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, ErrAlreadyExists), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail(" A@B.com\t"))
	assert.Equal(t, "strasse@b.com", NormalizeEmail("STRASSE@b.com"))
}
