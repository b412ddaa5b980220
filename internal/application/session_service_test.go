package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-task-manager/internal/domain/apperr"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
)

func loggedIn(t *testing.T, f *fixture, email string) *entity.User {
	t.Helper()
	in := register(t, f, email)
	u, err := f.users.FindByCredentials(context.Background(), in.Email, in.Password)
	require.NoError(t, err)
	return u
}

func TestIssueVerifyRevoke(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := loggedIn(t, f, "s@example.com")

	tok, err := f.sessions.IssueToken(ctx, u)
	require.NoError(t, err)
	assert.Contains(t, u.Tokens, tok)

	got, raw, err := f.sessions.VerifyToken(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, tok, raw)

	require.NoError(t, f.sessions.RevokeToken(ctx, u, tok))
	_, _, err = f.sessions.VerifyToken(ctx, tok)
	assert.ErrorIs(t, err, apperr.ErrAuth)

	// revoking twice is harmless
	require.NoError(t, f.sessions.RevokeToken(ctx, u, tok))
}

func TestRevokeToken_KeepsOtherSessions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := loggedIn(t, f, "multi@example.com")

	a, err := f.sessions.IssueToken(ctx, u)
	require.NoError(t, err)
	b, err := f.sessions.IssueToken(ctx, u)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	require.NoError(t, f.sessions.RevokeToken(ctx, u, a))

	_, _, err = f.sessions.VerifyToken(ctx, a)
	assert.Error(t, err)
	_, _, err = f.sessions.VerifyToken(ctx, b)
	assert.NoError(t, err)
}

func TestRevokeAll(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := loggedIn(t, f, "all@example.com")

	var toks []string
	for i := 0; i < 3; i++ {
		tok, err := f.sessions.IssueToken(ctx, u)
		require.NoError(t, err)
		toks = append(toks, tok)
	}
	require.NoError(t, f.sessions.RevokeAll(ctx, u))
	assert.Empty(t, u.Tokens)
	for _, tok := range toks {
		_, _, err := f.sessions.VerifyToken(ctx, tok)
		assert.ErrorIs(t, err, apperr.ErrAuth)
	}
}

func TestVerifyToken_Rejects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := loggedIn(t, f, "rej@example.com")

	other := NewSessionService(f.store.Users(), helpers.NewJWTManager("another-secret", time.Hour), nil)
	forged, err := other.IssueToken(ctx, u)
	require.NoError(t, err)

	expired := NewSessionService(f.store.Users(), helpers.NewJWTManager("test-secret", -time.Minute), nil)
	old, err := expired.IssueToken(ctx, u)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"wrong secret": forged,
		"expired":      old,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := f.sessions.VerifyToken(ctx, tok)
			require.Error(t, err)
			assert.Equal(t, apperr.Auth, apperr.KindOf(err))
		})
	}
}

func TestVerifyToken_DeletedUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := loggedIn(t, f, "del@example.com")
	tok, err := f.sessions.IssueToken(ctx, u)
	require.NoError(t, err)

	require.NoError(t, f.users.DeleteAccount(ctx, u))

	_, _, err = f.sessions.VerifyToken(ctx, tok)
	assert.ErrorIs(t, err, apperr.ErrAuth)
}
