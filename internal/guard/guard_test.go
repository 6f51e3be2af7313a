package guard_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"taskdesk/internal/guard"
	"taskdesk/internal/keystore"
	"taskdesk/internal/logging"
	"taskdesk/internal/session"
	"taskdesk/internal/testutil"
)

func TestResolve(t *testing.T) {
	private := guard.Route{Name: "tasks", RequiresAuth: true}
	public := guard.Route{Name: "login"}

	t.Run("anonymous is redirected", func(t *testing.T) {
		s := session.New(testutil.NewFakeService(), keystore.NewMemoryStore(), logging.Discard())
		g := guard.New(s)

		require.Equal(t, guard.Decision{Redirect: guard.LoginRoute}, g.Resolve(context.Background(), private))
		require.Equal(t, guard.Decision{Allowed: true}, g.Resolve(context.Background(), public))
	})

	t.Run("restored session is allowed", func(t *testing.T) {
		svc := testutil.NewFakeService()
		storage := keystore.NewMemoryStore()
		uid := svc.AddUser("a@b.c", "alice", "pw")
		require.NoError(t, storage.Set(keystore.CredentialKey, svc.IssueToken(uid)))
		g := guard.New(session.New(svc, storage, logging.Discard()))

		require.True(t, g.Resolve(context.Background(), private).Allowed)
		require.True(t, g.Resolve(context.Background(), private).Allowed)
		require.Equal(t, 1, svc.Calls("CurrentUser"))
	})

	t.Run("stale credential is redirected", func(t *testing.T) {
		svc := testutil.NewFakeService()
		storage := keystore.NewMemoryStore()
		require.NoError(t, storage.Set(keystore.CredentialKey, "expired"))
		g := guard.New(session.New(svc, storage, logging.Discard()))

		d := g.Resolve(context.Background(), private)
		require.False(t, d.Allowed)
		require.Equal(t, "login", d.Redirect)
		_, ok, err := storage.Get(keystore.CredentialKey)
		require.NoError(t, err)
		require.False(t, ok)
	})
}
