package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	authsvc "skoropad/internal/app/services/auth"
	domainauth "skoropad/internal/domain/auth"
	domainuser "skoropad/internal/domain/user"
	"skoropad/internal/infra/security"
	"skoropad/internal/infra/storage/memory"
)

func newService(t *testing.T) (*authsvc.Service, *memory.UserRepository) {
	t.Helper()
	users := memory.NewUserRepository()
	return &authsvc.Service{
		Users:      users,
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{Cost: 4},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
	}, users
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	result, err := svc.Register(ctx, authsvc.RegisterParams{Nickname: "  Skoryi  ", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "skoryi", result.User.Nickname)
	require.Equal(t, domainuser.RoleUser, result.User.Role)
	require.NotEmpty(t, result.Token)

	t.Run("token resolves to the user", func(t *testing.T) {
		resolved, err := svc.ResolveToken(ctx, result.Token)
		require.NoError(t, err)
		require.Equal(t, result.User.ID, resolved.User.ID)
	})

	t.Run("duplicate nickname rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, authsvc.RegisterParams{Nickname: "skoryi", Password: "another1"})
		require.ErrorIs(t, err, domainuser.ErrNicknameTaken)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, authsvc.LoginParams{Nickname: "skoryi", Password: "wrong"})
		require.ErrorIs(t, err, authsvc.ErrInvalidCredentials)
	})

	t.Run("login case-insensitive nickname", func(t *testing.T) {
		logged, err := svc.Login(ctx, authsvc.LoginParams{Nickname: "SKORYI", Password: "secret1"})
		require.NoError(t, err)
		require.Equal(t, result.User.ID, logged.User.ID)
	})
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Register(ctx, authsvc.RegisterParams{Nickname: "", Password: "secret1"})
	require.ErrorIs(t, err, domainuser.ErrNicknameRequired)

	_, err = svc.Register(ctx, authsvc.RegisterParams{Nickname: "ok", Password: "short"})
	require.ErrorIs(t, err, authsvc.ErrPasswordTooShort)
}

func TestBannedUserCannotAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, users := newService(t)

	result, err := svc.Register(ctx, authsvc.RegisterParams{Nickname: "banned", Password: "secret1"})
	require.NoError(t, err)

	stored, err := users.ByID(ctx, result.User.ID)
	require.NoError(t, err)
	stored.SetBanned(true, time.Now())
	require.NoError(t, users.Save(ctx, stored))

	t.Run("login refused", func(t *testing.T) {
		_, err := svc.Login(ctx, authsvc.LoginParams{Nickname: "banned", Password: "secret1"})
		require.ErrorIs(t, err, authsvc.ErrUserBanned)
	})

	t.Run("existing sessions purged on resolve", func(t *testing.T) {
		_, err := svc.ResolveToken(ctx, result.Token)
		require.ErrorIs(t, err, authsvc.ErrUserBanned)
		// The session is gone afterwards.
		_, err = svc.ResolveToken(ctx, result.Token)
		require.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	result, err := svc.Register(ctx, authsvc.RegisterParams{Nickname: "leaver", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.Token))
	_, err = svc.ResolveToken(ctx, result.Token)
	require.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	// Logging out an unknown or empty token is not an error.
	require.NoError(t, svc.Logout(ctx, "unknown"))
	require.NoError(t, svc.Logout(ctx, ""))
}
