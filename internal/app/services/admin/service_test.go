package admin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	adminsvc "skoropad/internal/app/services/admin"
	adssvc "skoropad/internal/app/services/ads"
	domainads "skoropad/internal/domain/ads"
	domainuser "skoropad/internal/domain/user"
	"skoropad/internal/infra/storage/memory"
)

type fixture struct {
	svc   *adminsvc.Service
	ads   *adssvc.Service
	users *memory.UserRepository
	log   *memory.ModerationLog
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	users := memory.NewUserRepository()
	adsRepo := memory.NewAdRepository()
	log := memory.NewModerationLog()
	return fixture{
		svc:   &adminsvc.Service{Users: users, Ads: adsRepo, Log: log},
		ads:   &adssvc.Service{Ads: adsRepo, Users: users},
		users: users,
		log:   log,
	}
}

func (f fixture) addUser(t *testing.T, id string, role domainuser.Role) *domainuser.User {
	t.Helper()
	u, err := domainuser.New(domainuser.CreateParams{
		ID:           domainuser.ID(id),
		Nickname:     id,
		PasswordHash: "hash",
		Role:         role,
	})
	require.NoError(t, err)
	require.NoError(t, f.users.Save(context.Background(), u))
	return u
}

func TestSetBanned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	moderator := f.addUser(t, "mod", domainuser.RoleModerator)
	target := f.addUser(t, "victim", domainuser.RoleUser)

	t.Run("plain user cannot ban", func(t *testing.T) {
		plain := f.addUser(t, "plain", domainuser.RoleUser)
		_, err := f.svc.SetBanned(ctx, plain, target.ID, true)
		require.ErrorIs(t, err, adminsvc.ErrForbidden)
	})

	t.Run("self ban rejected", func(t *testing.T) {
		_, err := f.svc.SetBanned(ctx, moderator, moderator.ID, true)
		require.ErrorIs(t, err, adminsvc.ErrSelfTarget)
	})

	t.Run("ban and unban are audited", func(t *testing.T) {
		banned, err := f.svc.SetBanned(ctx, moderator, target.ID, true)
		require.NoError(t, err)
		require.True(t, banned.Banned)

		unbanned, err := f.svc.SetBanned(ctx, moderator, target.ID, false)
		require.NoError(t, err)
		require.False(t, unbanned.Banned)

		entries, err := f.log.Recent(ctx, 0)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, "unban", entries[0].Action)
		require.Equal(t, "ban", entries[1].Action)
		require.Equal(t, target.ID, entries[0].TargetUserID)
	})
}

func TestSetRoleIsAdminOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.addUser(t, "boss", domainuser.RoleAdmin)
	moderator := f.addUser(t, "mod", domainuser.RoleModerator)
	target := f.addUser(t, "rising", domainuser.RoleUser)

	_, err := f.svc.SetRole(ctx, moderator, target.ID, domainuser.RoleVIP)
	require.ErrorIs(t, err, adminsvc.ErrForbidden)

	promoted, err := f.svc.SetRole(ctx, admin, target.ID, domainuser.RoleVIP)
	require.NoError(t, err)
	require.Equal(t, domainuser.RoleVIP, promoted.Role)

	_, err = f.svc.SetRole(ctx, admin, target.ID, "duke")
	require.ErrorIs(t, err, domainuser.ErrInvalidRole)
}

func TestAdvertisementModeration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	moderator := f.addUser(t, "mod", domainuser.RoleModerator)
	owner := f.addUser(t, "owner", domainuser.RoleUser)

	ad, err := f.ads.Create(ctx, owner, adssvc.CreateParams{
		Category:        "other",
		Subcategory:     "misc",
		Title:           "Лот",
		Description:     "Опис",
		TelegramContact: "@seller",
	})
	require.NoError(t, err)
	require.False(t, ad.VIP)

	promoted, err := f.svc.SetAdvertisementVIP(ctx, moderator, ad.ID, true)
	require.NoError(t, err)
	require.True(t, promoted.VIP)

	require.NoError(t, f.svc.DeleteAdvertisement(ctx, moderator, ad.ID))
	require.ErrorIs(t, f.svc.DeleteAdvertisement(ctx, moderator, ad.ID), domainads.ErrNotFound)

	entries, err := f.log.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "delete_advertisement", entries[0].Action)
	require.Equal(t, "promote_advertisement", entries[1].Action)
}

func TestExportStripsPasswordHashes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.addUser(t, "boss", domainuser.RoleAdmin)
	f.addUser(t, "someone", domainuser.RoleUser)

	_, err := f.svc.ExportData(ctx, f.addUser(t, "mod", domainuser.RoleModerator))
	require.ErrorIs(t, err, adminsvc.ErrForbidden)

	export, err := f.svc.ExportData(ctx, admin)
	require.NoError(t, err)
	require.Len(t, export.Users, 3)
	for _, u := range export.Users {
		require.Empty(t, u.PasswordHash)
	}

	// The stored users keep their hashes.
	stored, err := f.users.ByID(ctx, "someone")
	require.NoError(t, err)
	require.NotEmpty(t, stored.PasswordHash)
}

func TestRecentLogAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.addUser(t, "boss", domainuser.RoleAdmin)
	moderator := f.addUser(t, "mod", domainuser.RoleModerator)

	_, err := f.svc.RecentLog(ctx, moderator, 10)
	require.ErrorIs(t, err, adminsvc.ErrForbidden)

	entries, err := f.svc.RecentLog(ctx, admin, 10)
	require.NoError(t, err)
	require.Empty(t, entries)
}
