package ads_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	adssvc "skoropad/internal/app/services/ads"
	domainads "skoropad/internal/domain/ads"
	domainuser "skoropad/internal/domain/user"
	"skoropad/internal/infra/storage/memory"
)

func newUser(t *testing.T, id string, role domainuser.Role) *domainuser.User {
	t.Helper()
	u, err := domainuser.New(domainuser.CreateParams{
		ID:           domainuser.ID(id),
		Nickname:     id,
		PasswordHash: "hash",
		Role:         role,
	})
	require.NoError(t, err)
	return u
}

func validParams() adssvc.CreateParams {
	return adssvc.CreateParams{
		Category:       "automobiles",
		Subcategory:    "sale",
		Title:          "Швидка автівка",
		Description:    "Майже нова",
		DiscordContact: "seller#0001",
	}
}

func TestCreateDerivesVIPFromRole(t *testing.T) {
	ctx := context.Background()
	svc := &adssvc.Service{Ads: memory.NewAdRepository(), Users: memory.NewUserRepository()}

	regular, err := svc.Create(ctx, newUser(t, "plain", domainuser.RoleUser), validParams())
	require.NoError(t, err)
	require.False(t, regular.VIP)

	vip, err := svc.Create(ctx, newUser(t, "fancy", domainuser.RoleVIP), validParams())
	require.NoError(t, err)
	require.True(t, vip.VIP)

	admin, err := svc.Create(ctx, newUser(t, "boss", domainuser.RoleAdmin), validParams())
	require.NoError(t, err)
	require.True(t, admin.VIP)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := &adssvc.Service{Ads: memory.NewAdRepository(), Users: memory.NewUserRepository()}
	owner := newUser(t, "owner", domainuser.RoleUser)

	_, err := svc.Create(ctx, nil, validParams())
	require.ErrorIs(t, err, adssvc.ErrNotSignedIn)

	bad := validParams()
	bad.Category = "spaceships"
	_, err = svc.Create(ctx, owner, bad)
	require.ErrorIs(t, err, domainads.ErrUnknownCategory)

	bad = validParams()
	bad.Subcategory = "rockets"
	_, err = svc.Create(ctx, owner, bad)
	require.ErrorIs(t, err, domainads.ErrUnknownSubcategory)

	bad = validParams()
	bad.DiscordContact = ""
	_, err = svc.Create(ctx, owner, bad)
	require.ErrorIs(t, err, domainads.ErrContactRequired)

	bad = validParams()
	bad.Images = make([]string, domainads.MaxImages+1)
	_, err = svc.Create(ctx, owner, bad)
	require.ErrorIs(t, err, domainads.ErrTooManyImages)

	negative := int64(-100)
	bad = validParams()
	bad.PriceCents = &negative
	_, err = svc.Create(ctx, owner, bad)
	require.ErrorIs(t, err, domainads.ErrNegativePrice)
}

func TestSearchOrdersVIPFirst(t *testing.T) {
	ctx := context.Background()
	svc := &adssvc.Service{Ads: memory.NewAdRepository(), Users: memory.NewUserRepository()}

	older, err := svc.Create(ctx, newUser(t, "plain", domainuser.RoleUser), validParams())
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	newer, err := svc.Create(ctx, newUser(t, "plain2", domainuser.RoleUser), validParams())
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	vip, err := svc.Create(ctx, newUser(t, "fancy", domainuser.RoleVIP), validParams())
	require.NoError(t, err)

	items, total, err := svc.Search(ctx, domainads.SearchParams{Category: "automobiles"})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, vip.ID, items[0].ID)
	require.Equal(t, newer.ID, items[1].ID)
	require.Equal(t, older.ID, items[2].ID)
}

func TestDeletePermissions(t *testing.T) {
	ctx := context.Background()
	svc := &adssvc.Service{Ads: memory.NewAdRepository(), Users: memory.NewUserRepository()}
	owner := newUser(t, "owner", domainuser.RoleUser)
	stranger := newUser(t, "stranger", domainuser.RoleUser)
	moderator := newUser(t, "mod", domainuser.RoleModerator)

	ad, err := svc.Create(ctx, owner, validParams())
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, stranger, ad.ID), adssvc.ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, owner, ad.ID))
	require.ErrorIs(t, svc.Delete(ctx, owner, ad.ID), domainads.ErrNotFound)

	second, err := svc.Create(ctx, owner, validParams())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, moderator, second.ID))
}

func TestSiteStats(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	svc := &adssvc.Service{Ads: memory.NewAdRepository(), Users: users}

	u := newUser(t, "owner", domainuser.RoleUser)
	require.NoError(t, users.Save(ctx, u))
	_, err := svc.Create(ctx, u, validParams())
	require.NoError(t, err)
	_, err = svc.Create(ctx, newUser(t, "fancy", domainuser.RoleVIP), validParams())
	require.NoError(t, err)

	stats, err := svc.SiteStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalUsers)
	require.Equal(t, 2, stats.TotalAds)
	require.Equal(t, 1, stats.VIPAds)
	require.Equal(t, 2, stats.RecentAds)
}
