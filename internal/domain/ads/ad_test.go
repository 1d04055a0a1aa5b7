package ads_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"skoropad/internal/domain/ads"
)

func TestValidateTaxonomy(t *testing.T) {
	require.NoError(t, ads.ValidateTaxonomy("automobiles", "sale"))
	require.NoError(t, ads.ValidateTaxonomy("real-estate", "greenhouses"))
	require.NoError(t, ads.ValidateTaxonomy("other", "misc"))

	require.ErrorIs(t, ads.ValidateTaxonomy("weapons", "swords"), ads.ErrUnknownCategory)
	// Subcategory must belong to its own category.
	require.ErrorIs(t, ads.ValidateTaxonomy("clothing", "apartments"), ads.ErrUnknownSubcategory)
}

func TestNewAdvertisement(t *testing.T) {
	base := ads.CreateParams{
		ID:             "ad-1",
		OwnerID:        "owner",
		Category:       "clothing",
		Subcategory:    "backpacks",
		Title:          "  Рюкзак  ",
		Description:    "Місткий",
		DiscordContact: "seller#0001",
	}

	ad, err := ads.New(base)
	require.NoError(t, err)
	require.Equal(t, "Рюкзак", ad.Title)
	require.False(t, ad.VIP)
	require.Equal(t, ad.CreatedAt, ad.UpdatedAt)

	t.Run("one contact suffices", func(t *testing.T) {
		p := base
		p.DiscordContact = ""
		p.TelegramContact = "@seller"
		_, err := ads.New(p)
		require.NoError(t, err)
	})

	t.Run("no contacts rejected", func(t *testing.T) {
		p := base
		p.DiscordContact = "   "
		_, err := ads.New(p)
		require.ErrorIs(t, err, ads.ErrContactRequired)
	})

	t.Run("image cap", func(t *testing.T) {
		p := base
		p.Images = make([]string, ads.MaxImages)
		_, err := ads.New(p)
		require.NoError(t, err)

		p.Images = make([]string, ads.MaxImages+1)
		_, err = ads.New(p)
		require.ErrorIs(t, err, ads.ErrTooManyImages)
	})

	t.Run("price may be absent but not negative", func(t *testing.T) {
		p := base
		_, err := ads.New(p)
		require.NoError(t, err)

		negative := int64(-1)
		p.PriceCents = &negative
		_, err = ads.New(p)
		require.ErrorIs(t, err, ads.ErrNegativePrice)
	})
}
