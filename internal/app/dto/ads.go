package dto

import (
	"time"

	domainads "skoropad/internal/domain/ads"
)

// AdvertisementCard is the catalog and detail representation of an ad.
type AdvertisementCard struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Category        string    `json:"category"`
	Subcategory     string    `json:"subcategory"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Images          []string  `json:"images"`
	DiscordContact  string    `json:"discord_contact,omitempty"`
	TelegramContact string    `json:"telegram_contact,omitempty"`
	PriceCents      *int64    `json:"price_cents,omitempty"`
	VIP             bool      `json:"vip"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AdvertisementCatalog is a paginated, VIP-first slice of the catalog.
type AdvertisementCatalog struct {
	Items []AdvertisementCard `json:"items"`
	Total int                 `json:"total"`
}

// Category describes one taxonomy branch for catalog filters.
type Category struct {
	Slug          string        `json:"slug"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

type Subcategory struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// SiteStats aggregates counters for the landing page.
type SiteStats struct {
	TotalUsers int `json:"total_users"`
	TotalAds   int `json:"total_ads"`
	VIPAds     int `json:"vip_ads"`
	RecentAds  int `json:"recent_ads"`
}

func MapCategories(categories []domainads.Category) []Category {
	out := make([]Category, 0, len(categories))
	for _, cat := range categories {
		subs := make([]Subcategory, 0, len(cat.Subcategories))
		for _, sub := range cat.Subcategories {
			subs = append(subs, Subcategory{Slug: sub.Key, Name: sub.Name})
		}
		out = append(out, Category{Slug: cat.Key, Name: cat.Name, Subcategories: subs})
	}
	return out
}

func MapAdvertisementCard(ad *domainads.Advertisement) AdvertisementCard {
	if ad == nil {
		return AdvertisementCard{}
	}
	return AdvertisementCard{
		ID:              string(ad.ID),
		OwnerID:         string(ad.OwnerID),
		Category:        ad.Category,
		Subcategory:     ad.Subcategory,
		Title:           ad.Title,
		Description:     ad.Description,
		Images:          append([]string(nil), ad.Images...),
		DiscordContact:  ad.DiscordContact,
		TelegramContact: ad.TelegramContact,
		PriceCents:      ad.PriceCents,
		VIP:             ad.VIP,
		CreatedAt:       ad.CreatedAt,
		UpdatedAt:       ad.UpdatedAt,
	}
}

func MapAdvertisementCatalog(items []*domainads.Advertisement, total int) AdvertisementCatalog {
	cards := make([]AdvertisementCard, 0, len(items))
	for _, ad := range items {
		cards = append(cards, MapAdvertisementCard(ad))
	}
	return AdvertisementCatalog{Items: cards, Total: total}
}
