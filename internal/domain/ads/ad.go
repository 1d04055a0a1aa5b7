package ads

import (
	"context"
	"errors"
	"strings"
	"time"

	"skoropad/internal/domain/user"
)

var (
	ErrIDRequired          = errors.New("ads: id is required")
	ErrOwnerRequired       = errors.New("ads: owner is required")
	ErrTitleRequired       = errors.New("ads: title is required")
	ErrDescriptionRequired = errors.New("ads: description is required")
	ErrContactRequired     = errors.New("ads: at least one contact is required")
	ErrTooManyImages       = errors.New("ads: at most 10 images allowed")
	ErrNegativePrice       = errors.New("ads: price cannot be negative")
	ErrNotFound            = errors.New("ads: not found")
)

// MaxImages caps the number of images attached to one advertisement.
const MaxImages = 10

type ID string

type Advertisement struct {
	ID              ID
	OwnerID         user.ID
	Category        string
	Subcategory     string
	Title           string
	Description     string
	Images          []string
	DiscordContact  string
	TelegramContact string
	PriceCents      *int64
	VIP             bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type SearchParams struct {
	Category    string
	Subcategory string
	Query       string
	Limit       int
	Offset      int
}

// Stats aggregates the public counters shown on the landing page.
type Stats struct {
	TotalAds  int
	VIPAds    int
	RecentAds int
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Advertisement, error)
	ByOwner(ctx context.Context, ownerID user.ID) ([]*Advertisement, error)
	// Search returns ads ordered VIP first, then newest first.
	Search(ctx context.Context, params SearchParams) ([]*Advertisement, int, error)
	Save(ctx context.Context, ad *Advertisement) error
	Delete(ctx context.Context, id ID) error
	// Stats counts all ads, VIP ads, and ads created at or after since.
	Stats(ctx context.Context, since time.Time) (Stats, error)
}

type CreateParams struct {
	ID              ID
	OwnerID         user.ID
	Category        string
	Subcategory     string
	Title           string
	Description     string
	Images          []string
	DiscordContact  string
	TelegramContact string
	PriceCents      *int64
	VIP             bool
	CreatedAt       time.Time
}

func New(params CreateParams) (*Advertisement, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.OwnerID)) == "" {
		return nil, ErrOwnerRequired
	}
	if err := ValidateTaxonomy(params.Category, params.Subcategory); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	description := strings.TrimSpace(params.Description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	discord := strings.TrimSpace(params.DiscordContact)
	telegram := strings.TrimSpace(params.TelegramContact)
	if discord == "" && telegram == "" {
		return nil, ErrContactRequired
	}
	if len(params.Images) > MaxImages {
		return nil, ErrTooManyImages
	}
	if params.PriceCents != nil && *params.PriceCents < 0 {
		return nil, ErrNegativePrice
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	return &Advertisement{
		ID:              ID(id),
		OwnerID:         params.OwnerID,
		Category:        strings.TrimSpace(params.Category),
		Subcategory:     strings.TrimSpace(params.Subcategory),
		Title:           title,
		Description:     description,
		Images:          append([]string(nil), params.Images...),
		DiscordContact:  discord,
		TelegramContact: telegram,
		PriceCents:      params.PriceCents,
		VIP:             params.VIP,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (a *Advertisement) SetVIP(vip bool, now time.Time) {
	a.VIP = vip
	a.touch(now)
}

func (a *Advertisement) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	a.UpdatedAt = now.UTC()
}
