package ads

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainads "skoropad/internal/domain/ads"
	domainuser "skoropad/internal/domain/user"
)

var (
	ErrNotOwner    = errors.New("ads: not the advertisement owner")
	ErrNotSignedIn = errors.New("ads: sign-in required")
)

type Service struct {
	Ads    domainads.Repository
	Users  domainuser.Repository
	Logger *slog.Logger
}

type CreateParams struct {
	Category        string
	Subcategory     string
	Title           string
	Description     string
	Images          []string
	DiscordContact  string
	TelegramContact string
	PriceCents      *int64
}

// Create builds and stores a new advertisement. VIP placement is derived from
// the creator's role, not chosen by the caller.
func (s *Service) Create(ctx context.Context, owner *domainuser.User, params CreateParams) (*domainads.Advertisement, error) {
	if owner == nil {
		return nil, ErrNotSignedIn
	}
	ad, err := domainads.New(domainads.CreateParams{
		ID:              domainads.ID(uuid.NewString()),
		OwnerID:         owner.ID,
		Category:        params.Category,
		Subcategory:     params.Subcategory,
		Title:           params.Title,
		Description:     params.Description,
		Images:          params.Images,
		DiscordContact:  params.DiscordContact,
		TelegramContact: params.TelegramContact,
		PriceCents:      params.PriceCents,
		VIP:             owner.Privileged(),
		CreatedAt:       time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Ads.Save(ctx, ad); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("advertisement created", "ad_id", ad.ID, "owner_id", owner.ID, "category", ad.Category, "vip", ad.VIP)
	}
	return ad, nil
}

// Search returns the catalog slice for the given filters, VIP ads first and
// newest first within each group.
func (s *Service) Search(ctx context.Context, params domainads.SearchParams) ([]*domainads.Advertisement, int, error) {
	if params.Limit <= 0 {
		params.Limit = 20
	}
	return s.Ads.Search(ctx, params)
}

func (s *Service) ByID(ctx context.Context, id domainads.ID) (*domainads.Advertisement, error) {
	return s.Ads.ByID(ctx, id)
}

func (s *Service) ByOwner(ctx context.Context, ownerID domainuser.ID) ([]*domainads.Advertisement, error) {
	return s.Ads.ByOwner(ctx, ownerID)
}

// Showcase resolves the public profile page of an arbitrary user: the account
// together with every advertisement they own.
func (s *Service) Showcase(ctx context.Context, userID domainuser.ID) (*domainuser.User, []*domainads.Advertisement, error) {
	owner, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.Ads.ByOwner(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return owner, items, nil
}

// Delete removes an advertisement. Owners may delete their own ads;
// moderators and admins may delete any.
func (s *Service) Delete(ctx context.Context, actor *domainuser.User, id domainads.ID) error {
	if actor == nil {
		return ErrNotSignedIn
	}
	ad, err := s.Ads.ByID(ctx, id)
	if err != nil {
		return err
	}
	if ad.OwnerID != actor.ID && !actor.Moderates() {
		return ErrNotOwner
	}
	if err := s.Ads.Delete(ctx, id); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("advertisement deleted", "ad_id", id, "actor_id", actor.ID)
	}
	return nil
}

// SiteStats aggregates the landing-page counters. Recent means the last week.
type SiteStats struct {
	TotalUsers int
	TotalAds   int
	VIPAds     int
	RecentAds  int
}

func (s *Service) SiteStats(ctx context.Context) (SiteStats, error) {
	adStats, err := s.Ads.Stats(ctx, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return SiteStats{}, err
	}
	users := 0
	if s.Users != nil {
		users, err = s.Users.Count(ctx)
		if err != nil {
			return SiteStats{}, err
		}
	}
	return SiteStats{
		TotalUsers: users,
		TotalAds:   adStats.TotalAds,
		VIPAds:     adStats.VIPAds,
		RecentAds:  adStats.RecentAds,
	}, nil
}
