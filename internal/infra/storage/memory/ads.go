package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainads "skoropad/internal/domain/ads"
	domainuser "skoropad/internal/domain/user"
)

// AdRepository stores advertisements in memory.
type AdRepository struct {
	mu   sync.RWMutex
	byID map[domainads.ID]*domainads.Advertisement
}

func NewAdRepository() *AdRepository {
	return &AdRepository{byID: make(map[domainads.ID]*domainads.Advertisement)}
}

func (r *AdRepository) ByID(ctx context.Context, id domainads.ID) (*domainads.Advertisement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ad, ok := r.byID[id]; ok {
		return cloneAd(ad), nil
	}
	return nil, domainads.ErrNotFound
}

func (r *AdRepository) ByOwner(ctx context.Context, ownerID domainuser.ID) ([]*domainads.Advertisement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainads.Advertisement
	for _, ad := range r.byID {
		if ad.OwnerID == ownerID {
			out = append(out, cloneAd(ad))
		}
	}
	sortAds(out)
	return out, nil
}

// Search filters by taxonomy and a case-insensitive title/description
// substring, ordered VIP first then newest. Limit <= 0 means no limit.
func (r *AdRepository) Search(ctx context.Context, params domainads.SearchParams) ([]*domainads.Advertisement, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	query := strings.ToLower(strings.TrimSpace(params.Query))
	matched := make([]*domainads.Advertisement, 0, len(r.byID))
	for _, ad := range r.byID {
		if params.Category != "" && ad.Category != params.Category {
			continue
		}
		if params.Subcategory != "" && ad.Subcategory != params.Subcategory {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(ad.Title), query) &&
			!strings.Contains(strings.ToLower(ad.Description), query) {
			continue
		}
		matched = append(matched, cloneAd(ad))
	}
	sortAds(matched)
	total := len(matched)
	if params.Offset > 0 {
		if params.Offset >= len(matched) {
			return nil, total, nil
		}
		matched = matched[params.Offset:]
	}
	if params.Limit > 0 && len(matched) > params.Limit {
		matched = matched[:params.Limit]
	}
	return matched, total, nil
}

func (r *AdRepository) Save(ctx context.Context, ad *domainads.Advertisement) error {
	if ad == nil || strings.TrimSpace(string(ad.ID)) == "" {
		return domainads.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[ad.ID] = cloneAd(ad)
	return nil
}

func (r *AdRepository) Delete(ctx context.Context, id domainads.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domainads.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *AdRepository) Stats(ctx context.Context, since time.Time) (domainads.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := domainads.Stats{TotalAds: len(r.byID)}
	for _, ad := range r.byID {
		if ad.VIP {
			stats.VIPAds++
		}
		if !ad.CreatedAt.Before(since) {
			stats.RecentAds++
		}
	}
	return stats, nil
}

func sortAds(list []*domainads.Advertisement) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].VIP != list[j].VIP {
			return list[i].VIP
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

func cloneAd(a *domainads.Advertisement) *domainads.Advertisement {
	if a == nil {
		return nil
	}
	copyAd := *a
	copyAd.Images = append([]string(nil), a.Images...)
	if a.PriceCents != nil {
		price := *a.PriceCents
		copyAd.PriceCents = &price
	}
	return &copyAd
}

var _ domainads.Repository = (*AdRepository)(nil)
