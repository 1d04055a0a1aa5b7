package dto

import (
	"time"

	domainads "skoropad/internal/domain/ads"
	domainuser "skoropad/internal/domain/user"
)

// UserProfile is the public snapshot of an account.
type UserProfile struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Role      string    `json:"role"`
	Banned    bool      `json:"banned"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse carries the bearer token together with the signed-in profile.
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

// UserShowcase is the public profile page: the account plus its ads.
type UserShowcase struct {
	User UserProfile          `json:"user"`
	Ads  AdvertisementCatalog `json:"ads"`
}

func MapUserShowcase(u *domainuser.User, items []*domainads.Advertisement) UserShowcase {
	return UserShowcase{
		User: MapUserProfile(u),
		Ads:  MapAdvertisementCatalog(items, len(items)),
	}
}

func MapUserProfile(u *domainuser.User) UserProfile {
	if u == nil {
		return UserProfile{}
	}
	return UserProfile{
		ID:        string(u.ID),
		Nickname:  u.Nickname,
		Role:      string(u.Role),
		Banned:    u.Banned,
		CreatedAt: u.CreatedAt,
	}
}
