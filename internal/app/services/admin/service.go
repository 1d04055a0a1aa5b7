package admin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainads "skoropad/internal/domain/ads"
	"skoropad/internal/domain/moderation"
	domainuser "skoropad/internal/domain/user"
)

var (
	ErrForbidden  = errors.New("admin: insufficient permissions")
	ErrSelfTarget = errors.New("admin: cannot target yourself")
)

// Service implements the moderation panel: user bans, role assignment,
// advertisement removal and VIP promotion, all recorded in the audit log.
type Service struct {
	Users  domainuser.Repository
	Ads    domainads.Repository
	Log    moderation.LogStore
	Logger *slog.Logger
}

func (s *Service) SetBanned(ctx context.Context, actor *domainuser.User, targetID domainuser.ID, banned bool) (*domainuser.User, error) {
	if err := s.requireModerator(actor); err != nil {
		return nil, err
	}
	if actor.ID == targetID {
		return nil, ErrSelfTarget
	}
	target, err := s.Users.ByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	target.SetBanned(banned, time.Now())
	if err := s.Users.Save(ctx, target); err != nil {
		return nil, err
	}
	action := "ban"
	if !banned {
		action = "unban"
	}
	s.record(ctx, actor, action, targetID, nil)
	return target, nil
}

// SetRole assigns a role to a user. Admin-only, unlike bans which moderators
// may also issue.
func (s *Service) SetRole(ctx context.Context, actor *domainuser.User, targetID domainuser.ID, role domainuser.Role) (*domainuser.User, error) {
	if actor == nil || actor.Role != domainuser.RoleAdmin {
		return nil, ErrForbidden
	}
	if actor.ID == targetID {
		return nil, ErrSelfTarget
	}
	target, err := s.Users.ByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := target.AssignRole(role, time.Now()); err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, target); err != nil {
		return nil, err
	}
	s.record(ctx, actor, "role_"+string(target.Role), targetID, map[string]any{"role": string(target.Role)})
	return target, nil
}

func (s *Service) DeleteAdvertisement(ctx context.Context, actor *domainuser.User, adID domainads.ID) error {
	if err := s.requireModerator(actor); err != nil {
		return err
	}
	if _, err := s.Ads.ByID(ctx, adID); err != nil {
		return err
	}
	if err := s.Ads.Delete(ctx, adID); err != nil {
		return err
	}
	s.record(ctx, actor, "delete_advertisement", "", map[string]any{"advertisement_id": string(adID)})
	return nil
}

// SetAdvertisementVIP toggles paid placement for an ad.
func (s *Service) SetAdvertisementVIP(ctx context.Context, actor *domainuser.User, adID domainads.ID, vip bool) (*domainads.Advertisement, error) {
	if err := s.requireModerator(actor); err != nil {
		return nil, err
	}
	ad, err := s.Ads.ByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	ad.SetVIP(vip, time.Now())
	if err := s.Ads.Save(ctx, ad); err != nil {
		return nil, err
	}
	action := "promote_advertisement"
	if !vip {
		action = "demote_advertisement"
	}
	s.record(ctx, actor, action, "", map[string]any{"advertisement_id": string(adID)})
	return ad, nil
}

func (s *Service) ListUsers(ctx context.Context, actor *domainuser.User, params domainuser.ListParams) ([]*domainuser.User, int, error) {
	if err := s.requireModerator(actor); err != nil {
		return nil, 0, err
	}
	return s.Users.List(ctx, params)
}

// RecentLog returns the newest audit entries. Admin-only.
func (s *Service) RecentLog(ctx context.Context, actor *domainuser.User, limit int) ([]moderation.LogEntry, error) {
	if actor == nil || actor.Role != domainuser.RoleAdmin {
		return nil, ErrForbidden
	}
	if limit <= 0 {
		limit = 50
	}
	return s.Log.Recent(ctx, limit)
}

// Export bundles users (without password hashes), ads and the audit log into
// one snapshot for download.
type Export struct {
	Users          []*domainuser.User         `json:"users"`
	Advertisements []*domainads.Advertisement `json:"advertisements"`
	Log            []moderation.LogEntry      `json:"log"`
	Timestamp      time.Time                  `json:"timestamp"`
}

func (s *Service) ExportData(ctx context.Context, actor *domainuser.User) (*Export, error) {
	if actor == nil || actor.Role != domainuser.RoleAdmin {
		return nil, ErrForbidden
	}
	users, _, err := s.Users.List(ctx, domainuser.ListParams{Limit: 0})
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	adList, _, err := s.Ads.Search(ctx, domainads.SearchParams{Limit: 0})
	if err != nil {
		return nil, err
	}
	log, err := s.Log.Recent(ctx, 0)
	if err != nil {
		return nil, err
	}
	return &Export{
		Users:          users,
		Advertisements: adList,
		Log:            log,
		Timestamp:      time.Now().UTC(),
	}, nil
}

func (s *Service) requireModerator(actor *domainuser.User) error {
	if actor == nil || !actor.Moderates() {
		return ErrForbidden
	}
	return nil
}

func (s *Service) record(ctx context.Context, actor *domainuser.User, action string, targetID domainuser.ID, details map[string]any) {
	if s.Log == nil {
		return
	}
	entry, err := moderation.NewLogEntry(uuid.NewString(), actor.ID, action, targetID, details, time.Now())
	if err != nil {
		return
	}
	if err := s.Log.Append(ctx, entry); err != nil && s.Logger != nil {
		// Audit failures must not undo the moderation action itself.
		s.Logger.Error("audit log append failed", "action", action, "error", err)
	}
}
