package dto

import (
	"time"

	domainmoderation "skoropad/internal/domain/moderation"
	domainuser "skoropad/internal/domain/user"
)

// AdminUserList is a paginated account listing for the moderation panel.
type AdminUserList struct {
	Items []UserProfile `json:"items"`
	Total int           `json:"total"`
}

// ModerationLogEntry is one audit trail record.
type ModerationLogEntry struct {
	ID           string         `json:"id"`
	AdminID      string         `json:"admin_id"`
	Action       string         `json:"action"`
	TargetUserID string         `json:"target_user_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// DataExport is the full JSON dump offered to administrators. Password hashes
// never appear in it.
type DataExport struct {
	GeneratedAt    time.Time           `json:"generated_at"`
	Users          []UserProfile       `json:"users"`
	Advertisements []AdvertisementCard `json:"advertisements"`
}

func MapAdminUserList(users []*domainuser.User, total int) AdminUserList {
	items := make([]UserProfile, 0, len(users))
	for _, u := range users {
		items = append(items, MapUserProfile(u))
	}
	return AdminUserList{Items: items, Total: total}
}

func MapModerationLog(entries []domainmoderation.LogEntry) []ModerationLogEntry {
	out := make([]ModerationLogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ModerationLogEntry{
			ID:           e.ID,
			AdminID:      string(e.AdminID),
			Action:       e.Action,
			TargetUserID: string(e.TargetUserID),
			Details:      e.Details,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out
}
