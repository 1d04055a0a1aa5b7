package moderation

import (
	"context"
	"errors"
	"strings"
	"time"

	"skoropad/internal/domain/user"
)

var (
	ErrIDRequired     = errors.New("moderation: id is required")
	ErrAdminRequired  = errors.New("moderation: admin is required")
	ErrActionRequired = errors.New("moderation: action is required")
)

// LogEntry records one moderation action for the admin audit trail.
type LogEntry struct {
	ID           string
	AdminID      user.ID
	Action       string
	TargetUserID user.ID
	Details      map[string]any
	CreatedAt    time.Time
}

type LogStore interface {
	Append(ctx context.Context, entry LogEntry) error
	// Recent returns newest entries first, at most limit.
	Recent(ctx context.Context, limit int) ([]LogEntry, error)
}

func NewLogEntry(id string, adminID user.ID, action string, targetUserID user.ID, details map[string]any, now time.Time) (LogEntry, error) {
	if strings.TrimSpace(id) == "" {
		return LogEntry{}, ErrIDRequired
	}
	if strings.TrimSpace(string(adminID)) == "" {
		return LogEntry{}, ErrAdminRequired
	}
	if strings.TrimSpace(action) == "" {
		return LogEntry{}, ErrActionRequired
	}
	if now.IsZero() {
		now = time.Now()
	}
	return LogEntry{
		ID:           id,
		AdminID:      adminID,
		Action:       action,
		TargetUserID: targetUserID,
		Details:      details,
		CreatedAt:    now.UTC(),
	}, nil
}
