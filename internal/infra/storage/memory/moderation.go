package memory

import (
	"context"
	"sync"

	"skoropad/internal/domain/moderation"
)

// ModerationLog keeps the admin audit trail in memory, newest last.
type ModerationLog struct {
	mu      sync.RWMutex
	entries []moderation.LogEntry
}

func NewModerationLog() *ModerationLog {
	return &ModerationLog{}
}

func (l *ModerationLog) Append(ctx context.Context, entry moderation.LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

// Recent returns newest entries first. Limit <= 0 means all.
func (l *ModerationLog) Recent(ctx context.Context, limit int) ([]moderation.LogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]moderation.LogEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		out = append(out, l.entries[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

var _ moderation.LogStore = (*ModerationLog)(nil)
