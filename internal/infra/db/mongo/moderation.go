package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"skoropad/internal/domain/moderation"
	domainuser "skoropad/internal/domain/user"
)

type ModerationLog struct {
	collection *mongo.Collection
}

func NewModerationLog(db *mongo.Database) *ModerationLog {
	return &ModerationLog{collection: db.Collection("admin_logs")}
}

func (l *ModerationLog) Append(ctx context.Context, entry moderation.LogEntry) error {
	_, err := l.collection.InsertOne(ctx, newLogDocument(entry))
	return err
}

func (l *ModerationLog) Recent(ctx context.Context, limit int) ([]moderation.LogEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := l.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []moderation.LogEntry
	for cursor.Next(ctx) {
		var doc logDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type logDocument struct {
	ID           string         `bson:"_id"`
	AdminID      string         `bson:"admin_id"`
	Action       string         `bson:"action"`
	TargetUserID string         `bson:"target_user_id,omitempty"`
	Details      map[string]any `bson:"details,omitempty"`
	CreatedAt    int64          `bson:"created_at"`
}

func newLogDocument(e moderation.LogEntry) logDocument {
	return logDocument{
		ID:           e.ID,
		AdminID:      string(e.AdminID),
		Action:       e.Action,
		TargetUserID: string(e.TargetUserID),
		Details:      e.Details,
		CreatedAt:    e.CreatedAt.UnixMilli(),
	}
}

func (d logDocument) toEntity() moderation.LogEntry {
	return moderation.LogEntry{
		ID:           d.ID,
		AdminID:      domainuser.ID(d.AdminID),
		Action:       d.Action,
		TargetUserID: domainuser.ID(d.TargetUserID),
		Details:      d.Details,
		CreatedAt:    timestampToTime(d.CreatedAt),
	}
}

var _ moderation.LogStore = (*ModerationLog)(nil)
