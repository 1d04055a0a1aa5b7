package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainuser "skoropad/internal/domain/user"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection("users")}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *UserRepository) ByNickname(ctx context.Context, nickname string) (*domainuser.User, error) {
	key := domainuser.NormalizeNickname(nickname)
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"nickname": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *UserRepository) Save(ctx context.Context, user *domainuser.User) error {
	if user == nil {
		return domainuser.ErrIDRequired
	}
	doc := newUserDocument(user)
	opts := options.Update().SetUpsert(true)
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts); err != nil {
		// Relies on a unique index on nickname.
		if mongo.IsDuplicateKeyError(err) {
			return domainuser.ErrNicknameTaken
		}
		return err
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, params domainuser.ListParams) ([]*domainuser.User, int, error) {
	filter := bson.M{}
	if params.Query != "" {
		pattern := bson.M{"$regex": params.Query, "$options": "i"}
		filter["$or"] = bson.A{bson.M{"nickname": pattern}, bson.M{"role": pattern}}
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if params.Offset > 0 {
		findOpts.SetSkip(int64(params.Offset))
	}
	if params.Limit > 0 {
		findOpts.SetLimit(int64(params.Limit))
	}
	cursor, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var out []*domainuser.User
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		out = append(out, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}
	return out, int(total), nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

type userDocument struct {
	ID           string `bson:"_id"`
	Nickname     string `bson:"nickname"`
	PasswordHash string `bson:"password_hash"`
	Role         string `bson:"role"`
	Banned       bool   `bson:"banned"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

func newUserDocument(u *domainuser.User) userDocument {
	return userDocument{
		ID:           string(u.ID),
		Nickname:     u.Nickname,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Banned:       u.Banned,
		CreatedAt:    u.CreatedAt.UnixMilli(),
		UpdatedAt:    u.UpdatedAt.UnixMilli(),
	}
}

func (d userDocument) toEntity() *domainuser.User {
	return &domainuser.User{
		ID:           domainuser.ID(d.ID),
		Nickname:     d.Nickname,
		PasswordHash: d.PasswordHash,
		Role:         domainuser.Role(d.Role),
		Banned:       d.Banned,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainuser.Repository = (*UserRepository)(nil)
