package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainads "skoropad/internal/domain/ads"
	domainuser "skoropad/internal/domain/user"
)

type AdRepository struct {
	col *mongo.Collection
}

func NewAdRepository(db *mongo.Database) *AdRepository {
	return &AdRepository{col: db.Collection("advertisements")}
}

func (r *AdRepository) ByID(ctx context.Context, id domainads.ID) (*domainads.Advertisement, error) {
	var doc adDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainads.ErrNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *AdRepository) ByOwner(ctx context.Context, ownerID domainuser.ID) ([]*domainads.Advertisement, error) {
	opts := options.Find().SetSort(catalogSort())
	cursor, err := r.col.Find(ctx, bson.M{"owner_id": string(ownerID)}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAds(ctx, cursor)
}

func (r *AdRepository) Search(ctx context.Context, params domainads.SearchParams) ([]*domainads.Advertisement, int, error) {
	filter := bson.M{}
	if params.Category != "" {
		filter["category"] = params.Category
	}
	if params.Subcategory != "" {
		filter["subcategory"] = params.Subcategory
	}
	if params.Query != "" {
		pattern := bson.M{"$regex": params.Query, "$options": "i"}
		filter["$or"] = bson.A{bson.M{"title": pattern}, bson.M{"description": pattern}}
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(catalogSort())
	if params.Offset > 0 {
		opts.SetSkip(int64(params.Offset))
	}
	if params.Limit > 0 {
		opts.SetLimit(int64(params.Limit))
	}
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	list, err := decodeAds(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return list, int(total), nil
}

func (r *AdRepository) Save(ctx context.Context, ad *domainads.Advertisement) error {
	if ad == nil {
		return domainads.ErrIDRequired
	}
	doc := newAdDocument(ad)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

func (r *AdRepository) Delete(ctx context.Context, id domainads.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainads.ErrNotFound
	}
	return nil
}

func (r *AdRepository) Stats(ctx context.Context, since time.Time) (domainads.Stats, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return domainads.Stats{}, err
	}
	vip, err := r.col.CountDocuments(ctx, bson.M{"vip": true})
	if err != nil {
		return domainads.Stats{}, err
	}
	recent, err := r.col.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": since.UnixMilli()}})
	if err != nil {
		return domainads.Stats{}, err
	}
	return domainads.Stats{TotalAds: int(total), VIPAds: int(vip), RecentAds: int(recent)}, nil
}

// catalogSort orders VIP placements above everything else, newest first
// within each group.
func catalogSort() bson.D {
	return bson.D{{Key: "vip", Value: -1}, {Key: "created_at", Value: -1}}
}

func decodeAds(ctx context.Context, cursor *mongo.Cursor) ([]*domainads.Advertisement, error) {
	defer cursor.Close(ctx)
	var out []*domainads.Advertisement
	for cursor.Next(ctx) {
		var doc adDocument
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

type adDocument struct {
	ID              string   `bson:"_id"`
	OwnerID         string   `bson:"owner_id"`
	Category        string   `bson:"category"`
	Subcategory     string   `bson:"subcategory"`
	Title           string   `bson:"title"`
	Description     string   `bson:"description"`
	Images          []string `bson:"images"`
	DiscordContact  string   `bson:"discord_contact,omitempty"`
	TelegramContact string   `bson:"telegram_contact,omitempty"`
	PriceCents      *int64   `bson:"price_cents,omitempty"`
	VIP             bool     `bson:"vip"`
	CreatedAt       int64    `bson:"created_at"`
	UpdatedAt       int64    `bson:"updated_at"`
}

func newAdDocument(a *domainads.Advertisement) adDocument {
	return adDocument{
		ID:              string(a.ID),
		OwnerID:         string(a.OwnerID),
		Category:        a.Category,
		Subcategory:     a.Subcategory,
		Title:           a.Title,
		Description:     a.Description,
		Images:          append([]string(nil), a.Images...),
		DiscordContact:  a.DiscordContact,
		TelegramContact: a.TelegramContact,
		PriceCents:      a.PriceCents,
		VIP:             a.VIP,
		CreatedAt:       a.CreatedAt.UnixMilli(),
		UpdatedAt:       a.UpdatedAt.UnixMilli(),
	}
}

func (d adDocument) toEntity() *domainads.Advertisement {
	return &domainads.Advertisement{
		ID:              domainads.ID(d.ID),
		OwnerID:         domainuser.ID(d.OwnerID),
		Category:        d.Category,
		Subcategory:     d.Subcategory,
		Title:           d.Title,
		Description:     d.Description,
		Images:          append([]string(nil), d.Images...),
		DiscordContact:  d.DiscordContact,
		TelegramContact: d.TelegramContact,
		PriceCents:      d.PriceCents,
		VIP:             d.VIP,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
	}
}

var _ domainads.Repository = (*AdRepository)(nil)
