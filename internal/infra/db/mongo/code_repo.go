package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pcred/internal/domain"
	"pcred/internal/domain/model"
	"pcred/internal/domain/ports/repository"
)

var _ repository.CodeRepository = (*codeRepo)(nil)

type codeDoc struct {
	ID        string     `bson:"_id"`
	Code      string     `bson:"code"`
	OwnerID   string     `bson:"owner_id"`
	Reward    int64      `bson:"reward"`
	State     string     `bson:"state"`
	CreatedAt time.Time  `bson:"created_at"`
	ExpiresAt time.Time  `bson:"expires_at"`
	UsedAt    *time.Time `bson:"used_at,omitempty"`
}

type codeRepo struct {
	collection *mongo.Collection
}

func NewCodeRepo(db *mongo.Database) *codeRepo {
	return &codeRepo{collection: db.Collection("reward_codes")}
}

// EnsureIndexes creates the unique index backing code uniqueness. Call once at
// startup before serving requests.
func (r *codeRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create code index: %w", err)
	}
	return nil
}

func (r *codeRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.RewardCode) error {
	doc := codeDoc{
		ID:        rec.ID,
		Code:      rec.Code,
		OwnerID:   rec.OwnerID,
		Reward:    rec.Reward,
		State:     string(rec.State),
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
		UsedAt:    rec.UsedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("%w: insert code: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *codeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RewardCode, error) {
	var doc codeDoc
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, fmt.Errorf("%w: find code: %v", domain.ErrStorageUnavailable, err)
	}
	return doc.toModel(), nil
}

// MarkUsed expresses the check-and-set as one conditional FindOneAndUpdate
// request, never a read followed by a write: the server evaluates the filter
// and applies the update atomically, so racing redeemers get one winner.
func (r *codeRepo) MarkUsed(ctx context.Context, tx repository.Tx, code, ownerID string, usedAt time.Time) (*model.RewardCode, error) {
	filter := bson.M{
		"code":       code,
		"owner_id":   ownerID,
		"state":      string(model.CodeStateUnused),
		"expires_at": bson.M{"$gt": usedAt},
	}
	update := bson.M{"$set": bson.M{
		"state":   string(model.CodeStateUsed),
		"used_at": usedAt,
	}}

	var doc codeDoc
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRedeemRejected
		}
		return nil, fmt.Errorf("%w: mark used: %v", domain.ErrStorageUnavailable, err)
	}
	return doc.toModel(), nil
}

func (r *codeRepo) PurgeExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{
		"state":      string(model.CodeStateUnused),
		"expires_at": bson.M{"$lte": now},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: purge expired: %v", domain.ErrStorageUnavailable, err)
	}
	return int(res.DeletedCount), nil
}

func (d *codeDoc) toModel() *model.RewardCode {
	return &model.RewardCode{
		ID:        d.ID,
		Code:      d.Code,
		OwnerID:   d.OwnerID,
		Reward:    d.Reward,
		State:     model.CodeState(d.State),
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
		UsedAt:    d.UsedAt,
	}
}
