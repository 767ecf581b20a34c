package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pcred/internal/domain"
	"pcred/internal/domain/ports/repository"
)

var _ repository.LedgerRepository = (*ledgerRepo)(nil)

type ledgerDoc struct {
	OwnerID string `bson:"_id"`
	Balance int64  `bson:"balance"`
}

type ledgerRepo struct {
	collection *mongo.Collection
}

func NewLedgerRepo(db *mongo.Database) repository.LedgerRepository {
	return &ledgerRepo{collection: db.Collection("ledger")}
}

// Credit uses an upserting $inc so concurrent credits to one owner are
// serialized by the server and no update is lost.
func (r *ledgerRepo) Credit(ctx context.Context, tx repository.Tx, ownerID string, amount int64) (int64, error) {
	var doc ledgerDoc
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": ownerID},
		bson.M{"$inc": bson.M{"balance": amount}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("%w: credit %s: %v", domain.ErrStorageUnavailable, ownerID, err)
	}
	return doc.Balance, nil
}

func (r *ledgerRepo) Balance(ctx context.Context, tx repository.Tx, ownerID string) (int64, error) {
	var doc ledgerDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": ownerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: balance %s: %v", domain.ErrStorageUnavailable, ownerID, err)
	}
	return doc.Balance, nil
}
