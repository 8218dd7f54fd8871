package workflow

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// MongoStore is the production Store over the requests and donations
// collections.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) Request(ctx context.Context, id primitive.ObjectID) (models.Request, error) {
	var req models.Request
	err := s.db.Collection("requests").FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		return models.Request{}, err
	}
	return req, nil
}

func (s *MongoStore) Donations(ctx context.Context, ids []primitive.ObjectID) ([]models.Donation, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := s.db.Collection("donations").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var donations []models.Donation
	if err := cursor.All(ctx, &donations); err != nil {
		return nil, err
	}
	return donations, nil
}

// Transact runs fn inside a mongo session transaction so a request update
// and its donation status flips land together or not at all.
func (s *MongoStore) Transact(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx, mongoTx{db: s.db})
	})
	return err
}

type mongoTx struct {
	db *mongo.Database
}

func (t mongoTx) UpdateRequest(ctx context.Context, req models.Request) error {
	_, err := t.db.Collection("requests").ReplaceOne(ctx, bson.M{"_id": req.ID}, req)
	return err
}

func (t mongoTx) SetDonationStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	_, err := t.db.Collection("donations").UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"publicationStatus": status}},
	)
	return err
}
