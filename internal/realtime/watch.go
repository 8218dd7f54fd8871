package realtime

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// Subscriber delivers live updates for one request as the other party
// mutates it. Consumers get the full document after each change; ordering is
// whatever the store pushes, not a stronger guarantee.
type Subscriber interface {
	Subscribe(ctx context.Context, requestID primitive.ObjectID, onChange func(models.Request)) (func(), error)
}

// MongoSubscriber implements Subscriber over a change stream on the requests
// collection.
type MongoSubscriber struct {
	db *mongo.Database
}

func NewMongoSubscriber(db *mongo.Database) *MongoSubscriber {
	return &MongoSubscriber{db: db}
}

func (s *MongoSubscriber) Subscribe(ctx context.Context, requestID primitive.ObjectID, onChange func(models.Request)) (func(), error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": requestID}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := s.db.Collection("requests").Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer stream.Close(context.Background())

		for stream.Next(streamCtx) {
			var event struct {
				FullDocument models.Request `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				log.Println("[REALTIME] [WARN] change decode failed:", err)
				continue
			}
			onChange(event.FullDocument)
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			log.Println("[REALTIME] [WARN] change stream closed:", err)
		}
	}()

	return cancel, nil
}
