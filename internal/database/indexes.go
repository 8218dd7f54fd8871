package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureDonationIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("donations").Indexes()

	donorIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "donorEmail", Value: 1}},
		Options: options.Index().SetName("donorEmail_index"),
	}
	statusIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "publicationStatus", Value: 1}},
		Options: options.Index().SetName("publicationStatus_index"),
	}

	log.Println("EnsureDonationIndexes: creating donation indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{donorIndex, statusIndex})
	if err != nil {
		log.Println("EnsureDonationIndexes: index error:", err)
		return err
	}
	log.Println("EnsureDonationIndexes: donation indexes created")
	return nil
}

func EnsureRequestIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("requests").Indexes()

	requesterIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "requesterEmail", Value: 1},
			{Key: "status", Value: 1},
		},
		Options: options.Index().SetName("requesterEmail_status_index"),
	}
	donorIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "donorDetails.donorEmail", Value: 1}},
		Options: options.Index().SetName("donorDetails_donorEmail_index"),
	}

	log.Println("EnsureRequestIndexes: creating request indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{requesterIndex, donorIndex})
	if err != nil {
		log.Println("EnsureRequestIndexes: index error:", err)
		return err
	}
	log.Println("EnsureRequestIndexes: request indexes created")
	return nil
}

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	_, err := indexes.CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}
	log.Println("EnsureUserIndexes: email_unique index created")
	return nil
}

func EnsureWishlistIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("wishlists").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureWishlistIndexes: creating email_unique index")
	_, err := indexes.CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureWishlistIndexes: email index error:", err)
		return err
	}
	log.Println("EnsureWishlistIndexes: email_unique index created")
	return nil
}
