package handlers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/checkout"
	"backend/internal/models"
)

// userDirectory resolves donor profiles from the users collection. It is the
// production checkout.DonorDirectory.
type userDirectory struct {
	db *mongo.Database
}

func NewUserDirectory(db *mongo.Database) checkout.DonorDirectory {
	return userDirectory{db: db}
}

func (d userDirectory) DonorByEmail(ctx context.Context, email string) (checkout.DonorProfile, error) {
	var user models.User
	err := d.db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return checkout.DonorProfile{}, err
	}
	return checkout.DonorProfile{
		Email:   user.Email,
		Name:    user.Name,
		Address: user.Address,
	}, nil
}
