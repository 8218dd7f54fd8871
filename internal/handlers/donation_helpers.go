package handlers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// normalizeDonationDocument massages legacy donation documents before
// decoding. Old mobile clients wrote single-photo strings and missing
// publication statuses.
func normalizeDonationDocument(raw bson.M) (models.Donation, error) {
	if photo, ok := raw["subPhotos"].(string); ok {
		raw["subPhotos"] = []string{photo}
	}

	if items, ok := raw["items"].(string); ok {
		raw["items"] = []string{items}
	}

	if _, ok := raw["publicationStatus"]; !ok {
		raw["publicationStatus"] = models.DonationPending
	}

	data, err := bson.Marshal(raw)
	if err != nil {
		return models.Donation{}, err
	}

	var d models.Donation
	if err := bson.Unmarshal(data, &d); err != nil {
		return models.Donation{}, err
	}

	return d, nil
}

func decodeDonations(ctx context.Context, cursor *mongo.Cursor) ([]models.Donation, error) {
	donations := make([]models.Donation, 0)

	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}

		donation, err := normalizeDonationDocument(raw)
		if err != nil {
			return nil, err
		}

		donations = append(donations, donation)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return donations, nil
}
