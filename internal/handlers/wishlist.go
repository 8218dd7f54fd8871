package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

type wishlistAddRequest struct {
	DonationID string `json:"donationId" binding:"required"`
}

func GetWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /wishlist"
		defer handlePanic(c, route)

		email := currentEmail(c)
		if email == "" {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var wishlist models.Wishlist
		err := db.Collection("wishlists").FindOne(ctx, bson.M{"email": email}).Decode(&wishlist)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusOK, gin.H{"email": email, "items": []models.WishlistItem{}})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, wishlist)
	}
}

func AddToWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /wishlist"
		defer handlePanic(c, route)

		email := currentEmail(c)
		if email == "" {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req wishlistAddRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		donationID, err := primitive.ObjectIDFromHex(req.DonationID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid donation id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var donation models.Donation
		err = db.Collection("donations").FindOne(ctx, bson.M{"_id": donationID}).Decode(&donation)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "donation not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if !donation.Available() {
			respondWithError(c, http.StatusConflict, route, "donation is no longer available")
			return
		}

		item := models.WishlistItem{
			ID:         uuid.NewString(),
			DonationID: donationID,
			AddedAt:    time.Now(),
		}

		// one wishlist document per requester; duplicate adds are filtered out
		filter := bson.M{
			"email":            email,
			"items.donationId": bson.M{"$ne": donationID},
		}
		update := bson.M{
			"$setOnInsert": bson.M{"email": email},
			"$push":        bson.M{"items": item},
		}
		_, err = db.Collection("wishlists").UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				c.JSON(http.StatusOK, gin.H{"message": "already in wishlist"})
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[WISHLIST] [INFO] donation added for:", email)
		c.JSON(http.StatusCreated, item)
	}
}

func RemoveFromWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /wishlist/:donationId"
		defer handlePanic(c, route)

		email := currentEmail(c)
		if email == "" {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		donationID, err := primitive.ObjectIDFromHex(c.Param("donationId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid donation id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("wishlists").UpdateOne(
			ctx,
			bson.M{"email": email},
			bson.M{"$pull": bson.M{"items": bson.M{"donationId": donationID}}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.ModifiedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "donation not in wishlist")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "removed from wishlist"})
	}
}
