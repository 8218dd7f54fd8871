package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

type registerSellerRequest struct {
	StoreName string `json:"storeName" binding:"required"`
	Phone     string `json:"phone"`
}

type productRequest struct {
	Name        string  `json:"name" binding:"required"`
	Price       float64 `json:"price" binding:"required"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

/* =========================
   SELLER REGISTRATION
========================= */

func RegisterSeller(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /seller/register"
		defer handlePanic(c, route)

		email := currentEmail(c)
		if email == "" {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req registerSellerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		seller := models.Seller{
			Email:     email,
			StoreName: strings.TrimSpace(req.StoreName),
			Phone:     strings.TrimSpace(req.Phone),
			Approved:  false,
			CreatedAt: time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("registeredSeller").CountDocuments(ctx, bson.M{"email": email})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			respondWithError(c, http.StatusConflict, route, "seller already registered")
			return
		}

		if _, err := db.Collection("registeredSeller").InsertOne(ctx, seller); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[SELLER] [INFO] seller registered:", email)
		c.JSON(http.StatusCreated, seller)
	}
}

/* =========================
   PRODUCTS
========================= */

func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := bson.M{
			"isActive":  true,
			"isDeleted": bson.M{"$ne": true},
		}
		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = category
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("products").Find(ctx, filter, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, products)
	}
}

func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /products"
		defer handlePanic(c, route)

		email := currentEmail(c)
		if email == "" {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req productRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if req.Price <= 0 {
			respondWithError(c, http.StatusBadRequest, route, "price must be greater than 0")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var seller models.Seller
		err := db.Collection("registeredSeller").FindOne(ctx, bson.M{"email": email, "approved": true}).Decode(&seller)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusForbidden, route, "approved seller registration required")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		product := models.Product{
			Name:        strings.TrimSpace(req.Name),
			Price:       req.Price,
			SellerEmail: email,
			Category:    models.StringList{strings.TrimSpace(req.Category)},
			Description: strings.TrimSpace(req.Description),
			IsActive:    true,
			CreatedAt:   time.Now(),
		}

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			product.ID = id
		}

		log.Println("[PRODUCT] [INFO] product listed by:", email)
		c.JSON(http.StatusCreated, product)
	}
}

func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /products/:id"
		defer handlePanic(c, route)

		email := currentEmail(c)
		if email == "" {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		res, err := db.Collection("products").UpdateOne(
			ctx,
			bson.M{"_id": id, "sellerEmail": email, "isDeleted": bson.M{"$ne": true}},
			bson.M{"$set": bson.M{"isDeleted": true, "isActive": false, "deletedAt": now}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		log.Println("[PRODUCT] [INFO] product soft-deleted:", id.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}
