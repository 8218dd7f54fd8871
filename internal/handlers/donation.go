package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

/* =========================
   BROWSE
========================= */

func GetDonations(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /donations"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := bson.M{"publicationStatus": models.DonationApproved}
		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = category
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("donations").Find(ctx, filter, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		donations, err := decodeDonations(ctx, cursor)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		log.Printf("[%s] returning %d donations", route, len(donations))
		c.JSON(http.StatusOK, donations)
	}
}

func GetMyDonations(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /donations/mine"
		defer handlePanic(c, route)

		email := currentEmail(c)
		if email == "" {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("donations").Find(ctx, bson.M{"donorEmail": email})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		donations, err := decodeDonations(ctx, cursor)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, donations)
	}
}

/* =========================
   DONOR CRUD
========================= */

func CreateDonation(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /donations"
		defer handlePanic(c, route)

		email := currentEmail(c)
		if email == "" {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		input, err := parseMultipartDonationRequest(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if len(input.Items) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "at least one item is required")
			return
		}
		if input.Location == "" {
			respondWithError(c, http.StatusBadRequest, route, "pickup location is required")
			return
		}

		donation := models.Donation{
			DonorEmail:        email,
			Items:             input.Items,
			Category:          input.Category,
			WeightKg:          models.Weight(input.WeightKg),
			Location:          input.Location,
			Photo:             input.Photo,
			SubPhotos:         input.SubPhotos,
			PublicationStatus: models.DonationPending,
			CreatedAt:         time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("donations").InsertOne(ctx, donation)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			donation.ID = id
		}

		log.Println("[DONATION] [INFO] donation created by:", email)
		c.JSON(http.StatusCreated, donation)
	}
}

func UpdateDonation(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /donations/:id"
		defer handlePanic(c, route)

		email := currentEmail(c)
		if email == "" {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid donation id")
			return
		}

		input, err := parseMultipartDonationRequest(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.Donation
		err = db.Collection("donations").FindOne(ctx, bson.M{"_id": id, "donorEmail": email}).Decode(&existing)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "donation not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if existing.PublicationStatus == models.DonationTaken {
			respondWithError(c, http.StatusConflict, route, "a taken donation can no longer be edited")
			return
		}

		update := bson.M{}
		if input.ItemsSet {
			update["items"] = input.Items
		}
		if input.CategorySet {
			update["category"] = input.Category
		}
		if input.WeightSet {
			update["weightKg"] = input.WeightKg
		}
		if input.LocationSet {
			update["location"] = input.Location
		}
		if input.PhotoSet {
			update["photo"] = input.Photo
		}
		if input.SubPhotosSet {
			update["subPhotos"] = input.SubPhotos
		}
		if len(update) == 0 {
			c.JSON(http.StatusOK, existing)
			return
		}

		_, err = db.Collection("donations").UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if input.PhotoSet && existing.Photo != "" && existing.Photo != input.Photo {
			if err := safeDeleteUpload(existing.Photo); err != nil {
				log.Println("[DONATION] [WARN] stale photo cleanup failed:", err)
			}
		}

		log.Println("[DONATION] [INFO] donation updated:", id.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "donation updated"})
	}
}

func DeleteDonation(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /donations/:id"
		defer handlePanic(c, route)

		email := currentEmail(c)
		if email == "" {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid donation id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.Donation
		err = db.Collection("donations").FindOne(ctx, bson.M{"_id": id, "donorEmail": email}).Decode(&existing)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "donation not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if existing.PublicationStatus == models.DonationTaken {
			respondWithError(c, http.StatusConflict, route, "a taken donation is kept as history")
			return
		}

		if _, err := db.Collection("donations").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		for _, photo := range append([]string{existing.Photo}, existing.SubPhotos...) {
			if err := safeDeleteUpload(photo); err != nil {
				log.Println("[DONATION] [WARN] photo cleanup failed:", err)
			}
		}

		log.Println("[DONATION] [INFO] donation deleted:", id.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "donation deleted"})
	}
}

/* =========================
   MULTIPART PARSER
========================= */

type MultipartDonationInput struct {
	Items        models.StringList
	ItemsSet     bool
	Category     string
	CategorySet  bool
	WeightKg     float64
	WeightSet    bool
	Location     string
	LocationSet  bool
	Photo        string
	PhotoSet     bool
	SubPhotos    models.StringList
	SubPhotosSet bool
}

func parseMultipartDonationRequest(c *gin.Context) (MultipartDonationInput, error) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		log.Println("PARSE ERROR:", err)
		return MultipartDonationInput{}, err
	}

	input := MultipartDonationInput{}

	items := c.PostFormArray("item")
	if len(items) > 0 {
		cleaned := make(models.StringList, 0, len(items))
		for _, item := range items {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		input.Items = cleaned
		input.ItemsSet = true
	}

	if value, ok := c.GetPostForm("category"); ok {
		input.Category = strings.TrimSpace(value)
		input.CategorySet = true
	}

	if value, ok := c.GetPostForm("location"); ok {
		input.Location = strings.TrimSpace(value)
		input.LocationSet = true
	}

	if value, ok := c.GetPostForm("weightKg"); ok {
		// declared weights arrive as free text; unparseable means 0
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			parsed = 0
		}
		input.WeightKg = parsed
		input.WeightSet = true
	}

	if file, err := c.FormFile("photo"); err == nil {
		photoPath, err := savePhoto(file, "donations")
		if err != nil {
			return MultipartDonationInput{}, err
		}
		input.Photo = photoPath
		input.PhotoSet = true
	}

	if form := c.Request.MultipartForm; form != nil {
		files := form.File["subPhoto"]
		if len(files) > 0 {
			paths := make(models.StringList, 0, len(files))
			for _, file := range files {
				photoPath, err := savePhoto(file, "donations")
				if err != nil {
					return MultipartDonationInput{}, err
				}
				paths = append(paths, photoPath)
			}
			input.SubPhotos = paths
			input.SubPhotosSet = true
		}
	}

	return input, nil
}
