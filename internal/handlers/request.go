package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/checkout"
	"backend/internal/fees"
	"backend/internal/models"
	"backend/internal/notify"
	"backend/internal/realtime"
	"backend/internal/workflow"
)

/* =========================
   REQUEST DTOs
========================= */

type checkoutRequest struct {
	DonationIDs   []string `json:"donationIds" binding:"required"`
	Address       string   `json:"address" binding:"required"`
	PaymentMethod string   `json:"paymentMethod"`
}

type checkoutPreviewRequest struct {
	DonationIDs []string `json:"donationIds" binding:"required"`
	Address     string   `json:"address" binding:"required"`
}

/* =========================
   CHECKOUT PREVIEW
========================= */

func PreviewCheckout(db *mongo.Database, directory checkout.DonorDirectory, resolver fees.DistanceResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout/preview"
		defer handlePanic(c, route)

		var req checkoutPreviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		donations, err := loadSelectedDonations(ctx, db, req.DonationIDs)
		if err != nil {
			respondSelectionError(c, route, err)
			return
		}

		sections := checkout.GroupByDonor(ctx, donations, strings.TrimSpace(req.Address), directory, resolver)
		deliveryFee, disposalFee := checkout.Totals(sections)

		c.JSON(http.StatusOK, gin.H{
			"sections":    sections,
			"deliveryFee": deliveryFee,
			"disposalFee": disposalFee,
		})
	}
}

/* =========================
   CREATE REQUEST
========================= */

func CreateRequest(db *mongo.Database, directory checkout.DonorDirectory, resolver fees.DistanceResolver, notifier notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /requests"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		email := currentEmail(c)
		if email == "" {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		address := strings.TrimSpace(req.Address)
		if address == "" {
			respondWithError(c, http.StatusBadRequest, route, "delivery address is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		donations, err := loadSelectedDonations(ctx, db, req.DonationIDs)
		if err != nil {
			respondSelectionError(c, route, err)
			return
		}

		sections := checkout.GroupByDonor(ctx, donations, address, directory, resolver)
		request := buildRequestFromSections(email, address, req.PaymentMethod, sections, time.Now())

		res, err := db.Collection("requests").InsertOne(ctx, request)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			request.ID = id
		}

		for _, donor := range request.DonorEmails() {
			go func(recipient string) {
				notifyCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := notifier.Notify(notifyCtx, recipient, "New donation request", "Someone requested your donation. Review and approve it."); err != nil {
					log.Println("[NOTIFY] [WARN] dispatch failed for", recipient, ":", err)
				}
			}(donor)
		}

		log.Println("[REQUEST] [INFO] request created by:", email)
		c.JSON(http.StatusCreated, request)
	}
}

// buildRequestFromSections assembles the persisted request from the derived
// checkout sections, aggregating fees across every donor section.
func buildRequestFromSections(requesterEmail, address, paymentMethod string, sections []checkout.RequestSection, now time.Time) models.Request {
	details := make([]models.DonorDetail, 0)
	for _, section := range sections {
		for _, donation := range section.Donations {
			details = append(details, models.DonorDetail{
				DonationID: donation.ID,
				DonorEmail: section.DonorEmail,
			})
		}
	}

	deliveryFee, disposalFee := checkout.Totals(sections)

	paymentMethod = strings.TrimSpace(paymentMethod)
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	return models.Request{
		RequesterEmail: requesterEmail,
		Address:        address,
		DonorDetails:   details,
		PaymentMethod:  paymentMethod,
		DeliveryFee:    deliveryFee,
		DisposalFee:    disposalFee,
		Status:         models.RequestPending,
		DateRequested:  now,
	}
}

/* =========================
   LIST & DETAIL
========================= */

func GetRequests(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /requests"
		defer handlePanic(c, route)

		email := currentEmail(c)
		if email == "" {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		filter := bson.M{"requesterEmail": email}
		if c.Query("role") == "donor" {
			filter = bson.M{"donorDetails.donorEmail": email}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "dateRequested", Value: -1}})
		cursor, err := db.Collection("requests").Find(ctx, filter, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		requests := make([]models.Request, 0)
		if err := cursor.All(ctx, &requests); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, requests)
	}
}

// GetRequest returns one request and runs the time-guard over it, exactly as
// the mobile detail screens do on mount. The response carries a prompt flag
// when the donor may force-confirm an overdue receipt.
func GetRequest(db *mongo.Database, engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /requests/:id"
		defer handlePanic(c, route)

		email := currentEmail(c)
		if email == "" {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var request models.Request
		err = db.Collection("requests").FindOne(ctx, bson.M{"_id": id}).Decode(&request)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "request not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if !requestParty(request, email) {
			respondWithError(c, http.StatusForbidden, route, "forbidden")
			return
		}

		request, action, err := engine.ReconcileOnView(ctx, request)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"request":            request,
			"promptForceConfirm": action == workflow.ActionPromptForceConfirm,
		})
	}
}

// LiveRequest streams request changes over SSE until the client disconnects.
func LiveRequest(db *mongo.Database, subscriber realtime.Subscriber) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /requests/:id/live"
		defer handlePanic(c, route)

		email := currentEmail(c)
		if email == "" {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request id")
			return
		}

		updates := make(chan models.Request, 8)
		unsubscribe, err := subscriber.Subscribe(c.Request.Context(), id, func(req models.Request) {
			select {
			case updates <- req:
			default:
				// a slow consumer drops intermediate states, never blocks the stream
			}
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "subscription failed")
			return
		}
		defer unsubscribe()

		c.Stream(func(w io.Writer) bool {
			select {
			case req := <-updates:
				if !requestParty(req, email) {
					return false
				}
				c.SSEvent("request", req)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}

/* =========================
   HELPERS
========================= */

var errDonationUnavailable = errors.New("donation is no longer available")

func loadSelectedDonations(ctx context.Context, db *mongo.Database, ids []string) ([]models.Donation, error) {
	if len(ids) == 0 {
		return nil, errors.New("at least one donation is required")
	}

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, raw := range ids {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, errors.New("invalid donation id")
		}
		objectIDs = append(objectIDs, id)
	}

	cursor, err := db.Collection("donations").Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	donations, err := decodeDonations(ctx, cursor)
	if err != nil {
		return nil, err
	}
	if len(donations) != len(objectIDs) {
		return nil, errors.New("donation not found")
	}
	for _, d := range donations {
		if !d.Available() {
			return nil, errDonationUnavailable
		}
	}
	return donations, nil
}

func respondSelectionError(c *gin.Context, route string, err error) {
	if errors.Is(err, errDonationUnavailable) {
		respondWithError(c, http.StatusConflict, route, err.Error())
		return
	}
	respondWithError(c, http.StatusBadRequest, route, err.Error())
}

func requestParty(req models.Request, email string) bool {
	if req.RequesterEmail == email {
		return true
	}
	for _, donor := range req.DonorEmails() {
		if donor == email {
			return true
		}
	}
	return false
}
