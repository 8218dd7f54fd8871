package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
	"backend/internal/workflow"
)

type scheduleDeliveryRequest struct {
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
}

/* =========================
   DONOR ACTIONS
========================= */

func ApproveRequest(db *mongo.Database, engine *workflow.Engine) gin.HandlerFunc {
	return donorAction(db, "POST /requests/:id/approve", func(ctx context.Context, c *gin.Context, id primitive.ObjectID) (models.Request, error) {
		return engine.Approve(ctx, id)
	})
}

func DeclineRequest(db *mongo.Database, engine *workflow.Engine) gin.HandlerFunc {
	return donorAction(db, "POST /requests/:id/decline", func(ctx context.Context, c *gin.Context, id primitive.ObjectID) (models.Request, error) {
		return engine.Decline(ctx, id)
	})
}

func ScheduleDelivery(db *mongo.Database, engine *workflow.Engine) gin.HandlerFunc {
	return donorAction(db, "POST /requests/:id/schedule", func(ctx context.Context, c *gin.Context, id primitive.ObjectID) (models.Request, error) {
		var req scheduleDeliveryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return models.Request{}, errInvalidBody
		}
		return engine.ScheduleDelivery(ctx, id, req.StartDate, req.EndDate)
	})
}

func MarkDelivered(db *mongo.Database, engine *workflow.Engine) gin.HandlerFunc {
	return donorAction(db, "POST /requests/:id/delivered", func(ctx context.Context, c *gin.Context, id primitive.ObjectID) (models.Request, error) {
		return engine.MarkDelivered(ctx, id)
	})
}

// ForceConfirmReceipt is the accept path of the time-guard prompt: the donor
// closes out a delivery the requester never confirmed.
func ForceConfirmReceipt(db *mongo.Database, engine *workflow.Engine) gin.HandlerFunc {
	return donorAction(db, "POST /requests/:id/force-confirm", func(ctx context.Context, c *gin.Context, id primitive.ObjectID) (models.Request, error) {
		return engine.ForceConfirmReceipt(ctx, id)
	})
}

/* =========================
   REQUESTER ACTIONS
========================= */

func ConfirmReceipt(db *mongo.Database, engine *workflow.Engine) gin.HandlerFunc {
	return requesterAction(db, "POST /requests/:id/receipt", func(ctx context.Context, c *gin.Context, id primitive.ObjectID) (models.Request, error) {
		photoURL := ""
		if file, err := c.FormFile("photo"); err == nil {
			photoURL, err = savePhoto(file, "receipts")
			if err != nil {
				return models.Request{}, err
			}
		}
		// an absent photo reaches the engine as "" and is refused there
		return engine.ConfirmReceipt(ctx, id, photoURL)
	})
}

func CancelRequest(db *mongo.Database, engine *workflow.Engine) gin.HandlerFunc {
	return requesterAction(db, "POST /requests/:id/cancel", func(ctx context.Context, c *gin.Context, id primitive.ObjectID) (models.Request, error) {
		return engine.Cancel(ctx, id)
	})
}

/* =========================
   SHARED PLUMBING
========================= */

var errInvalidBody = errors.New("invalid request body")

type actionFunc func(ctx context.Context, c *gin.Context, id primitive.ObjectID) (models.Request, error)

func donorAction(db *mongo.Database, route string, action actionFunc) gin.HandlerFunc {
	return requestAction(db, route, action, func(req models.Request, email string) bool {
		for _, donor := range req.DonorEmails() {
			if donor == email {
				return true
			}
		}
		return false
	})
}

func requesterAction(db *mongo.Database, route string, action actionFunc) gin.HandlerFunc {
	return requestAction(db, route, action, func(req models.Request, email string) bool {
		return req.RequesterEmail == email
	})
}

func requestAction(db *mongo.Database, route string, action actionFunc, allowed func(models.Request, string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
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

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
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
		if !allowed(request, email) {
			respondWithError(c, http.StatusForbidden, route, "forbidden")
			return
		}

		updated, err := action(ctx, c, id)
		if err != nil {
			respondWorkflowError(c, route, err)
			return
		}

		log.Printf("[%s] request %s now %s", route, updated.ID.Hex(), updated.Status)
		c.JSON(http.StatusOK, updated)
	}
}

func respondWorkflowError(c *gin.Context, route string, err error) {
	var takenErr workflow.DonationTakenError
	switch {
	case errors.As(err, &takenErr):
		log.Printf("[%s] returning error %d: %s", route, http.StatusConflict, err)
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":      "donation already taken",
			"donationId": takenErr.DonationID.Hex(),
		})
	case errors.Is(err, workflow.ErrTerminal), errors.Is(err, workflow.ErrBadState):
		respondWithError(c, http.StatusConflict, route, err.Error())
	case errors.Is(err, workflow.ErrPhotoRequired),
		errors.Is(err, workflow.ErrInvalidWindow),
		errors.Is(err, workflow.ErrConfirmNotOverdue),
		errors.Is(err, errInvalidBody):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	case errors.Is(err, mongo.ErrNoDocuments):
		respondWithError(c, http.StatusNotFound, route, "request not found")
	default:
		respondWithError(c, http.StatusInternalServerError, route, "db error")
	}
}
