package workflow

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

// Tx applies the writes of one state transition. Implementations must make
// the whole function-scoped batch atomic: a completed receipt updates the
// request and flips every referenced donation in the same transaction.
type Tx interface {
	UpdateRequest(ctx context.Context, req models.Request) error
	SetDonationStatus(ctx context.Context, id primitive.ObjectID, status string) error
}

// Store is the document-store boundary of the state machine. The production
// implementation sits on mongo; tests inject an in-memory fake.
type Store interface {
	Request(ctx context.Context, id primitive.ObjectID) (models.Request, error)
	Donations(ctx context.Context, ids []primitive.ObjectID) ([]models.Donation, error)
	Transact(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
