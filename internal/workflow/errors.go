package workflow

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Guard refusals. Handlers map these to user-facing validation errors; none
// of them leaves partial state behind.
var (
	ErrTerminal          = errors.New("request already finalized")
	ErrBadState          = errors.New("action not allowed in current state")
	ErrPhotoRequired     = errors.New("a receipt photo is required")
	ErrInvalidWindow     = errors.New("delivery window start must not be after end")
	ErrConfirmNotOverdue = errors.New("receipt confirmation is not overdue yet")
)

// DonationTakenError refuses an approval that references a donation another
// request has already consumed.
type DonationTakenError struct {
	DonationID primitive.ObjectID
}

func (e DonationTakenError) Error() string {
	return fmt.Sprintf("donation %s is already taken", e.DonationID.Hex())
}
