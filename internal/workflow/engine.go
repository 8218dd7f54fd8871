package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
	"backend/internal/notify"
)

// Engine owns every request lifecycle transition. Handlers are thin views
// over it: they authenticate the actor and translate errors, nothing else.
type Engine struct {
	store    Store
	notifier notify.Notifier
	now      func() time.Time
}

func NewEngine(store Store, notifier notify.Notifier) *Engine {
	return &Engine{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

/* =========================
   DONOR TRANSITIONS
========================= */

// Approve moves a pending request to Approved. It refuses if any referenced
// donation has been taken by another request in the meantime.
func (e *Engine) Approve(ctx context.Context, id primitive.ObjectID) (models.Request, error) {
	req, err := e.store.Request(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	if req.Terminal() {
		return models.Request{}, ErrTerminal
	}
	if req.Status != models.RequestPending {
		return models.Request{}, ErrBadState
	}

	donations, err := e.store.Donations(ctx, req.DonationIDs())
	if err != nil {
		return models.Request{}, err
	}
	for _, d := range donations {
		if d.PublicationStatus == models.DonationTaken {
			return models.Request{}, DonationTakenError{DonationID: d.ID}
		}
	}

	req.Status = models.RequestApproved
	if err := e.updateRequest(ctx, req); err != nil {
		return models.Request{}, err
	}

	e.emit(req.RequesterEmail, "Request approved", "Your donation request was approved. The donor will schedule a delivery.")
	e.emitToDonors(req, "Request approved", "You approved a donation request. Please schedule the delivery.")
	log.Println("[WORKFLOW] [INFO] request approved:", req.ID.Hex())
	return req, nil
}

// Decline rejects a request before delivery starts. The donations stay
// available; nothing is rolled back because nothing was taken.
func (e *Engine) Decline(ctx context.Context, id primitive.ObjectID) (models.Request, error) {
	req, err := e.store.Request(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	if req.Terminal() {
		return models.Request{}, ErrTerminal
	}
	if req.Status != models.RequestPending && req.Status != models.RequestApproved {
		return models.Request{}, ErrBadState
	}

	req.Status = models.RequestDeclined
	if err := e.updateRequest(ctx, req); err != nil {
		return models.Request{}, err
	}

	e.emit(req.RequesterEmail, "Request declined", "The donor declined your donation request.")
	e.emitToDonors(req, "Request declined", "You declined a donation request.")
	log.Println("[WORKFLOW] [INFO] request declined:", req.ID.Hex())
	return req, nil
}

// ScheduleDelivery sets the delivery window on an approved request and moves
// it into the Receiving phase.
func (e *Engine) ScheduleDelivery(ctx context.Context, id primitive.ObjectID, start, end time.Time) (models.Request, error) {
	if start.After(end) {
		return models.Request{}, ErrInvalidWindow
	}

	req, err := e.store.Request(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	if req.Terminal() {
		return models.Request{}, ErrTerminal
	}
	if req.Status != models.RequestApproved {
		return models.Request{}, ErrBadState
	}

	req.Status = models.RequestReceiving
	req.DeliveredStatus = models.DeliveryProcessing
	req.DeliveryStart = &start
	req.DeliveryEnd = &end
	if err := e.updateRequest(ctx, req); err != nil {
		return models.Request{}, err
	}

	window := fmt.Sprintf("Delivery is scheduled between %s and %s.",
		start.Format("Jan 2"), end.Format("Jan 2"))
	e.emit(req.RequesterEmail, "Delivery scheduled", window)
	e.emitToDonors(req, "Delivery scheduled", window)
	log.Println("[WORKFLOW] [INFO] delivery scheduled:", req.ID.Hex())
	return req, nil
}

// MarkDelivered records that the donor handed the items over and starts the
// requester's confirmation window.
func (e *Engine) MarkDelivered(ctx context.Context, id primitive.ObjectID) (models.Request, error) {
	req, err := e.store.Request(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	if req.Terminal() {
		return models.Request{}, ErrTerminal
	}
	if req.DeliveredStatus != models.DeliveryProcessing {
		return models.Request{}, ErrBadState
	}

	delivered := e.now()
	req.DeliveredStatus = models.DeliveryWaiting
	req.DateDelivered = &delivered
	if err := e.updateRequest(ctx, req); err != nil {
		return models.Request{}, err
	}

	e.emit(req.RequesterEmail, "Items delivered", "The donor marked your items as delivered. Please confirm receipt with a photo.")
	e.emitToDonors(req, "Items delivered", "Delivery recorded. Waiting for the requester to confirm receipt.")
	log.Println("[WORKFLOW] [INFO] marked delivered:", req.ID.Hex())
	return req, nil
}

/* =========================
   REQUESTER TRANSITIONS
========================= */

// ConfirmReceipt completes the request. It requires an evidence photo and
// flips every referenced donation to taken in the same transaction as the
// request update.
func (e *Engine) ConfirmReceipt(ctx context.Context, id primitive.ObjectID, photoURL string) (models.Request, error) {
	if strings.TrimSpace(photoURL) == "" {
		return models.Request{}, ErrPhotoRequired
	}
	return e.complete(ctx, id, photoURL)
}

// Cancel withdraws a request before delivery starts. Donations stay
// available.
func (e *Engine) Cancel(ctx context.Context, id primitive.ObjectID) (models.Request, error) {
	req, err := e.store.Request(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	if req.Terminal() {
		return models.Request{}, ErrTerminal
	}
	if req.Status != models.RequestPending && req.Status != models.RequestApproved {
		return models.Request{}, ErrBadState
	}

	req.Status = models.RequestCancelled
	if err := e.updateRequest(ctx, req); err != nil {
		return models.Request{}, err
	}

	e.emitToDonors(req, "Request cancelled", "The requester cancelled the donation request.")
	log.Println("[WORKFLOW] [INFO] request cancelled:", req.ID.Hex())
	return req, nil
}

/* =========================
   TIME-GUARD
========================= */

// ForceConfirmReceipt lets the donor close out a delivery the requester never
// confirmed. Only allowed once the confirmation window is overdue; behaves as
// ConfirmReceipt without the photo requirement.
func (e *Engine) ForceConfirmReceipt(ctx context.Context, id primitive.ObjectID) (models.Request, error) {
	req, err := e.store.Request(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	if Reconcile(req, e.now()) != ActionPromptForceConfirm {
		return models.Request{}, ErrConfirmNotOverdue
	}
	return e.complete(ctx, id, "")
}

// ReconcileOnView runs the time-guard against a freshly loaded request,
// persisting a stale-schedule correction immediately. The returned action
// tells the caller whether the donor should be prompted to force-confirm.
func (e *Engine) ReconcileOnView(ctx context.Context, req models.Request) (models.Request, Action, error) {
	action := Reconcile(req, e.now())
	if action != ActionRevertSchedule {
		return req, action, nil
	}

	req = RevertSchedule(req)
	if err := e.updateRequest(ctx, req); err != nil {
		return models.Request{}, ActionNone, err
	}

	e.emitToDonors(req, "Delivery window expired", "The scheduled delivery window passed. Please schedule a new delivery.")
	log.Println("[WORKFLOW] [INFO] stale schedule reverted:", req.ID.Hex())
	return req, action, nil
}

/* =========================
   INTERNAL
========================= */

func (e *Engine) complete(ctx context.Context, id primitive.ObjectID, photoURL string) (models.Request, error) {
	req, err := e.store.Request(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	if req.Terminal() {
		return models.Request{}, ErrTerminal
	}
	if req.DeliveredStatus != models.DeliveryWaiting {
		return models.Request{}, ErrBadState
	}

	received := e.now()
	req.Status = models.RequestCompleted
	req.DeliveredStatus = models.DeliveryConfirmed
	req.DateReceived = &received
	req.ReceivedPhoto = photoURL

	err = e.store.Transact(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.UpdateRequest(ctx, req); err != nil {
			return err
		}
		for _, donationID := range req.DonationIDs() {
			if err := tx.SetDonationStatus(ctx, donationID, models.DonationTaken); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Request{}, err
	}

	e.emit(req.RequesterEmail, "Request completed", "Receipt confirmed. Thank you for reusing.")
	e.emitToDonors(req, "Request completed", "The requester received the items. The donation is now marked as taken.")
	log.Println("[WORKFLOW] [INFO] request completed:", req.ID.Hex())
	return req, nil
}

func (e *Engine) updateRequest(ctx context.Context, req models.Request) error {
	return e.store.Transact(ctx, func(ctx context.Context, tx Tx) error {
		return tx.UpdateRequest(ctx, req)
	})
}

// emit dispatches a notification without blocking the transition. Failures
// are logged and swallowed; they are not correctness-critical.
func (e *Engine) emit(recipient, title, body string) {
	if e.notifier == nil || recipient == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := e.notifier.Notify(ctx, recipient, title, body); err != nil {
			log.Println("[NOTIFY] [WARN] dispatch failed for", recipient, ":", err)
		}
	}()
}

func (e *Engine) emitToDonors(req models.Request, title, body string) {
	for _, donor := range req.DonorEmails() {
		e.emit(donor, title, body)
	}
}
