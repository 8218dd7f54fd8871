package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

/* =========================
   IN-MEMORY STORE
========================= */

type memStore struct {
	requests  map[primitive.ObjectID]models.Request
	donations map[primitive.ObjectID]models.Donation
}

func newMemStore() *memStore {
	return &memStore{
		requests:  make(map[primitive.ObjectID]models.Request),
		donations: make(map[primitive.ObjectID]models.Donation),
	}
}

func (s *memStore) Request(ctx context.Context, id primitive.ObjectID) (models.Request, error) {
	req, ok := s.requests[id]
	if !ok {
		return models.Request{}, errors.New("request not found")
	}
	return req, nil
}

func (s *memStore) Donations(ctx context.Context, ids []primitive.ObjectID) ([]models.Donation, error) {
	donations := make([]models.Donation, 0, len(ids))
	for _, id := range ids {
		if d, ok := s.donations[id]; ok {
			donations = append(donations, d)
		}
	}
	return donations, nil
}

func (s *memStore) Transact(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return fn(ctx, memTx{store: s})
}

type memTx struct {
	store *memStore
}

func (t memTx) UpdateRequest(ctx context.Context, req models.Request) error {
	t.store.requests[req.ID] = req
	return nil
}

func (t memTx) SetDonationStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	d := t.store.donations[id]
	d.PublicationStatus = status
	t.store.donations[id] = d
	return nil
}

/* =========================
   FIXTURES
========================= */

func seedRequest(store *memStore, status, deliveredStatus string, donationCount int) models.Request {
	details := make([]models.DonorDetail, 0, donationCount)
	for i := 0; i < donationCount; i++ {
		d := models.Donation{
			ID:                primitive.NewObjectID(),
			DonorEmail:        "donor@example.com",
			PublicationStatus: models.DonationApproved,
		}
		store.donations[d.ID] = d
		details = append(details, models.DonorDetail{DonationID: d.ID, DonorEmail: d.DonorEmail})
	}

	req := models.Request{
		ID:              primitive.NewObjectID(),
		RequesterEmail:  "requester@example.com",
		Address:         "12 Reuse Road",
		DonorDetails:    details,
		Status:          status,
		DeliveredStatus: deliveredStatus,
		DateRequested:   time.Now(),
	}
	store.requests[req.ID] = req
	return req
}

func testEngine(store *memStore) *Engine {
	return NewEngine(store, nil)
}

/* =========================
   TESTS
========================= */

func TestFullHappyPath(t *testing.T) {
	store := newMemStore()
	engine := testEngine(store)
	ctx := context.Background()
	req := seedRequest(store, models.RequestPending, "", 2)

	got, err := engine.Approve(ctx, req.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if got.Status != models.RequestApproved {
		t.Fatalf("expected Approved, got %s", got.Status)
	}

	start := time.Now().Add(24 * time.Hour)
	end := start.Add(48 * time.Hour)
	got, err = engine.ScheduleDelivery(ctx, req.ID, start, end)
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if got.Status != models.RequestReceiving || got.DeliveredStatus != models.DeliveryProcessing {
		t.Fatalf("expected Receiving/Processing, got %s/%s", got.Status, got.DeliveredStatus)
	}
	if got.DeliveryStart == nil || got.DeliveryEnd == nil {
		t.Fatal("expected delivery window to be set")
	}

	got, err = engine.MarkDelivered(ctx, req.ID)
	if err != nil {
		t.Fatalf("mark delivered failed: %v", err)
	}
	if got.DeliveredStatus != models.DeliveryWaiting || got.DateDelivered == nil {
		t.Fatalf("expected Waiting with dateDelivered, got %s", got.DeliveredStatus)
	}

	got, err = engine.ConfirmReceipt(ctx, req.ID, "uploads/receipts/photo.jpg")
	if err != nil {
		t.Fatalf("confirm receipt failed: %v", err)
	}
	if got.Status != models.RequestCompleted || got.DeliveredStatus != models.DeliveryConfirmed {
		t.Fatalf("expected Completed/Confirmed, got %s/%s", got.Status, got.DeliveredStatus)
	}
	if got.DateReceived == nil || got.ReceivedPhoto == "" {
		t.Fatal("expected dateReceived and receivedPhoto to be set")
	}
	for _, id := range req.DonationIDs() {
		if store.donations[id].PublicationStatus != models.DonationTaken {
			t.Fatalf("expected donation %s taken", id.Hex())
		}
	}
}

func TestApproveRefusesTakenDonation(t *testing.T) {
	store := newMemStore()
	engine := testEngine(store)
	req := seedRequest(store, models.RequestPending, "", 2)

	takenID := req.DonorDetails[1].DonationID
	d := store.donations[takenID]
	d.PublicationStatus = models.DonationTaken
	store.donations[takenID] = d

	_, err := engine.Approve(context.Background(), req.ID)
	var takenErr DonationTakenError
	if !errors.As(err, &takenErr) {
		t.Fatalf("expected DonationTakenError, got %v", err)
	}
	if takenErr.DonationID != takenID {
		t.Fatalf("error names wrong donation: %s", takenErr.DonationID.Hex())
	}
	if store.requests[req.ID].Status != models.RequestPending {
		t.Fatal("refused approve must not change status")
	}
}

func TestTerminalStatesRefuseEveryTransition(t *testing.T) {
	for _, status := range []string{models.RequestCompleted, models.RequestDeclined, models.RequestCancelled} {
		store := newMemStore()
		engine := testEngine(store)
		ctx := context.Background()
		req := seedRequest(store, status, "", 1)

		transitions := map[string]func() error{
			"approve": func() error { _, err := engine.Approve(ctx, req.ID); return err },
			"decline": func() error { _, err := engine.Decline(ctx, req.ID); return err },
			"schedule": func() error {
				_, err := engine.ScheduleDelivery(ctx, req.ID, time.Now(), time.Now().Add(time.Hour))
				return err
			},
			"markDelivered":  func() error { _, err := engine.MarkDelivered(ctx, req.ID); return err },
			"confirmReceipt": func() error { _, err := engine.ConfirmReceipt(ctx, req.ID, "photo.jpg"); return err },
			"cancel":         func() error { _, err := engine.Cancel(ctx, req.ID); return err },
		}
		for name, call := range transitions {
			if err := call(); !errors.Is(err, ErrTerminal) {
				t.Fatalf("%s on %s request: expected ErrTerminal, got %v", name, status, err)
			}
			if store.requests[req.ID].Status != status {
				t.Fatalf("%s mutated a terminal request", name)
			}
		}
	}
}

func TestConfirmReceiptRequiresPhoto(t *testing.T) {
	store := newMemStore()
	engine := testEngine(store)
	req := seedRequest(store, models.RequestReceiving, models.DeliveryWaiting, 1)

	_, err := engine.ConfirmReceipt(context.Background(), req.ID, "  ")
	if !errors.Is(err, ErrPhotoRequired) {
		t.Fatalf("expected ErrPhotoRequired, got %v", err)
	}
	if got := store.requests[req.ID]; got.Status != models.RequestReceiving || got.DeliveredStatus != models.DeliveryWaiting {
		t.Fatal("refused confirm must not change state")
	}
}

func TestScheduleDeliveryRejectsInvertedWindow(t *testing.T) {
	store := newMemStore()
	engine := testEngine(store)
	req := seedRequest(store, models.RequestApproved, "", 1)

	start := time.Now().Add(48 * time.Hour)
	_, err := engine.ScheduleDelivery(context.Background(), req.ID, start, start.Add(-time.Hour))
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestDeclineLeavesDonationsAvailable(t *testing.T) {
	store := newMemStore()
	engine := testEngine(store)
	req := seedRequest(store, models.RequestPending, "", 2)

	got, err := engine.Decline(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("decline failed: %v", err)
	}
	if got.Status != models.RequestDeclined {
		t.Fatalf("expected Declined, got %s", got.Status)
	}
	for _, id := range req.DonationIDs() {
		if store.donations[id].PublicationStatus != models.DonationApproved {
			t.Fatal("decline must not touch donation status")
		}
	}
}

func TestCancelOnlyBeforeDelivery(t *testing.T) {
	store := newMemStore()
	engine := testEngine(store)
	ctx := context.Background()

	approved := seedRequest(store, models.RequestApproved, "", 1)
	if _, err := engine.Cancel(ctx, approved.ID); err != nil {
		t.Fatalf("cancel from Approved failed: %v", err)
	}

	receiving := seedRequest(store, models.RequestReceiving, models.DeliveryProcessing, 1)
	if _, err := engine.Cancel(ctx, receiving.ID); !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState cancelling a Receiving request, got %v", err)
	}
}

func TestMarkDeliveredRequiresProcessing(t *testing.T) {
	store := newMemStore()
	engine := testEngine(store)
	req := seedRequest(store, models.RequestApproved, "", 1)

	if _, err := engine.MarkDelivered(context.Background(), req.ID); !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState before scheduling, got %v", err)
	}
}

func TestForceConfirmReceiptAfterOverdueWindow(t *testing.T) {
	store := newMemStore()
	engine := testEngine(store)
	req := seedRequest(store, models.RequestReceiving, models.DeliveryWaiting, 2)

	delivered := time.Now().Add(-4 * 24 * time.Hour)
	stored := store.requests[req.ID]
	stored.DateDelivered = &delivered
	store.requests[req.ID] = stored

	got, err := engine.ForceConfirmReceipt(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("force confirm failed: %v", err)
	}
	if got.Status != models.RequestCompleted || got.ReceivedPhoto != "" {
		t.Fatalf("expected Completed without photo, got %s photo=%q", got.Status, got.ReceivedPhoto)
	}
	for _, id := range req.DonationIDs() {
		if store.donations[id].PublicationStatus != models.DonationTaken {
			t.Fatal("force confirm must mark donations taken")
		}
	}
}

func TestForceConfirmReceiptRefusedWhileWindowOpen(t *testing.T) {
	store := newMemStore()
	engine := testEngine(store)
	req := seedRequest(store, models.RequestReceiving, models.DeliveryWaiting, 1)

	delivered := time.Now().Add(-24 * time.Hour)
	stored := store.requests[req.ID]
	stored.DateDelivered = &delivered
	store.requests[req.ID] = stored

	if _, err := engine.ForceConfirmReceipt(context.Background(), req.ID); !errors.Is(err, ErrConfirmNotOverdue) {
		t.Fatalf("expected ErrConfirmNotOverdue, got %v", err)
	}
}

func TestReconcileOnViewRevertsStaleSchedule(t *testing.T) {
	store := newMemStore()
	engine := testEngine(store)
	req := seedRequest(store, models.RequestReceiving, models.DeliveryProcessing, 1)

	end := time.Now().Add(-2 * 24 * time.Hour)
	start := end.Add(-24 * time.Hour)
	stored := store.requests[req.ID]
	stored.DeliveryStart = &start
	stored.DeliveryEnd = &end
	store.requests[req.ID] = stored

	got, action, err := engine.ReconcileOnView(context.Background(), store.requests[req.ID])
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if action != ActionRevertSchedule {
		t.Fatalf("expected ActionRevertSchedule, got %v", action)
	}
	if got.Status != models.RequestApproved || got.DeliveredStatus != "" {
		t.Fatalf("expected Approved with cleared sub-state, got %s/%s", got.Status, got.DeliveredStatus)
	}
	if persisted := store.requests[req.ID]; persisted.Status != models.RequestApproved || persisted.DeliveryEnd != nil {
		t.Fatal("stale schedule correction was not persisted")
	}
}
