package workflow

import (
	"testing"
	"time"

	"backend/internal/models"
)

func TestReconcileStaleSchedule(t *testing.T) {
	now := time.Now()
	end := now.Add(-2 * 24 * time.Hour)
	req := models.Request{
		Status:          models.RequestReceiving,
		DeliveredStatus: models.DeliveryProcessing,
		DeliveryEnd:     &end,
	}
	if got := Reconcile(req, now); got != ActionRevertSchedule {
		t.Fatalf("expected ActionRevertSchedule, got %v", got)
	}
}

func TestReconcileScheduleWithinGrace(t *testing.T) {
	now := time.Now()
	end := now.Add(-12 * time.Hour)
	req := models.Request{
		Status:          models.RequestReceiving,
		DeliveredStatus: models.DeliveryProcessing,
		DeliveryEnd:     &end,
	}
	if got := Reconcile(req, now); got != ActionNone {
		t.Fatalf("expected ActionNone inside grace period, got %v", got)
	}
}

func TestReconcileOverdueConfirmation(t *testing.T) {
	now := time.Now()
	delivered := now.Add(-4 * 24 * time.Hour)
	req := models.Request{
		Status:          models.RequestReceiving,
		DeliveredStatus: models.DeliveryWaiting,
		DateDelivered:   &delivered,
	}
	if got := Reconcile(req, now); got != ActionPromptForceConfirm {
		t.Fatalf("expected ActionPromptForceConfirm, got %v", got)
	}
}

func TestReconcileRecentDeliveryNeedsNothing(t *testing.T) {
	now := time.Now()
	delivered := now.Add(-24 * time.Hour)
	req := models.Request{
		Status:          models.RequestReceiving,
		DeliveredStatus: models.DeliveryWaiting,
		DateDelivered:   &delivered,
	}
	if got := Reconcile(req, now); got != ActionNone {
		t.Fatalf("expected ActionNone, got %v", got)
	}
}

func TestReconcileIgnoresTerminalRequests(t *testing.T) {
	now := time.Now()
	end := now.Add(-10 * 24 * time.Hour)
	req := models.Request{
		Status:          models.RequestCancelled,
		DeliveredStatus: models.DeliveryProcessing,
		DeliveryEnd:     &end,
	}
	if got := Reconcile(req, now); got != ActionNone {
		t.Fatalf("expected ActionNone for terminal request, got %v", got)
	}
}

func TestRevertScheduleClearsWindow(t *testing.T) {
	now := time.Now()
	end := now.Add(-3 * 24 * time.Hour)
	start := end.Add(-24 * time.Hour)
	req := models.Request{
		Status:          models.RequestReceiving,
		DeliveredStatus: models.DeliveryProcessing,
		DeliveryStart:   &start,
		DeliveryEnd:     &end,
	}

	reverted := RevertSchedule(req)
	if reverted.Status != models.RequestApproved {
		t.Fatalf("expected Approved, got %s", reverted.Status)
	}
	if reverted.DeliveredStatus != "" || reverted.DeliveryStart != nil || reverted.DeliveryEnd != nil {
		t.Fatal("expected delivery window and sub-state cleared")
	}
	if got := Reconcile(reverted, now); got != ActionNone {
		t.Fatalf("guard must not re-fire after revert, got %v", got)
	}
}
