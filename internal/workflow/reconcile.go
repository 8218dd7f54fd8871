package workflow

import (
	"time"

	"backend/internal/models"
)

// Action is the time-guard's verdict for a request at a given instant.
type Action int

const (
	// ActionNone: the request is consistent with the clock.
	ActionNone Action = iota
	// ActionRevertSchedule: the delivery window expired without a delivery;
	// the schedule is stale and the request falls back to Approved.
	ActionRevertSchedule
	// ActionPromptForceConfirm: the requester has sat on a delivered request
	// too long; the donor may close it out on their behalf.
	ActionPromptForceConfirm
)

const (
	// Grace period after the delivery window before a schedule counts as stale.
	scheduleGrace = 24 * time.Hour
	// How long the requester gets to confirm receipt before the donor may
	// force-confirm.
	confirmWindow = 72 * time.Hour
)

// Reconcile checks a request against wall-clock time. Pure: any host (a
// detail view, a job, a test) can call it with an explicit now.
func Reconcile(req models.Request, now time.Time) Action {
	if req.Terminal() {
		return ActionNone
	}

	if req.DeliveredStatus == models.DeliveryProcessing &&
		req.Status != models.RequestApproved &&
		req.DeliveryEnd != nil &&
		now.After(req.DeliveryEnd.Add(scheduleGrace)) {
		return ActionRevertSchedule
	}

	if req.DeliveredStatus == models.DeliveryWaiting &&
		req.DateDelivered != nil &&
		now.Sub(*req.DateDelivered) > confirmWindow {
		return ActionPromptForceConfirm
	}

	return ActionNone
}

// RevertSchedule drops a stale delivery window so the donor can schedule
// again. The cleared window keeps the guard from re-firing on the same dates.
func RevertSchedule(req models.Request) models.Request {
	req.Status = models.RequestApproved
	req.DeliveredStatus = ""
	req.DeliveryStart = nil
	req.DeliveryEnd = nil
	return req
}
