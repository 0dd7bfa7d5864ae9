package award

import (
	"fmt"
	"time"

	"github.com/nurpe/tender-awards/internal/model"
)

// CanInitializeAward gates the start of the award workflow: the tender must be
// closed and past its sealed-bid opening date.
func CanInitializeAward(t *model.Tender, now time.Time) error {
	if t.Status != model.TenderStatusClosed {
		return fmt.Errorf("%w: tender is %s, award requires CLOSED", ErrInvalidState, t.Status)
	}
	if !t.Opened(now) {
		return fmt.Errorf("%w: offers are sealed until %s", ErrInvalidState, t.OpeningDate.Format(time.RFC3339))
	}
	return nil
}

// CanFinalize gates the terminal transition. The status re-check must also run
// inside the finalize transaction; this pre-check only gives callers a fast
// failure before any work is done.
func CanFinalize(t *model.Tender, allocations []model.AwardAllocation) error {
	if t.Status.IsTerminal() {
		return fmt.Errorf("%w: tender is already %s", ErrConflict, t.Status)
	}
	if t.Status != model.TenderStatusClosed {
		return fmt.Errorf("%w: tender is %s, finalize requires CLOSED", ErrInvalidState, t.Status)
	}
	if len(allocations) == 0 {
		return fmt.Errorf("%w: award has not been initialized", ErrInvalidState)
	}
	return nil
}

// CanDistribute gates distribution updates: legal only between initialization
// and finalize.
func CanDistribute(t *model.Tender) error {
	if t.Status.IsTerminal() {
		return fmt.Errorf("%w: tender is already %s", ErrConflict, t.Status)
	}
	if t.Status != model.TenderStatusClosed {
		return fmt.Errorf("%w: tender is %s, distribute requires CLOSED", ErrInvalidState, t.Status)
	}
	return nil
}

// NextStatusAwarded validates the terminal transition against the tender
// transition table.
func NextStatusAwarded(t *model.Tender) (model.TenderStatus, error) {
	if !t.Status.CanTransitionTo(model.TenderStatusAwarded) {
		return "", fmt.Errorf("%w: cannot transition %s -> AWARDED", ErrConflict, t.Status)
	}
	return model.TenderStatusAwarded, nil
}
