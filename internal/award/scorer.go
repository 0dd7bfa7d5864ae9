package award

import (
	"fmt"

	"github.com/nurpe/tender-awards/internal/model"
)

// Score computes the weighted 0–100 composite for one offer. Criteria weights
// are assumed to sum to 100 (enforced by model.ValidateCriteria when criteria
// are set on the tender). The composite is a decision aid only; allocation is
// always an explicit buyer action.
func Score(offer *model.Offer, criteria []model.EvaluationCriterion) (float64, error) {
	var composite float64
	for _, c := range criteria {
		sub, ok := offer.SubScore(c.Name)
		if !ok {
			return 0, fmt.Errorf("%w: offer %s has no sub-score for criterion %q", ErrValidation, offer.ID, c.Name)
		}
		if sub < 0 || sub > 100 {
			return 0, fmt.Errorf("%w: sub-score %.2f for %q outside 0..100", ErrValidation, sub, c.Name)
		}
		composite += sub * float64(c.Weight) / 100
	}
	return composite, nil
}

type OfferScoreResult struct {
	Offer     *model.Offer
	Composite float64
}

// ScoreAll scores every non-rejected offer on a tender. An offer with a
// missing sub-score fails the whole call so the buyer sees the gap instead of
// a silently shortened ranking.
func ScoreAll(offers []model.Offer, criteria []model.EvaluationCriterion) ([]OfferScoreResult, error) {
	results := make([]OfferScoreResult, 0, len(offers))
	for i := range offers {
		if offers[i].Status == model.OfferStatusRejected {
			continue
		}
		composite, err := Score(&offers[i], criteria)
		if err != nil {
			return nil, err
		}
		results = append(results, OfferScoreResult{Offer: &offers[i], Composite: composite})
	}
	return results, nil
}
