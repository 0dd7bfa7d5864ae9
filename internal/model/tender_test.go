package model

import (
	"testing"
	"time"
)

func TestTenderStatusTransitions(t *testing.T) {
	tests := []struct {
		from    TenderStatus
		to      TenderStatus
		allowed bool
	}{
		{TenderStatusDraft, TenderStatusPublished, true},
		{TenderStatusDraft, TenderStatusClosed, false},
		{TenderStatusPublished, TenderStatusClosed, true},
		{TenderStatusPublished, TenderStatusCancelled, true},
		{TenderStatusClosed, TenderStatusAwarded, true},
		{TenderStatusClosed, TenderStatusCancelled, true},
		{TenderStatusClosed, TenderStatusPublished, false},
		{TenderStatusAwarded, TenderStatusCancelled, false},
		{TenderStatusAwarded, TenderStatusClosed, false},
		{TenderStatusCancelled, TenderStatusAwarded, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}

func TestTenderStatusTerminal(t *testing.T) {
	for _, status := range []TenderStatus{TenderStatusAwarded, TenderStatusCancelled} {
		if !status.IsTerminal() {
			t.Errorf("%s should be terminal", status)
		}
	}
	for _, status := range []TenderStatus{TenderStatusDraft, TenderStatusPublished, TenderStatusClosed} {
		if status.IsTerminal() {
			t.Errorf("%s should not be terminal", status)
		}
	}
}

func TestValidateCriteria(t *testing.T) {
	tests := []struct {
		name     string
		criteria []EvaluationCriterion
		wantErr  bool
	}{
		{
			name: "weights sum to 100",
			criteria: []EvaluationCriterion{
				{Name: "technical", Weight: 60},
				{Name: "financial", Weight: 40},
			},
		},
		{
			name:     "single criterion",
			criteria: []EvaluationCriterion{{Name: "price", Weight: 100}},
		},
		{
			name: "sum below 100",
			criteria: []EvaluationCriterion{
				{Name: "technical", Weight: 60},
				{Name: "financial", Weight: 30},
			},
			wantErr: true,
		},
		{
			name: "sum above 100",
			criteria: []EvaluationCriterion{
				{Name: "technical", Weight: 60},
				{Name: "financial", Weight: 50},
			},
			wantErr: true,
		},
		{
			name:     "zero weight",
			criteria: []EvaluationCriterion{{Name: "price", Weight: 0}, {Name: "quality", Weight: 100}},
			wantErr:  true,
		},
		{
			name:     "empty name",
			criteria: []EvaluationCriterion{{Name: "", Weight: 100}},
			wantErr:  true,
		},
		{
			name:    "no criteria",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCriteria(tt.criteria)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
		})
	}
}

func TestTenderOpened(t *testing.T) {
	opening := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tender := &Tender{OpeningDate: opening}

	if tender.Opened(opening.Add(-time.Second)) {
		t.Error("tender should be sealed before the opening date")
	}
	if !tender.Opened(opening) {
		t.Error("tender should be open at the opening instant")
	}
	if !tender.Opened(opening.Add(time.Second)) {
		t.Error("tender should be open after the opening date")
	}
}
