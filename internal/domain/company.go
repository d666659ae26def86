package domain

import (
	"time"
)

// ReversalPolicy decides the date of the automatic reversal of a revaluation entry.
type ReversalPolicy string

const (
	// ReversalNextPeriod dates the reversal on the first day of the month after the revaluation.
	ReversalNextPeriod ReversalPolicy = "next_period"
	// ReversalNextDay dates the reversal on the day after the revaluation.
	ReversalNextDay ReversalPolicy = "next_day"
)

// IsValid reports whether the policy is known.
func (p ReversalPolicy) IsValid() bool {
	return p == ReversalNextPeriod || p == ReversalNextDay
}

// ReversalDate returns the date on which a revaluation posted at date is reversed.
func (p ReversalPolicy) ReversalDate(date time.Time) time.Time {
	d := TruncateDate(date)
	if p == ReversalNextDay {
		return d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

// Company is a host company together with its revaluation settings.
type Company struct {
	ID       string
	Name     string
	Currency string

	RevaluationSettings

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RevaluationSettings groups the per-company configuration used by a revaluation run.
type RevaluationSettings struct {
	GainAccountID          string
	LossAccountID          string
	JournalID              string
	AnalyticAccountID      string
	ReversibleRevaluations bool
	ReversalPolicy         ReversalPolicy
	LabelTemplate          string
}

// EffectiveReversalPolicy returns the configured policy or the default.
func (s RevaluationSettings) EffectiveReversalPolicy() ReversalPolicy {
	if s.ReversalPolicy.IsValid() {
		return s.ReversalPolicy
	}
	return ReversalNextPeriod
}

// EffectiveLabelTemplate returns the configured label template or the default.
func (s RevaluationSettings) EffectiveLabelTemplate() string {
	if s.LabelTemplate != "" {
		return s.LabelTemplate
	}
	return DefaultLabelTemplate
}

// HasRevaluationAccounts reports whether both gain and loss accounts are configured.
func (s RevaluationSettings) HasRevaluationAccounts() bool {
	return s.GainAccountID != "" && s.LossAccountID != ""
}

// TruncateDate drops the time-of-day part and normalizes to UTC.
func TruncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
