package domain

import (
	"errors"
	"testing"
)

func TestValidateLabelTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		valid    bool
	}{
		{"default", DefaultLabelTemplate, true},
		{"every placeholder", "%(account)s %(account_name)s %(currency)s %(rate)s %(partner_id)s %(date)s", true},
		{"no placeholder", "Revaluation", true},
		{"empty", "  ", false},
		{"unknown placeholder", "%(journal)s revaluation", false},
		{"partner is referenced by id", "%(partner)s revaluation", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabelTemplate(tt.template)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidLabel) {
				t.Errorf("expected ErrInvalidLabel, got %v", err)
			}
		})
	}
}

func TestRenderLabel(t *testing.T) {
	v := LabelValues{
		Account:     "1100",
		AccountName: "Receivable",
		Currency:    "EUR",
		Rate:        "1.25",
		PartnerID:   "p1",
		Date:        "2024-01-31",
	}

	got := RenderLabel(DefaultLabelTemplate, v)
	if got != "EUR 1100 1.25 currency revaluation" {
		t.Errorf("unexpected default label %q", got)
	}

	got = RenderLabel("%(account_name)s/%(partner_id)s on %(date)s (%%)", v)
	if got != "Receivable/p1 on 2024-01-31 (%%)" {
		t.Errorf("unexpected label %q", got)
	}
}
