package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultLabelTemplate is used when neither the run nor the company provides one.
const DefaultLabelTemplate = "%(currency)s %(account)s %(rate)s currency revaluation"

var labelPlaceholder = regexp.MustCompile(`%\(([a-z_]+)\)s`)

var labelFields = map[string]bool{
	"account":      true,
	"account_name": true,
	"currency":     true,
	"rate":         true,
	"partner_id":   true,
	"date":         true,
}

// LabelValues are the values a label template may reference.
type LabelValues struct {
	Account     string
	AccountName string
	Currency    string
	Rate        string
	// PartnerID is the partner's id in the host ledger; it is empty for groups without a partner.
	PartnerID string
	Date      string
}

// ValidateLabelTemplate checks that every placeholder of the template is known.
func ValidateLabelTemplate(template string) error {
	if strings.TrimSpace(template) == "" {
		return fmt.Errorf("%w: template is empty", ErrInvalidLabel)
	}
	for _, m := range labelPlaceholder.FindAllStringSubmatch(template, -1) {
		if !labelFields[m[1]] {
			return fmt.Errorf("%w: unknown placeholder %q", ErrInvalidLabel, m[1])
		}
	}
	return nil
}

// RenderLabel interpolates %(name)s placeholders of template.
func RenderLabel(template string, v LabelValues) string {
	values := map[string]string{
		"account":      v.Account,
		"account_name": v.AccountName,
		"currency":     v.Currency,
		"rate":         v.Rate,
		"partner_id":   v.PartnerID,
		"date":         v.Date,
	}
	return labelPlaceholder.ReplaceAllStringFunc(template, func(match string) string {
		name := labelPlaceholder.FindStringSubmatch(match)[1]
		if val, ok := values[name]; ok {
			return val
		}
		return match
	})
}
