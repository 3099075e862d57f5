// Package validate is the gatekeeper between scraped input and storage:
// structural checks, content rules and text normalization. Rejection is
// terminal for a record observation; the input will not change, so there
// is nothing to retry.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bleubryce/AgentX-AI-sub001/internal/record"
	"github.com/bleubryce/AgentX-AI-sub001/internal/shared"
)

// Rejection reasons, logged for observability.
const (
	ReasonInvalidPrice       = "invalid_price"
	ReasonInvalidDescription = "invalid_description"
)

// ReasonMissingField builds the reason for a missing or empty required field.
func ReasonMissingField(name string) string { return "missing_field:" + name }

// RejectionError marks a record that failed validation. Not retryable.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string { return "record rejected: " + e.Reason }

type Validator struct {
	rules        Rules
	priceFormats []*regexp.Regexp
	excluded     []string

	now func() time.Time
}

// New compiles the rules. A pattern that fails to compile is a
// configuration error and halts startup.
func New(rules Rules) (*Validator, error) {
	v := &Validator{rules: rules, now: time.Now}

	for _, pattern := range rules.ValidPriceFormats {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("price format %q: %w", pattern, err)
		}
		v.priceFormats = append(v.priceFormats, re)
	}

	for _, term := range rules.ExcludedTerms {
		v.excluded = append(v.excluded, strings.ToLower(term))
	}

	return v, nil
}

// Validate normalizes and checks one raw record. On success every free-text
// field is whitespace-normalized and price is numeric; on failure the
// returned error is a *RejectionError carrying the reason.
func (v *Validator) Validate(raw record.Raw) (record.Validated, error) {
	norm := raw.Clone()
	for field, value := range norm {
		norm[field] = shared.NormalizeText(value)
	}

	for _, field := range v.rules.RequiredFields {
		if norm[field] == "" {
			return record.Validated{}, &RejectionError{Reason: ReasonMissingField(field)}
		}
	}

	price, err := v.parsePrice(norm[record.FieldPrice])
	if err != nil {
		return record.Validated{}, err
	}

	if err := v.checkDescription(norm[record.FieldDescription]); err != nil {
		return record.Validated{}, err
	}

	out := record.Validated{
		URL:         norm[record.FieldURL],
		Price:       price,
		Address:     norm[record.FieldAddress],
		Description: norm[record.FieldDescription],
		Contact:     norm[record.FieldContact],
		Source:      norm[record.FieldSource],
		ValidatedAt: v.now(),
	}

	for field, value := range norm {
		switch field {
		case record.FieldURL, record.FieldPrice, record.FieldAddress,
			record.FieldDescription, record.FieldContact, record.FieldSource:
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]string)
			}
			out.Extra[field] = value
		}
	}

	return out, nil
}

// parsePrice matches the raw string against the configured formats (first
// match wins), strips the non-numeric characters and parses the rest. The
// numeric value replaces the original string downstream.
func (v *Validator) parsePrice(raw string) (float64, error) {
	matched := false
	for _, re := range v.priceFormats {
		if re.MatchString(raw) {
			matched = true
			break
		}
	}
	if !matched {
		return 0, &RejectionError{Reason: ReasonInvalidPrice}
	}

	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)

	price, err := strconv.ParseFloat(digits, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, &RejectionError{Reason: ReasonInvalidPrice}
	}

	if price < v.rules.PriceMin || price > v.rules.PriceMax {
		return 0, &RejectionError{Reason: ReasonInvalidPrice}
	}
	return price, nil
}

func (v *Validator) checkDescription(desc string) error {
	if len(desc) < v.rules.MinDescriptionLength || len(desc) > v.rules.MaxDescriptionLength {
		return &RejectionError{Reason: ReasonInvalidDescription}
	}

	lowered := strings.ToLower(desc)
	for _, term := range v.excluded {
		if strings.Contains(lowered, term) {
			return &RejectionError{Reason: ReasonInvalidDescription}
		}
	}
	return nil
}
