package transaction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/domain/shared"
)

// Transaction is a provider-reported financial event reconciled against a person
type Transaction struct {
	ID             uuid.UUID                `json:"id"`
	Provider       string                   `json:"provider"`
	ExternalID     string                   `json:"external_id"`
	OccurredAt     time.Time                `json:"occurred_at"`
	AmountMinor    int64                    `json:"amount_minor"` // signed, negative = refund
	Currency       string                   `json:"currency"`
	Description    string                   `json:"description"`
	Category       shared.Category          `json:"category"`
	ProviderStatus shared.ProviderStatus    `json:"provider_status,omitempty"`
	NameHint       string                   `json:"person_name_hint,omitempty"`
	EmailHint      string                   `json:"email_hint,omitempty"`
	PhoneHint      string                   `json:"phone_hint,omitempty"`
	RawPayload     json.RawMessage          `json:"raw_payload,omitempty"`
	Status         shared.TransactionStatus `json:"status"`
	Confidence     shared.Confidence        `json:"confidence"`
	PersonID       *uuid.UUID               `json:"person_id,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// Record is the normalized inbound shape produced by provider adapters
type Record struct {
	Provider       string          `json:"provider"`
	ExternalID     string          `json:"external_id"`
	OccurredAt     string          `json:"occurred_at"`
	AmountMinor    json.Number     `json:"amount_minor"`
	Currency       string          `json:"currency"`
	Description    string          `json:"description"`
	Status         string          `json:"status,omitempty"`
	PersonNameHint string          `json:"person_name_hint,omitempty"`
	EmailHint      string          `json:"email_hint,omitempty"`
	PhoneHint      string          `json:"phone_hint,omitempty"`
	RawPayload     json.RawMessage `json:"raw_payload,omitempty"`
}

var occurredAtLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseRecord decodes and validates one record of a provider batch.
// The record's provider must be empty or equal to the batch provider.
func ParseRecord(provider string, raw json.RawMessage) (*Transaction, error) {
	var rec Record
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, ValidationError{Reason: fmt.Sprintf("malformed record: %v", err)}
	}

	externalID := strings.TrimSpace(rec.ExternalID)
	if externalID == "" {
		return nil, ValidationError{Reason: "external_id is required"}
	}
	invalid := func(format string, args ...interface{}) error {
		return ValidationError{ExternalID: externalID, Reason: fmt.Sprintf(format, args...)}
	}

	recProvider := strings.TrimSpace(rec.Provider)
	if recProvider != "" && !strings.EqualFold(recProvider, provider) {
		return nil, invalid("record provider %q does not match batch provider %q", recProvider, provider)
	}

	if rec.AmountMinor == "" {
		return nil, invalid("amount_minor is required")
	}
	amount, err := rec.AmountMinor.Int64()
	if err != nil {
		return nil, invalid("amount_minor must be an integer in minor units: %s", rec.AmountMinor.String())
	}

	occurredAt, err := parseOccurredAt(rec.OccurredAt)
	if err != nil {
		return nil, invalid("occurred_at is not a valid timestamp: %q", rec.OccurredAt)
	}

	currency := strings.ToUpper(strings.TrimSpace(rec.Currency))
	if !isCurrencyCode(currency) {
		return nil, invalid("currency must be a 3-letter code")
	}

	status, ok := shared.ParseProviderStatus(rec.Status)
	if !ok {
		return nil, invalid("unknown status %q", rec.Status)
	}

	payload := rec.RawPayload
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		payload = append(json.RawMessage(nil), raw...)
	}

	now := time.Now().UTC()
	return &Transaction{
		ID:             uuid.New(),
		Provider:       strings.ToLower(strings.TrimSpace(provider)),
		ExternalID:     externalID,
		OccurredAt:     occurredAt,
		AmountMinor:    amount,
		Currency:       currency,
		Description:    rec.Description,
		Category:       shared.CategoryUnknown,
		ProviderStatus: status,
		NameHint:       strings.TrimSpace(rec.PersonNameHint),
		EmailHint:      strings.TrimSpace(rec.EmailHint),
		PhoneHint:      strings.TrimSpace(rec.PhoneHint),
		RawPayload:     payload,
		Status:         shared.TransactionStatusPending,
		Confidence:     shared.ConfidenceUnmatched,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func parseOccurredAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range occurredAtLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// CountsTowardRevenue reports whether the transaction currently contributes to its owner's LTV
func (t *Transaction) CountsTowardRevenue() bool {
	return t.PersonID != nil && shared.CountsTowardRevenue(t.Status, t.Confidence)
}

// Contribution is the amount this transaction adds to its owner's totals, zero when it does not count
func (t *Transaction) Contribution() shared.CategoryAmount {
	if !t.CountsTowardRevenue() {
		return shared.CategoryAmount{Category: t.Category}
	}
	return shared.CategoryAmount{Category: t.Category, AmountMinor: t.AmountMinor}
}

// SettledStatus is the status an attached transaction takes. A provider-reported
// failure or pending state is preserved; everything else settles as completed.
func (t *Transaction) SettledStatus() shared.TransactionStatus {
	switch t.ProviderStatus {
	case shared.ProviderStatusFailed:
		return shared.TransactionStatusFailed
	case shared.ProviderStatusPending:
		return shared.TransactionStatusPending
	default:
		return shared.TransactionStatusCompleted
	}
}

// AttachAutomatically assigns the owner chosen by the resolver
func (t *Transaction) AttachAutomatically(personID uuid.UUID) {
	t.attach(personID, shared.ConfidenceMatched)
}

// AttachManually assigns an owner chosen by a reviewer
func (t *Transaction) AttachManually(personID uuid.UUID) {
	t.attach(personID, shared.ConfidenceManuallyMatched)
}

func (t *Transaction) attach(personID uuid.UUID, confidence shared.Confidence) {
	id := personID
	t.PersonID = &id
	t.Confidence = confidence
	t.Status = t.SettledStatus()
	t.UpdatedAt = time.Now().UTC()
}

// MarkNeedsReview clears the owner and parks the transaction for a reviewer
func (t *Transaction) MarkNeedsReview() {
	t.PersonID = nil
	t.Status = shared.TransactionStatusNeedsReview
	t.Confidence = shared.ConfidenceNeedsReview
	t.UpdatedAt = time.Now().UTC()
}

// Clone returns a copy safe to mutate independently
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.PersonID != nil {
		id := *t.PersonID
		c.PersonID = &id
	}
	if t.RawPayload != nil {
		c.RawPayload = append(json.RawMessage(nil), t.RawPayload...)
	}
	return &c
}

// OwnedBy reports whether personID currently owns the transaction
func (t *Transaction) OwnedBy(personID uuid.UUID) bool {
	return t.PersonID != nil && *t.PersonID == personID
}
