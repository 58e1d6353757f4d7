package shared

import "strings"

// TransactionStatus defines transaction settlement states
type TransactionStatus string

const (
	TransactionStatusPending     TransactionStatus = "PENDING"
	TransactionStatusCompleted   TransactionStatus = "COMPLETED"
	TransactionStatusFailed      TransactionStatus = "FAILED"
	TransactionStatusNeedsReview TransactionStatus = "NEEDS_REVIEW"
)

// Confidence describes how the owner of a transaction was established
type Confidence string

const (
	ConfidenceUnmatched       Confidence = "UNMATCHED"
	ConfidenceMatched         Confidence = "MATCHED"
	ConfidenceManuallyMatched Confidence = "MANUALLY_MATCHED"
	ConfidenceNeedsReview     Confidence = "NEEDS_REVIEW"
)

// ProviderStatus is the settlement state reported by the provider itself.
// The empty value means the provider did not report one.
type ProviderStatus string

const (
	ProviderStatusUnspecified ProviderStatus = ""
	ProviderStatusPending     ProviderStatus = "pending"
	ProviderStatusCompleted   ProviderStatus = "completed"
	ProviderStatusFailed      ProviderStatus = "failed"
	ProviderStatusRefunded    ProviderStatus = "refunded"
)

var providerStatusAliases = map[string]ProviderStatus{
	"":           ProviderStatusUnspecified,
	"pending":    ProviderStatusPending,
	"processing": ProviderStatusPending,
	"completed":  ProviderStatusCompleted,
	"succeeded":  ProviderStatusCompleted,
	"paid":       ProviderStatusCompleted,
	"settled":    ProviderStatusCompleted,
	"failed":     ProviderStatusFailed,
	"declined":   ProviderStatusFailed,
	"refunded":   ProviderStatusRefunded,
	"refund":     ProviderStatusRefunded,
}

// ParseProviderStatus maps the status vocabulary adapters commonly emit onto ProviderStatus.
func ParseProviderStatus(s string) (ProviderStatus, bool) {
	status, ok := providerStatusAliases[strings.ToLower(strings.TrimSpace(s))]
	return status, ok
}

// Category is a revenue category used to partition LTV
type Category string

const (
	CategoryAds            Category = "ads"
	CategoryPT             Category = "pt"
	CategoryClasses        Category = "classes"
	CategorySixWeek        Category = "six_week"
	CategoryOnlineCoaching Category = "online_coaching"
	CategoryCommunity      Category = "community"
	CategoryCorporate      Category = "corporate"
	CategoryUnknown        Category = "unknown"
)

// Categories returns the revenue categories that have their own LTV total.
// CategoryUnknown is not among them; it only counts toward the all-time total.
func Categories() []Category {
	return []Category{
		CategoryAds,
		CategoryPT,
		CategoryClasses,
		CategorySixWeek,
		CategoryOnlineCoaching,
		CategoryCommunity,
		CategoryCorporate,
	}
}

// ParseCategory accepts any member of the closed category set, including unknown.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == CategoryUnknown {
		return c, true
	}
	for _, known := range Categories() {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// CategoryAmount is an amount in minor units attributed to one category
type CategoryAmount struct {
	Category    Category `json:"category" bson:"category"`
	AmountMinor int64    `json:"amount_minor" bson:"amount_minor"`
}

// CountsTowardRevenue reports whether a transaction in this state contributes to LTV.
// Only settled transactions with an established owner count; pending, failed and
// queued transactions never do.
func CountsTowardRevenue(status TransactionStatus, confidence Confidence) bool {
	if status != TransactionStatusCompleted {
		return false
	}
	return confidence == ConfidenceMatched || confidence == ConfidenceManuallyMatched
}

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
