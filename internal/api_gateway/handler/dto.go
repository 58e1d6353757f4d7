package handler

import (
	"encoding/json"
	"time"

	"github.com/revenue-reconciler/internal/api_gateway/service"
	"github.com/revenue-reconciler/internal/domain/attribution"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/domain/review"
	"github.com/revenue-reconciler/internal/domain/synclog"
	"github.com/revenue-reconciler/internal/domain/transaction"
)

// SubmitBatchRequest carries normalized provider records. Records are validated
// one by one during ingestion, so only the envelope is checked here.
type SubmitBatchRequest struct {
	BatchID  string            `json:"batch_id,omitempty" binding:"omitempty,uuid"`
	Provider string            `json:"provider" binding:"required"`
	Records  []json.RawMessage `json:"records" binding:"required,min=1"`
}

// BatchAcceptedResponse is returned once a batch is queued for ingestion
type BatchAcceptedResponse struct {
	BatchID     string `json:"batch_id"`
	Provider    string `json:"provider"`
	Records     int    `json:"records"`
	SubmittedAt string `json:"submitted_at"`
}

// ResolveRequest is a reviewer's decision for a queued transaction
type ResolveRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,uuid"`
	PersonID      string `json:"person_id" binding:"required,uuid"`
	ResolvedBy    string `json:"resolved_by" binding:"required"`
}

// ReattributeRequest moves a transaction to another person
type ReattributeRequest struct {
	PersonID string `json:"person_id" binding:"required,uuid"`
	By       string `json:"by" binding:"required"`
}

// DetachRequest clears a transaction's owner
type DetachRequest struct {
	By string `json:"by" binding:"required"`
}

// CorrectAmountRequest replaces a transaction's amount. Zero and negative amounts are legal.
type CorrectAmountRequest struct {
	AmountMinor *int64 `json:"amount_minor" binding:"required"`
	By          string `json:"by" binding:"required"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID             string `json:"id"`
	Provider       string `json:"provider"`
	ExternalID     string `json:"external_id"`
	OccurredAt     string `json:"occurred_at"`
	AmountMinor    int64  `json:"amount_minor"`
	Currency       string `json:"currency"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	ProviderStatus string `json:"provider_status,omitempty"`
	Status         string `json:"status"`
	Confidence     string `json:"confidence"`
	PersonID       string `json:"person_id,omitempty"`
	UpdatedAt      string `json:"updated_at"`
}

// QueueItemResponse is an open review entry with the transaction it parks
type QueueItemResponse struct {
	EntryID     string              `json:"entry_id"`
	Reason      string              `json:"reason"`
	Candidates  []review.Candidate  `json:"candidates"`
	CreatedAt   string              `json:"created_at"`
	Transaction TransactionResponse `json:"transaction"`
}

// PersonResponse represents a person with LTV totals in API responses
type PersonResponse struct {
	ID             string     `json:"id"`
	FullName       string     `json:"full_name"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	SourceTags     []string   `json:"source_tags"`
	IsPayingClient bool       `json:"is_paying_client"`
	LTV            person.LTV `json:"ltv"`
	LastActivityAt string     `json:"last_activity_at,omitempty"`
	CreatedAt      string     `json:"created_at"`
}

// AttributionEventResponse is one published LTV movement
type AttributionEventResponse struct {
	EventID       string `json:"event_id"`
	TransactionID string `json:"transaction_id"`
	Category      string `json:"category"`
	AmountDelta   int64  `json:"amount_delta"`
	Reason        string `json:"reason"`
	Actor         string `json:"actor,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	AppliedAt     string `json:"applied_at"`
}

// SyncLogResponse is one ingestion run
type SyncLogResponse struct {
	ID               string `json:"id"`
	Provider         string `json:"provider"`
	BatchID          string `json:"batch_id"`
	CorrelationID    string `json:"correlation_id,omitempty"`
	Timestamp        string `json:"timestamp"`
	RecordsProcessed int    `json:"records_processed"`
	Added            int    `json:"added"`
	Duplicates       int    `json:"duplicates"`
	AutoMatched      int    `json:"auto_matched"`
	QueuedForReview  int    `json:"queued_for_review"`
	PersonsCreated   int    `json:"persons_created"`
	ErrorCount       int    `json:"error_count"`
	Detail           string `json:"detail"`
	Error            string `json:"error,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// SyncLogQuery filters the sync log listing
type SyncLogQuery struct {
	PaginationParams
	Provider string `form:"provider"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:             txn.ID.String(),
		Provider:       txn.Provider,
		ExternalID:     txn.ExternalID,
		OccurredAt:     formatTime(txn.OccurredAt),
		AmountMinor:    txn.AmountMinor,
		Currency:       txn.Currency,
		Description:    txn.Description,
		Category:       string(txn.Category),
		ProviderStatus: string(txn.ProviderStatus),
		Status:         string(txn.Status),
		Confidence:     string(txn.Confidence),
		UpdatedAt:      formatTime(txn.UpdatedAt),
	}
	if txn.PersonID != nil {
		resp.PersonID = txn.PersonID.String()
	}
	return resp
}

func mapQueueItemToResponse(item *service.QueueItem) QueueItemResponse {
	return QueueItemResponse{
		EntryID:     item.Entry.ID.String(),
		Reason:      string(item.Entry.Reason),
		Candidates:  item.Entry.Candidates,
		CreatedAt:   formatTime(item.Entry.CreatedAt),
		Transaction: mapTransactionToResponse(item.Transaction),
	}
}

func mapPersonToResponse(p *person.Person) PersonResponse {
	resp := PersonResponse{
		ID:             p.ID.String(),
		FullName:       p.FullName,
		Email:          p.Email,
		Phone:          p.Phone,
		SourceTags:     p.SourceTags,
		IsPayingClient: p.IsPayingClient,
		LTV:            p.LTV,
		CreatedAt:      formatTime(p.CreatedAt),
	}
	if resp.SourceTags == nil {
		resp.SourceTags = []string{}
	}
	if p.LastActivityAt != nil {
		resp.LastActivityAt = formatTime(*p.LastActivityAt)
	}
	return resp
}

func mapEventToResponse(e *attribution.Event) AttributionEventResponse {
	return AttributionEventResponse{
		EventID:       e.EventID.String(),
		TransactionID: e.TransactionID.String(),
		Category:      string(e.Category),
		AmountDelta:   e.AmountDelta,
		Reason:        string(e.Reason),
		Actor:         e.Actor,
		CorrelationID: e.CorrelationID,
		AppliedAt:     formatTime(e.AppliedAt),
	}
}

func mapSyncLogToResponse(e *synclog.Entry) SyncLogResponse {
	return SyncLogResponse{
		ID:               e.ID.String(),
		Provider:         e.Provider,
		BatchID:          e.BatchID.String(),
		CorrelationID:    e.CorrelationID,
		Timestamp:        formatTime(e.Timestamp),
		RecordsProcessed: e.RecordsProcessed,
		Added:            e.Added,
		Duplicates:       e.Duplicates,
		AutoMatched:      e.AutoMatched,
		QueuedForReview:  e.QueuedForReview,
		PersonsCreated:   e.PersonsCreated,
		ErrorCount:       e.ErrorCount,
		Detail:           e.Detail,
		Error:            e.Error,
	}
}
