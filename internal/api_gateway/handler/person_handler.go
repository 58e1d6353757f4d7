package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/revenue-reconciler/internal/api_gateway/service"
	recon "github.com/revenue-reconciler/internal/reconciliation/service"
)

// PersonHandler serves persons, their history and LTV maintenance
type PersonHandler struct {
	personService service.PersonService
	ltvService    recon.LTVService
	logger        *slog.Logger
}

func NewPersonHandler(logger *slog.Logger, personService service.PersonService, ltvService recon.LTVService) *PersonHandler {
	return &PersonHandler{
		personService: personService,
		ltvService:    ltvService,
		logger:        logger,
	}
}

// GetByID retrieves a person with stored LTV totals
func (h *PersonHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, h.logger, "person")
	if !ok {
		return
	}

	p, err := h.personService.GetPerson(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	if p == nil {
		RespondNotFound(c, "Person not found")
		return
	}

	RespondOK(c, mapPersonToResponse(p))
}

// ListTransactions returns the transactions a person owns
func (h *PersonHandler) ListTransactions(c *gin.Context) {
	id, ok := parseIDParam(c, h.logger, "person")
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	txns, err := h.personService.ListTransactions(c.Request.Context(), id, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	response := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		response = append(response, mapTransactionToResponse(txn))
	}
	RespondOK(c, response)
}

// ListAttribution returns published LTV movements for a person, newest first
func (h *PersonHandler) ListAttribution(c *gin.Context) {
	id, ok := parseIDParam(c, h.logger, "person")
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	events, err := h.personService.ListAttributionEvents(c.Request.Context(), id, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	response := make([]AttributionEventResponse, 0, len(events))
	for _, e := range events {
		response = append(response, mapEventToResponse(e))
	}
	RespondOK(c, response)
}

// VerifyLTV compares stored totals with a recomputation, without writing
func (h *PersonHandler) VerifyLTV(c *gin.Context) {
	id, ok := parseIDParam(c, h.logger, "person")
	if !ok {
		return
	}

	report, err := h.ltvService.Verify(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, report)
}

// RecomputeLTV overwrites stored totals from owned transactions
func (h *PersonHandler) RecomputeLTV(c *gin.Context) {
	id, ok := parseIDParam(c, h.logger, "person")
	if !ok {
		return
	}

	ltv, err := h.ltvService.Recompute(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, ltv)
}
