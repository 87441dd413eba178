package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Raymond9734/campaign-checkout/internal/models"
	"github.com/Raymond9734/campaign-checkout/internal/service"
)

// RecipientHandler handles recipient directory requests
type RecipientHandler struct {
	recipientService service.RecipientService
	logger           *slog.Logger
}

// NewRecipientHandler creates a new recipient handler
func NewRecipientHandler(recipientService service.RecipientService, logger *slog.Logger) *RecipientHandler {
	return &RecipientHandler{
		recipientService: recipientService,
		logger:           logger,
	}
}

// ListRecipients handles GET /recipients
func (h *RecipientHandler) ListRecipients(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q := models.DirectoryQuery{
		SortOrder:          query.Get("sort"),
		ExcludeBlacklisted: true,
		SearchTerm:         query.Get("search"),
	}

	var err error
	if v := query.Get("page"); v != "" {
		if q.Page, err = strconv.Atoi(v); err != nil {
			respondError(w, http.StatusBadRequest, models.CodeInvalidInput, "page must be a number")
			return
		}
	}
	if v := query.Get("page_size"); v != "" {
		if q.PageSize, err = strconv.Atoi(v); err != nil {
			respondError(w, http.StatusBadRequest, models.CodeInvalidInput, "page_size must be a number")
			return
		}
	}
	if v := query.Get("exclude_blacklisted"); v != "" {
		if q.ExcludeBlacklisted, err = strconv.ParseBool(v); err != nil {
			respondError(w, http.StatusBadRequest, models.CodeInvalidInput, "exclude_blacklisted must be true or false")
			return
		}
	}

	page, err := h.recipientService.Search(r.Context(), q)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, page)
}
