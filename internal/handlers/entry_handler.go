package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Karol96S/budgetapp/internal/errors"
	"github.com/Karol96S/budgetapp/internal/models"
	"github.com/Karol96S/budgetapp/internal/pagination"
	"github.com/Karol96S/budgetapp/internal/services"
)

const dateLayout = "2006-01-02"

// EntryHandler handles ledger-entry requests
type EntryHandler struct {
	entryService services.EntryServicer
}

// NewEntryHandler creates a new EntryHandler
func NewEntryHandler(entryService services.EntryServicer) *EntryHandler {
	return &EntryHandler{entryService: entryService}
}

// CreateEntryRequest represents the entry creation payload. Amount is in
// cents; Date uses YYYY-MM-DD.
type CreateEntryRequest struct {
	Type          string `json:"type" binding:"required,entry_type"`
	Category      string `json:"category" binding:"required,max=100"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,max=100"`
	Amount        int64  `json:"amount" binding:"required"`
	Date          string `json:"date" binding:"required,entry_date"`
	Comment       string `json:"comment" binding:"omitempty"`
}

// CreateEntry records an income or expense
// @Summary     Record a ledger entry
// @Tags        entries
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateEntryRequest true "Entry data"
// @Success     201 {object} models.Entry "Created entry"
// @Failure     404 {object} ErrorResponse "Unknown category or payment method"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /entries [post]
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	// The entry_date binding guarantees the layout; the service re-checks
	// the bounds.
	date, _ := time.Parse(dateLayout, req.Date)

	entry, err := h.entryService.CreateEntry(userID, services.EntryInput{
		Type:          models.EntryType(req.Type),
		CategoryName:  req.Category,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
		Date:          date,
		Comment:       req.Comment,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// GetEntries lists entries for the current month, the previous month, or
// an arbitrary range
// @Summary     List ledger entries
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Param       type query string true "Entry type (income|expense)"
// @Param       period query string false "current (default) or previous"
// @Param       from query string false "Range start (YYYY-MM-DD), overrides period"
// @Param       to query string false "Range end (YYYY-MM-DD)"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Entry] "Entries"
// @Router      /entries [get]
func (h *EntryHandler) GetEntries(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entryType, ok := parseEntryType(c)
	if !ok {
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var result *pagination.PageResponse[models.Entry]
	if c.Query("from") != "" || c.Query("to") != "" {
		from, to, ok := parseDateRange(c)
		if !ok {
			return
		}
		result, err = h.entryService.GetEntriesInRange(userID, entryType, from, to, page)
	} else {
		switch c.DefaultQuery("period", "current") {
		case "current":
			result, err = h.entryService.GetCurrentMonthEntries(userID, entryType, page)
		case "previous":
			result, err = h.entryService.GetPreviousMonthEntries(userID, entryType, page)
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid period"))
			return
		}
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSummary aggregates totals per category for a date range
// @Summary     Per-category totals
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Param       type query string true "Entry type (income|expense)"
// @Param       from query string false "Range start (YYYY-MM-DD), defaults to start of current month"
// @Param       to query string false "Range end (YYYY-MM-DD), defaults to end of current month"
// @Success     200 {array} services.CategorySum "Totals per category"
// @Router      /entries/summary [get]
func (h *EntryHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entryType, ok := parseEntryType(c)
	if !ok {
		return
	}

	var from, to time.Time
	if c.Query("from") != "" || c.Query("to") != "" {
		from, to, ok = parseDateRange(c)
		if !ok {
			return
		}
	} else {
		now := time.Now().UTC()
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	}

	sums, err := h.entryService.GetCategorySums(userID, entryType, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": sums})
}

// GetExpenseSum returns the expense total for the month containing a date
// @Summary     Expense sum for a month
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Param       date query string true "Any date in the month (YYYY-MM-DD)"
// @Success     200 {object} map[string]int64 "Sum in cents"
// @Router      /expenses/sum [get]
func (h *EntryHandler) GetExpenseSum(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid date"))
		return
	}

	sum, err := h.entryService.GetExpenseSumForMonth(userID, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sum": sum})
}

// GetExpenseLimit returns the monthly limit of an expense category
// @Summary     Expense limit for a category
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Param       category query string true "Expense category name"
// @Success     200 {object} map[string]int64 "Limit in cents, 0 means none"
// @Failure     404 {object} ErrorResponse "Unknown category"
// @Router      /expenses/limit [get]
func (h *EntryHandler) GetExpenseLimit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	category := c.Query("category")
	if category == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Category is required"))
		return
	}

	limit, err := h.entryService.GetExpenseLimit(userID, category)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"limit": limit})
}

// DeleteEntry removes an entry
// @Summary     Delete a ledger entry
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Entry ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /entries/{id} [delete]
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.entryService.DeleteEntry(userID, entryID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseEntryType reads the required type query parameter, responding with
// an error itself when invalid.
func parseEntryType(c *gin.Context) (models.EntryType, bool) {
	switch typ := c.Query("type"); typ {
	case "income", "expense":
		return models.EntryType(typ), true
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid entry type"))
		return "", false
	}
}

// parseDateRange reads from/to query parameters, responding with an error
// itself when either is malformed.
func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse(dateLayout, c.Query("from"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid from date"))
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dateLayout, c.Query("to"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid to date"))
		return time.Time{}, time.Time{}, false
	}
	// Make the end inclusive of the whole day.
	to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return from, to, true
}
