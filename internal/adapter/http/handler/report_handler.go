package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fxreval/internal/adapter/http/dto"
	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
)

// ReportService defines the behavior needed by ReportHandler.
type ReportService interface {
	Unrealized(ctx context.Context, companyID string, date time.Time) (*usecase.UnrealizedReport, error)
}

// ReportHandler serves the unrealized gain and loss report.
type ReportHandler struct {
	reportUC ReportService
	now      func() time.Time
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportUC ReportService) *ReportHandler {
	return &ReportHandler{reportUC: reportUC, now: time.Now}
}

// Unrealized returns the report as of the date query parameter, today by default.
func (h *ReportHandler) Unrealized(w http.ResponseWriter, r *http.Request) {
	date, err := dto.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}
	if date.IsZero() {
		date = domain.TruncateDate(h.now().UTC())
	}

	report, err := h.reportUC.Unrealized(r.Context(), chi.URLParam(r, "companyID"), date)
	if err != nil {
		writeDomainError(w, r, "failed to build report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UnrealizedReportFromUseCase(report))
}
