package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fxreval/internal/adapter/http/dto"
	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
)

// SettingsService defines the behavior needed by SettingsHandler.
type SettingsService interface {
	Get(ctx context.Context, companyID string) (*domain.Company, error)
	Update(ctx context.Context, input usecase.UpdateSettingsInput) (*domain.Company, error)
}

// SettingsHandler handles company revaluation settings.
type SettingsHandler struct {
	settingsUC SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsUC SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsUC: settingsUC}
}

// Get returns the revaluation settings of a company.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	company, err := h.settingsUC.Get(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		writeDomainError(w, r, "failed to get settings", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SettingsFromDomain(company))
}

// Update replaces the revaluation settings of a company.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateSettingsRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	company, err := h.settingsUC.Update(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "companyID")))
	if err != nil {
		writeDomainError(w, r, "failed to update settings", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SettingsFromDomain(company))
}
