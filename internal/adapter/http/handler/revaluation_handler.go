package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fxreval/internal/adapter/http/dto"
	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
)

// RevaluationService defines the behavior needed by RevaluationHandler.
type RevaluationService interface {
	Defaults(ctx context.Context, companyID string) (*usecase.RunDefaults, error)
	Run(ctx context.Context, input usecase.RunInput) (*usecase.RunResult, error)
	Reverse(ctx context.Context, input usecase.ReverseInput) (*domain.Move, error)
}

// RevaluationHandler handles revaluation runs and reversals.
type RevaluationHandler struct {
	revaluationUC RevaluationService
}

// NewRevaluationHandler creates a new RevaluationHandler.
func NewRevaluationHandler(revaluationUC RevaluationService) *RevaluationHandler {
	return &RevaluationHandler{revaluationUC: revaluationUC}
}

// Defaults returns the date, journal and label proposed for a new run.
func (h *RevaluationHandler) Defaults(w http.ResponseWriter, r *http.Request) {
	defaults, err := h.revaluationUC.Defaults(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		writeDomainError(w, r, "failed to load revaluation defaults", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RunDefaultsFromUseCase(defaults))
}

// Run revalues the company's flagged accounts as of the requested date.
func (h *RevaluationHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req dto.RunRevaluationRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "companyID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := h.revaluationUC.Run(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "revaluation failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RunResultFromUseCase(result))
}

// Reverse posts the reversal of a revaluation entry. The body is optional.
func (h *RevaluationHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	moveID := chi.URLParam(r, "id")
	if moveID == "" {
		writeError(w, http.StatusBadRequest, "missing move ID", "")
		return
	}

	var req dto.ReverseMoveRequest
	if r.ContentLength != 0 && !decodeRequest(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(moveID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	move, err := h.revaluationUC.Reverse(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to reverse move", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MoveFromDomain(move))
}
