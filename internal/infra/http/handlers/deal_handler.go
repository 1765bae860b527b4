package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-crm/internal/usecase"
	"go.uber.org/zap"
)

type DealUpdater interface {
	Execute(ctx context.Context, id int, input usecase.DealInput) (*usecase.UpdateDealOutput, error)
}

type DealManager interface {
	List(ctx context.Context) ([]entity.Deal, error)
	Get(ctx context.Context, id int) (*entity.Deal, error)
	Create(ctx context.Context, input usecase.DealInput) (*entity.Deal, error)
	Delete(ctx context.Context, id int) error
}

type DealHandler struct {
	UpdateUC DealUpdater
	Deals    DealManager
	logger   *zap.Logger
}

func NewDealHandler(updateUC DealUpdater, deals DealManager, logger *zap.Logger) *DealHandler {
	return &DealHandler{
		UpdateUC: updateUC,
		Deals:    deals,
		logger:   logger.With(zap.String("component", "deal_handler")),
	}
}

// Routes mounts the deal endpoints on r.
func (h *DealHandler) Routes(r chi.Router) {
	r.Get("/deals", h.List)
	r.Post("/deals", h.Create)
	r.Get("/deals/{id}", h.Get)
	r.Put("/deals/{id}", h.Update)
	r.Delete("/deals/{id}", h.Delete)
}

type updateDealResponse struct {
	Success       bool              `json:"success"`
	Level         usecase.Outcome   `json:"level"`
	Data          *entity.Deal      `json:"data"`
	Warnings      []usecase.Warning `json:"warnings"`
	EmailDrafted  bool              `json:"emailDrafted"`
	StatusChanged bool              `json:"statusChanged"`
	CorrelationID string            `json:"correlationId"`
	Message       string            `json:"message"`
}

func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	deals, err := h.Deals.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: deals})
}

func (h *DealHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := dealID(w, r)
	if !ok {
		return
	}

	deal, err := h.Deals.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: deal})
}

func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.DealInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	deal, err := h.Deals.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: deal, Message: "Deal created successfully"})
}

// Update runs the stage-change workflow. A degraded enrichment still
// answers 200 with level "warning".
func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := dealID(w, r)
	if !ok {
		return
	}

	var input usecase.DealInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	out, err := h.UpdateUC.Execute(r.Context(), id, input)
	if err != nil {
		h.writeError(w, err)
		return
	}

	recordWorkflow(out)

	writeJSON(w, http.StatusOK, updateDealResponse{
		Success:       true,
		Level:         out.Outcome,
		Data:          out.Deal,
		Warnings:      out.Warnings,
		EmailDrafted:  out.EmailDrafted,
		StatusChanged: out.StatusChanged,
		CorrelationID: out.CorrelationID,
		Message:       updateMessage(out),
	})
}

func (h *DealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := dealID(w, r)
	if !ok {
		return
	}

	if err := h.Deals.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Deal deleted successfully"})
}

func (h *DealHandler) writeError(w http.ResponseWriter, err error) {
	var de *usecase.DomainError
	var te *usecase.TechnicalError

	switch {
	case errors.As(err, &de) && de.Code == usecase.CodeDealNotFound:
		writeFailure(w, http.StatusNotFound, de.Message)
	case errors.As(err, &de):
		writeFailure(w, http.StatusBadRequest, de.Message)
	case errors.As(err, &te):
		middleware.RecordIntegrationError("record_store")
		writeFailure(w, http.StatusBadGateway, te.Message)
	default:
		h.logger.Error("unexpected error", zap.Error(err))
		writeFailure(w, http.StatusInternalServerError, "Internal server error")
	}
}

func dealID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeFailure(w, http.StatusBadRequest, "Deal id must be a positive integer")
		return 0, false
	}
	return id, true
}

func updateMessage(out *usecase.UpdateDealOutput) string {
	switch {
	case len(out.Warnings) > 0:
		return out.Warnings[0].Message
	case out.EmailDrafted:
		return "Deal updated and follow-up email drafted"
	default:
		return "Deal updated successfully"
	}
}

func recordWorkflow(out *usecase.UpdateDealOutput) {
	if !out.StatusChanged {
		return
	}
	middleware.RecordStatusChange()

	switch {
	case out.EmailDrafted:
		middleware.RecordEmailDraft("drafted")
	case hasWarning(out, usecase.StepSaveNotes):
		middleware.RecordEmailDraft("not_saved")
	default:
		middleware.RecordEmailDraft("failed")
	}
}

func hasWarning(out *usecase.UpdateDealOutput, step string) bool {
	for _, w := range out.Warnings {
		if w.Step == step {
			return true
		}
	}
	return false
}
