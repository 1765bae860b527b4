package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-crm/internal/usecase"
	"go.uber.org/zap"
)

// maxDraftRequestBytes caps the request body; the payload has four fields.
const maxDraftRequestBytes = 64 << 10

// RequestLimiter decides whether a request still fits its client's budget.
type RequestLimiter interface {
	AllowRequest(r *http.Request) bool
}

// EmailFunctionHandler serves generate-deal-email. It must be mounted for
// every method so wrong verbs get the JSON 405. The limiter is optional and
// only counts requests that passed the method and field checks.
type EmailFunctionHandler struct {
	Generator usecase.EmailDraftGenerator
	Provider  string
	Limiter   RequestLimiter
	logger    *zap.Logger
}

func NewEmailFunctionHandler(generator usecase.EmailDraftGenerator, provider string, limiter RequestLimiter, logger *zap.Logger) *EmailFunctionHandler {
	return &EmailFunctionHandler{
		Generator: generator,
		Provider:  strings.ToLower(provider),
		Limiter:   limiter,
		logger:    logger.With(zap.String("component", "email_function")),
	}
}

func (h *EmailFunctionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeFailure(w, http.StatusMethodNotAllowed, "Method not allowed. Please use POST.")
		return
	}

	var req entity.EmailDraftRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxDraftRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return
		}
		writeFailure(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	req, err := usecase.NormalizeDraftRequest(req)
	if err != nil {
		ge := usecase.AsGenerationError(err)
		writeFailure(w, ge.Status, ge.Message)
		return
	}

	if h.Limiter != nil && !h.Limiter.AllowRequest(r) {
		h.logger.Warn("email function rate limited", zap.String("remote_addr", r.RemoteAddr))
		writeFailure(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	result, err := h.Generator.GenerateDealEmail(r.Context(), req)
	if err != nil {
		ge := usecase.AsGenerationError(err)
		if ge.Kind != usecase.KindValidation && ge.Kind != usecase.KindMissingCredential {
			middleware.RecordLLMRequest(h.Provider, ge.Status)
			middleware.RecordIntegrationError(h.Provider)
		}
		h.logger.Warn("email generation failed",
			zap.String("kind", string(ge.Kind)),
			zap.Int("status", ge.Status),
			zap.String("message", ge.Message),
		)
		writeFailure(w, ge.Status, ge.Message)
		return
	}

	middleware.RecordLLMRequest(h.Provider, http.StatusOK)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: result})
}
