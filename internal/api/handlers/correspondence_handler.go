package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jhonattanreales21/rutasalud/internal/application/services"
	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	apperrors "github.com/jhonattanreales21/rutasalud/pkg/errors"
)

// CorrespondenceService is the part of the correspondence service the HTTP
// layer needs.
type CorrespondenceService interface {
	BuildTable(ctx context.Context, params entities.TableParams) (*entities.CorrespondenceTable, error)
	GetRecommendedServices(ctx context.Context, table *entities.CorrespondenceTable, category string, urgency entities.TriageLevel, specialty string) (entities.CorrespondenceEntry, error)
	Vocabulary(ctx context.Context) (*services.ServiceVocabulary, error)
}

// CorrespondenceHandler serves the service vocabulary and correspondence
// tables.
type CorrespondenceHandler struct {
	service  CorrespondenceService
	defaults entities.TableParams
}

// NewCorrespondenceHandler creates a new correspondence handler. defaults
// fill the table parameters a request leaves out.
func NewCorrespondenceHandler(service CorrespondenceService, defaults entities.TableParams) *CorrespondenceHandler {
	return &CorrespondenceHandler{service: service, defaults: defaults}
}

// ListServices handles GET /api/services
func (h *CorrespondenceHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	vocab, err := h.service.Vocabulary(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"services": vocab.Terms(),
		"count":    vocab.Len(),
	})
}

// GetTable handles GET /api/correspondence?threshold=&top_k=&method=
func (h *CorrespondenceHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	params, err := parseTableParams(r, h.defaults)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	table, err := h.service.BuildTable(r.Context(), params)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, table)
}

// Lookup handles GET /api/correspondence/lookup?urgency=&specialty=&category=
func (h *CorrespondenceHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	urgency, err := entities.ParseTriageLevel(q.Get("urgency"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	params, err := parseTableParams(r, h.defaults)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	table, err := h.service.BuildTable(r.Context(), params)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	entry, err := h.service.GetRecommendedServices(r.Context(), table, q.Get("category"), urgency, q.Get("specialty"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

func parseTableParams(r *http.Request, defaults entities.TableParams) (entities.TableParams, error) {
	q := r.URL.Query()
	params := defaults

	if raw := strings.TrimSpace(q.Get("threshold")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return params, apperrors.NewValidationError("invalid threshold parameter")
		}
		params.Threshold = v
	}
	if raw := strings.TrimSpace(q.Get("top_k")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return params, apperrors.NewValidationError("invalid top_k parameter")
		}
		params.TopK = v
	}
	if raw := strings.TrimSpace(q.Get("method")); raw != "" {
		params.Method = entities.MatchStrategy(strings.ToLower(raw))
	}
	return params, services.ValidateParams(params)
}
