package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jhonattanreales21/rutasalud/internal/application/services"
	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
)

const maxRecommendationBody = 64 << 10

// Recommender ranks providers for a completed triage.
type Recommender interface {
	Recommend(ctx context.Context, req services.RecommendationRequest) (*entities.Recommendation, error)
	Defaults() services.RecommendationDefaults
}

// RecommendationHandler handles recommendation requests.
type RecommendationHandler struct {
	recommender Recommender
	geocoder    Geocoder
}

// NewRecommendationHandler creates a new recommendation handler. geocoder
// may be nil, in which case free-text addresses are rejected.
func NewRecommendationHandler(recommender Recommender, geocoder Geocoder) *RecommendationHandler {
	return &RecommendationHandler{recommender: recommender, geocoder: geocoder}
}

type recommendationRequest struct {
	Category      string             `json:"category"`
	Urgency       string             `json:"urgency"`
	Specialty     string             `json:"specialty"`
	Department    string             `json:"department"`
	Municipality  string             `json:"municipality"`
	Address       string             `json:"address"`
	Location      *entities.Location `json:"location"`
	MaxDistanceKm *float64           `json:"max_distance_km"`
	Threshold     *float64           `json:"threshold"`
	TopK          *int               `json:"top_k"`
	Method        *string            `json:"method"`
}

type recommendationResponse struct {
	Status    entities.RecommendationStatus `json:"status"`
	Method    entities.MatchMethod          `json:"method"`
	MatchedOn string                        `json:"matched_on,omitempty"`
	Urgency   entities.TriageLevel          `json:"urgency"`
	Specialty string                        `json:"specialty"`
	Services  []string                      `json:"services"`
	Scores    []float64                     `json:"scores"`
	Providers []entities.RankedProvider     `json:"providers"`
}

// Recommend handles POST /api/recommendations
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var body recommendationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecommendationBody))
	if err := dec.Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Urgency) == "" {
		respondWithError(w, http.StatusBadRequest, "urgency is required")
		return
	}

	req := services.RecommendationRequest{
		Category:      body.Category,
		Urgency:       body.Urgency,
		Specialty:     body.Specialty,
		Department:    body.Department,
		Municipality:  body.Municipality,
		Location:      body.Location,
		MaxDistanceKm: body.MaxDistanceKm,
	}
	if body.Threshold != nil || body.TopK != nil || body.Method != nil {
		params := h.recommender.Defaults().Params
		if body.Threshold != nil {
			params.Threshold = *body.Threshold
		}
		if body.TopK != nil {
			params.TopK = *body.TopK
		}
		if body.Method != nil {
			params.Method = entities.MatchStrategy(strings.ToLower(*body.Method))
		}
		req.Params = &params
	}

	if req.Location == nil && strings.TrimSpace(body.Address) != "" {
		if h.geocoder == nil {
			respondWithError(w, http.StatusBadRequest, "address lookup is not available, send location instead")
			return
		}
		loc, err := h.geocoder.Geocode(r.Context(), body.Address)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		req.Location = loc
	}

	rec, err := h.recommender.Recommend(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, recommendationResponse{
		Status:    rec.Status,
		Method:    rec.Entry.Method,
		MatchedOn: rec.Entry.MatchedOn,
		Urgency:   rec.Entry.Urgency,
		Specialty: rec.Entry.Specialty,
		Services:  rec.Entry.Services(),
		Scores:    rec.Entry.Scores(),
		Providers: rec.Providers,
	})
}
