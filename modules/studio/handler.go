package studio

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	rdb *redis.Client
}

func NewHandler(rdb *redis.Client) *Handler {
	return &Handler{rdb: rdb}
}

// RegisterRoutes mounts the generation endpoints.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/studio/generate", h.StartGeneration).Methods("POST")
	r.HandleFunc("/studio/job/{jobId}", h.GetJob).Methods("GET")
	r.HandleFunc("/studio/job/{jobId}/cancel", h.CancelJob).Methods("POST")
	r.HandleFunc("/studio/styles", h.ListStyles).Methods("GET")
}

// StartGeneration validates the request and enqueues a job.
func (h *Handler) StartGeneration(w http.ResponseWriter, r *http.Request) {
	var req GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobID := uuid.New().String()

	payload, err := json.Marshal(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode request")
		return
	}

	ctx := r.Context()
	if err := h.rdb.Set(ctx, JobRequestKey(jobID), payload, jobStateRetention).Err(); err != nil {
		log.Printf("❌ Failed to store job request %s: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "failed to store job")
		return
	}
	if err := h.rdb.LPush(ctx, JobQueueKey, jobID).Err(); err != nil {
		log.Printf("❌ Failed to enqueue job %s: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "failed to enqueue job")
		return
	}

	log.Printf("📥 Job %s enqueued (style: %s, user: %s)", jobID, req.Style, req.UserID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"jobId":     jobID,
		"status":    StatusPending,
		"createdAt": time.Now().Format(time.RFC3339),
	})
}

// GetJob returns the current session state for a job.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	raw, err := h.rdb.Get(r.Context(), JobStateKey(jobID)).Result()
	if err == redis.Nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(raw))
}

// CancelJob flags a running job for cancellation. Shots already
// rendered stay in the session.
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	if _, err := h.rdb.Get(r.Context(), JobStateKey(jobID)).Result(); err == redis.Nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	if err := RequestCancel(r.Context(), h.rdb, jobID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to cancel job")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"jobId":  jobID,
		"status": "cancel_requested",
	})
}

// ListStyles exposes the style catalog with shot templates.
func (h *Handler) ListStyles(w http.ResponseWriter, r *http.Request) {
	type styleInfo struct {
		ID         ContentStyle   `json:"id"`
		Shots      []ShotTemplate `json:"shots"`
		Scriptless bool           `json:"scriptless"`
		MainAsset  string         `json:"mainAsset"`
	}

	var styles []styleInfo
	for _, style := range []ContentStyle{
		StyleDirect, StyleQuickReview, StyleTreadmill, StyleFashionBRoll,
		StyleTravel, StyleProperty, StyleAestheticPOV, StyleFoodPromo,
	} {
		styles = append(styles, styleInfo{
			ID:         style,
			Shots:      StoryFlow(style),
			Scriptless: IsScriptless(style),
			MainAsset:  MainAssetRole(style),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(styles)
}

func validateRequest(req GenerationRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("userId is required")
	}
	if !ValidStyle(req.Style) {
		return fmt.Errorf("unknown content style: %s", req.Style)
	}
	if !ValidOrientation(req.Orientation) {
		return fmt.Errorf("unknown orientation: %s", req.Orientation)
	}
	if _, ok := Languages[req.Language]; !ok {
		return fmt.Errorf("unknown language: %s", req.Language)
	}
	if req.Narrate && !ValidVoice(req.Voice) {
		return fmt.Errorf("unknown narrator voice: %s", req.Voice)
	}
	if !HasMainAsset(req.Style, req.Assets) {
		return fmt.Errorf("style %s requires a %s upload", req.Style, MainAssetRole(req.Style))
	}
	if UsesSearchGrounding(req.Style) && req.TravelDescription == "" {
		return fmt.Errorf("style %s requires a location description", req.Style)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
