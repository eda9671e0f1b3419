package promptlab

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"engagepro-studio-server/modules/assets"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the prompt lab endpoints.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/promptlab/magic", h.MagicPrompt).Methods("POST")
	r.HandleFunc("/promptlab/video", h.VideoPrompt).Methods("POST")
	r.HandleFunc("/promptlab/analyze", h.AnalyzeImage).Methods("POST")
}

type ideaRequest struct {
	Input string `json:"input"`
}

func (h *Handler) MagicPrompt(w http.ResponseWriter, r *http.Request) {
	h.runIdea(w, r, h.service.MagicPrompt)
}

func (h *Handler) VideoPrompt(w http.ResponseWriter, r *http.Request) {
	h.runIdea(w, r, h.service.VideoPrompt)
}

func (h *Handler) runIdea(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (string, error)) {
	var req ideaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Input == "" {
		http.Error(w, "input is required", http.StatusBadRequest)
		return
	}

	result, err := fn(r.Context(), req.Input)
	if err != nil {
		log.Printf("❌ Prompt lab request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writePrompt(w, result)
}

func (h *Handler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image *assets.UploadedAsset `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Image == nil || req.Image.Data == "" {
		http.Error(w, "image is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.AnalyzeImage(r.Context(), req.Image)
	if err != nil {
		log.Printf("❌ Image analysis failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writePrompt(w, result)
}

func writePrompt(w http.ResponseWriter, prompt string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"prompt": prompt})
}
