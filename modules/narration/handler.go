package narration

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the standalone narration endpoints.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/studio/translate", h.Translate).Methods("POST")
	r.HandleFunc("/studio/narrate", h.Narrate).Methods("POST")
}

type translateRequest struct {
	Script      string `json:"script"`
	Language    string `json:"language"`
	ScriptStyle string `json:"scriptStyle"`
}

func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	translated, err := h.service.TranslateScript(r.Context(), req.Script, req.Language, req.ScriptStyle)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"script": translated})
}

type narrateRequest struct {
	Script string `json:"script"`
	Voice  string `json:"voice"`
}

func (h *Handler) Narrate(w http.ResponseWriter, r *http.Request) {
	var req narrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	wav, err := h.service.SynthesizeNarration(r.Context(), req.Script, req.Voice)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if wav == nil {
		http.Error(w, "script is empty", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Write(wav)
}
