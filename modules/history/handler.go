package history

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"engagepro-studio-server/modules/studio"
	"github.com/gorilla/mux"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the history and profile endpoints.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/studio/history/{userId}", h.ListHistory).Methods("GET")
	r.HandleFunc("/studio/history/{userId}/{entryId}", h.DeleteEntry).Methods("DELETE")
	r.HandleFunc("/studio/active/{userId}", h.GetActive).Methods("GET")
	r.HandleFunc("/studio/profile/{userId}", h.GetProfile).Methods("GET")
	r.HandleFunc("/studio/profile/{userId}", h.PutProfile).Methods("PUT")
}

// GetActive reports the user's in-flight generation, so a reloaded
// client can reattach to its running job.
func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	session := h.store.GetActive(userID)
	if session == nil {
		http.Error(w, "no active session", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userId"]
	entryID := vars["entryId"]

	err := h.store.DeleteEntry(r.Context(), userID, entryID)
	if errors.Is(err, ErrEntryNotFound) {
		http.Error(w, "history entry not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("❌ History delete failed for %s/%s: %v", userID, entryID, err)
		http.Error(w, "failed to delete history entry", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted", "id": entryID})
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	entries, err := h.store.ListHistory(r.Context(), userID)
	if err != nil {
		log.Printf("❌ History lookup failed for %s: %v", userID, err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"userId":  userID,
		"entries": entries,
	})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	profile, err := h.store.LoadProfile(r.Context(), userID)
	if err != nil {
		log.Printf("❌ Profile lookup failed for %s: %v", userID, err)
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

func (h *Handler) PutProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	var profile studio.BrandProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if profile.BrandName == "" {
		http.Error(w, "brandName is required", http.StatusBadRequest)
		return
	}

	if err := h.store.SaveProfile(r.Context(), userID, &profile); err != nil {
		log.Printf("❌ Profile save failed for %s: %v", userID, err)
		http.Error(w, "failed to save profile", http.StatusInternalServerError)
		return
	}

	log.Printf("💾 Brand profile saved: user=%s brand=%s", userID, profile.BrandName)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "saved"})
}
