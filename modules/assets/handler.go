package assets

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes mounts the asset ingestion endpoint.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/assets/ingest", h.IngestAssets).Methods("POST")
}

// IngestAssets accepts a multipart form keyed by role. Oversized files
// are simply absent from the response.
func (h *Handler) IngestAssets(w http.ResponseWriter, r *http.Request) {
	// 32 MiB form memory, individual files are capped separately
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	bundle := &AssetBundle{}

	for role, headers := range r.MultipartForm.File {
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				log.Printf("❌ Failed to open upload %s: %v", header.Filename, err)
				continue
			}
			raw, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				log.Printf("❌ Failed to read upload %s: %v", header.Filename, err)
				continue
			}

			asset, err := Ingest(header.Filename, header.Header.Get("Content-Type"), raw)
			if err != nil {
				log.Printf("❌ Failed to ingest %s: %v", header.Filename, err)
				continue
			}
			if asset == nil {
				continue
			}

			switch role {
			case RoleProduct, RoleModel, RoleBackground:
				bundle.Set(role, asset)
			case RoleFashionItems, RoleLocations:
				bundle.Add(role, asset)
			default:
				log.Printf("⚠️  Unknown asset role: %s", role)
			}
		}
	}

	log.Printf("📎 Ingested %d assets", bundle.Count())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bundle)
}
