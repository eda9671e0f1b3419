package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"engagepro-studio-server/modules/studio"
	"github.com/gorilla/mux"
)

// ShotFetcher pulls offloaded shot images back from storage.
type ShotFetcher interface {
	DownloadShot(filePath string) ([]byte, error)
}

type Handler struct {
	fetcher ShotFetcher
}

// NewHandler wires the assemblers. fetcher may be nil, path-only shots
// are then skipped.
func NewHandler(fetcher ShotFetcher) *Handler {
	return &Handler{fetcher: fetcher}
}

// RegisterRoutes mounts the download assemblers.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/studio/export/zip", h.ExportZip).Methods("POST")
	r.HandleFunc("/studio/export/pdf", h.ExportPDF).Methods("POST")
}

// exportRequest carries the finished session payload the client holds.
type exportRequest struct {
	Style         studio.ContentStyle `json:"style"`
	Script        string              `json:"script"`
	Keywords      []string            `json:"keywords"`
	Description   string              `json:"description"`
	Shots         []studio.ShotResult `json:"shots"`
	MotionPrompts []*string           `json:"motionPrompts"`
	NarrationWAV  []byte              `json:"narrationWav"`
}

func (h *Handler) ExportZip(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeExportRequest(w, r)
	if !ok {
		return
	}

	data, err := BuildZip(h.hydrate(req.toBundle()))
	if err != nil {
		writeExportError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="EngagePro_Assets_%s.zip"`, req.Style))
	w.Write(data)
}

func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeExportRequest(w, r)
	if !ok {
		return
	}

	data, err := BuildPDF(h.hydrate(req.toBundle()))
	if err != nil {
		writeExportError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="EngagePro_Storyboard_%s.pdf"`, req.Style))
	w.Write(data)
}

// hydrate fetches image bytes for successful shots that only carry a
// storage path, the shape history entries come back in. Fetch failures
// leave the shot image-less, the assemblers then skip it.
func (h *Handler) hydrate(b Bundle) Bundle {
	if h.fetcher == nil {
		return b
	}

	for i, shot := range b.Shots {
		if !shot.Success || len(shot.ImageData) > 0 || shot.StoragePath == "" {
			continue
		}
		data, err := h.fetcher.DownloadShot(shot.StoragePath)
		if err != nil {
			log.Printf("⚠️  Failed to fetch shot %d from storage: %v", shot.Index+1, err)
			continue
		}
		b.Shots[i].ImageData = data
	}
	return b
}

func (req *exportRequest) toBundle() Bundle {
	return Bundle{
		Script:        req.Script,
		Keywords:      req.Keywords,
		Description:   req.Description,
		Shots:         req.Shots,
		MotionPrompts: req.MotionPrompts,
		NarrationWAV:  req.NarrationWAV,
	}
}

func decodeExportRequest(w http.ResponseWriter, r *http.Request) (*exportRequest, bool) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func writeExportError(w http.ResponseWriter, err error) {
	var precondErr *PreconditionError
	if errors.As(err, &precondErr) {
		http.Error(w, err.Error(), http.StatusPreconditionFailed)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
