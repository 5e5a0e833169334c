package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hotelrm/backend-go/internal/domain"
)

// Handler exposes the import surface over HTTP. It runs on its own
// port, separate from the public simulation API.
type Handler struct {
	importer *Importer
	syncer   *DriveSyncer
}

func NewHandler(imp *Importer, syncer *DriveSyncer) *Handler {
	return &Handler{importer: imp, syncer: syncer}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	// The sync route must be registered before the hotel pattern or it
	// would be captured as a hotel identifier.
	router.HandleFunc("/api/import/sync", h.TriggerSync).Methods("POST")
	router.HandleFunc("/api/import/{hotel_id}", h.ImportHotel).Methods("POST")
	router.HandleFunc("/api/import/{hotel_id}/archive", h.ListArchive).Methods("GET")
	router.HandleFunc("/api/import/{hotel_id}/archive/{version}/restore", h.RestoreArchive).Methods("POST")
	router.HandleFunc("/health", h.Health).Methods("GET")
}

type importRequest struct {
	Data   json.RawMessage `json:"data"`
	Config json.RawMessage `json:"config"`
}

// ImportHotel accepts one hotel's document pair in the request body and
// publishes the resulting snapshot.
func (h *Handler) ImportHotel(w http.ResponseWriter, r *http.Request) {
	hotelID := mux.Vars(r)["hotel_id"]

	body, err := io.ReadAll(io.LimitReader(r.Body, 32<<20))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var req importRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Data) == 0 || len(req.Config) == 0 {
		http.Error(w, "both data and config documents are required", http.StatusBadRequest)
		return
	}

	snap, err := h.importer.ImportDocuments(r.Context(), hotelID, req.Data, req.Config)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrValidation) {
			status = http.StatusBadRequest
		}
		http.Error(w, fmt.Sprintf("import failed: %v", err), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":         "success",
		"hotel_id":       snap.HotelID,
		"version":        snap.Version,
		"room_types":     len(snap.Rooms),
		"partners":       len(snap.Partners),
		"processed_from": snap.ProcessedFrom,
		"processed_to":   snap.ProcessedTo,
	})
}

// ListArchive returns the archived snapshot versions of one hotel.
func (h *Handler) ListArchive(w http.ResponseWriter, r *http.Request) {
	hotelID := mux.Vars(r)["hotel_id"]

	versions, err := h.importer.ListArchivedVersions(r.Context(), hotelID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrArchiveDisabled) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, fmt.Sprintf("archive listing failed: %v", err), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"hotel_id": hotelID,
		"versions": versions,
	})
}

// RestoreArchive republishes a previously archived snapshot version.
func (h *Handler) RestoreArchive(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	hotelID := vars["hotel_id"]
	version := vars["version"]

	snap, err := h.importer.RestoreFromArchive(r.Context(), hotelID, version)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrArchiveDisabled):
			status = http.StatusServiceUnavailable
		case errors.Is(err, domain.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, domain.ErrValidation):
			status = http.StatusBadRequest
		}
		http.Error(w, fmt.Sprintf("restore failed: %v", err), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":           "success",
		"hotel_id":         snap.HotelID,
		"version":          snap.Version,
		"restored_version": version,
	})
}

// TriggerSync runs one Drive sweep on demand.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		http.Error(w, "drive sync is not configured", http.StatusServiceUnavailable)
		return
	}

	imported, err := h.syncer.SyncOnce(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("sync failed: %v", err), http.StatusInternalServerError)
		return
	}
	if imported == nil {
		imported = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "success",
		"hotels":  imported,
		"updated": len(imported),
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
