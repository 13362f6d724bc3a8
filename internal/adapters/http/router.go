package httpadapter

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cristobalnm/permit-intake/internal/core/ports"
	"github.com/cristobalnm/permit-intake/internal/core/usecase"
)

// ExportObserver receives the outcome of each XLSX export request.
type ExportObserver interface {
	RecordPermitExport(err error)
}

type nopExportObserver struct{}

func (nopExportObserver) RecordPermitExport(error) {}

type Router struct {
	intake   ports.IntakeService
	permits  ports.PermitReader
	exporter ports.PermitExporter
	exports  ExportObserver
}

func NewRouter(
	intake ports.IntakeService,
	permits ports.PermitReader,
	exporter ports.PermitExporter,
) *Router {
	return &Router{
		intake:   intake,
		permits:  permits,
		exporter: exporter,
		exports:  nopExportObserver{},
	}
}

func (rt *Router) WithExportObserver(observer ExportObserver) *Router {
	if observer != nil {
		rt.exports = observer
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/businesses/{businessID}/intake/items", rt.uploadItem)
	mux.HandleFunc("GET /v1/businesses/{businessID}/intake/items", rt.listItems)
	mux.HandleFunc("GET /v1/businesses/{businessID}/permits", rt.listPermits)
	mux.HandleFunc("GET /v1/businesses/{businessID}/required-permits", rt.listRequiredPermits)
	mux.HandleFunc("GET /v1/businesses/{businessID}/documents", rt.listDocuments)
	mux.HandleFunc("GET /v1/businesses/{businessID}/permits/export", rt.exportPermits)
	mux.HandleFunc("GET /v1/intake/items/{itemID}", rt.getItem)
	mux.HandleFunc("DELETE /v1/intake/items/{itemID}", rt.deleteItem)
	mux.HandleFunc("POST /v1/intake/items/{itemID}/confirm", rt.confirmItem)
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadItem(w http.ResponseWriter, r *http.Request) {
	businessID := r.PathValue("businessID")

	// Multipart framing adds overhead on top of the payload cap.
	r.Body = http.MaxBytesReader(w, r.Body, usecase.MaxUploadBytes+1<<20)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if fileHeader.Size > usecase.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
		return
	}

	item, err := rt.intake.AddItem(
		r.Context(),
		businessID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, item)
}

func (rt *Router) listItems(w http.ResponseWriter, r *http.Request) {
	items := rt.intake.ListItems(r.PathValue("businessID"))
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (rt *Router) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := rt.intake.Item(r.PathValue("itemID"))
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (rt *Router) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := rt.intake.Delete(r.PathValue("itemID")); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) confirmItem(w http.ResponseWriter, r *http.Request) {
	manual, err := decodeConfirmRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := rt.intake.Confirm(r.Context(), r.PathValue("itemID"), manual)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (rt *Router) listPermits(w http.ResponseWriter, r *http.Request) {
	statuses, err := rt.permits.ListPermitStatuses(r.Context(), r.PathValue("businessID"))
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"permits": statuses})
}

func (rt *Router) listRequiredPermits(w http.ResponseWriter, r *http.Request) {
	required, err := rt.permits.ListRequiredPermits(r.Context(), r.PathValue("businessID"))
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"required_permits": required})
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.permits.ListDocuments(r.Context(), r.PathValue("businessID"))
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) exportPermits(w http.ResponseWriter, r *http.Request) {
	businessID := r.PathValue("businessID")
	payload, err := rt.exporter.ExportPermitsXLSX(r.Context(), businessID)
	rt.exports.RecordPermitExport(err)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "permisos_"+businessID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
