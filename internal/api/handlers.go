package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/nvarela/aipbundler/internal/catalog"
	"github.com/nvarela/aipbundler/internal/pipeline"
	"github.com/nvarela/aipbundler/internal/report"
)

func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxManifestBytes)

	records, err := catalog.DecodeManifest(r.Body)
	if err != nil {
		if errors.Is(err, catalog.ErrNoDocuments) {
			jsonError(w, "manifest contains no documents", http.StatusBadRequest)
			return
		}
		jsonError(w, "invalid manifest: "+err.Error(), http.StatusBadRequest)
		return
	}

	records, excluded := catalog.ExcludeSubsections(records, s.cfg.ExcludeSubsections)
	if len(records) == 0 {
		jsonError(w, "all documents excluded by subsection filter", http.StatusBadRequest)
		return
	}
	for _, rec := range excluded {
		s.log.Info("document excluded", "title", rec.Title, "subsection", rec.Subsection)
	}

	job := pipeline.NewJob(records, excluded)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":    job.ID,
		"status":    job.Status,
		"documents": len(records),
		"excluded":  len(excluded),
		"poll_url":  fmt.Sprintf("/api/assemble/%s/status", job.ID),
	})
}

// handleDiscover turns a fetched AIP listing page into manifest records.
// The caller supplies the raw HTML plus the section and base URL as query
// parameters; the response can be submitted to /api/assemble as-is.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	section := r.URL.Query().Get("section")
	if section == "" {
		jsonError(w, "section query parameter is required", http.StatusBadRequest)
		return
	}
	base := r.URL.Query().Get("base")
	if base == "" {
		jsonError(w, "base query parameter is required", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxManifestBytes)
	records, err := catalog.ParseIndex(r.Body, base, section)
	if err != nil {
		jsonError(w, "parse listing: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(catalog.Manifest{Documents: records})
}

func (s *Server) handleAssembleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := report.Read(s.cfg.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			jsonError(w, "no report yet, run an assembly first", http.StatusNotFound)
			return
		}
		jsonError(w, "read report: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rep)
}

func (s *Server) handleOCRStats(w http.ResponseWriter, r *http.Request) {
	if s.ocrStats == nil {
		jsonError(w, "ocr stats unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"language": s.cfg.OCRLanguage,
		"stats":    s.ocrStats.Snapshot(),
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
