package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/mbreukel/BacpacCompatFixer/internal/pipeline"
	"github.com/mbreukel/BacpacCompatFixer/internal/types"
)

// maxUploadBytes caps the size of an uploaded archive.
const maxUploadBytes = 1 << 30 // 1 GiB

// handleProcess cleans and reseals an archive already present on the
// server's filesystem.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req types.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	report, err := pipeline.Run(r.Context(), pipeline.Options{
		ArchivePath: req.ArchivePath,
		NoBackup:    req.NoBackup,
		BackupDir:   req.BackupDir,
		DatabaseURL: s.databaseURL,
		Quiet:       true,
	})
	if err != nil {
		s.jsonResponse(w, statusForError(err), report)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// handleScan reports what a run would change without touching the archive.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req types.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	report, err := pipeline.Scan(r.Context(), pipeline.Options{
		ArchivePath: req.ArchivePath,
		Quiet:       true,
	})
	if err != nil {
		s.jsonResponse(w, statusForError(err), report)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// handleProcessUpload accepts an archive as a multipart upload, fixes it in
// a staging directory and streams the result back. No backup is created; the
// client still holds the original.
func (s *Server) handleProcessUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("archive")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "missing 'archive' file field")
		return
	}
	defer file.Close() //nolint:errcheck

	staged, err := os.CreateTemp(s.uploadDir, "upload-*.bacpac")
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	stagedPath := staged.Name()
	defer os.Remove(stagedPath) //nolint:errcheck

	if _, err := io.Copy(staged, file); err != nil {
		staged.Close() //nolint:errcheck
		s.errorResponse(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if err := staged.Close(); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}

	report, err := pipeline.Run(r.Context(), pipeline.Options{
		ArchivePath: stagedPath,
		NoBackup:    true,
		DatabaseURL: s.databaseURL,
		Quiet:       true,
	})
	if err != nil {
		s.jsonResponse(w, statusForError(err), report)
		return
	}

	fixed, err := os.Open(stagedPath)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to read result archive")
		return
	}
	defer fixed.Close() //nolint:errcheck

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." {
		filename = "archive.bacpac"
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Archive-Changed", strconv.FormatBool(report.Changed))
	if report.ModelHash != "" {
		w.Header().Set("X-Model-Hash", report.ModelHash)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, fixed); err != nil {
		// Headers already sent; nothing left to do but log.
		fmt.Printf("Warning: failed streaming result archive: %v\n", err)
	}
}

// handleListRuns returns recent run history, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "run history requires a configured database")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.errorResponse(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	runs, err := s.db.ListRuns(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// handleGetRun returns a single run by ID.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "run history requires a configured database")
		return
	}

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid run ID")
		return
	}

	run, err := s.db.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "run not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}
