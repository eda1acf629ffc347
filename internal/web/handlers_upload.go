package web

import (
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Pankaj-karwasra/product-importer/internal/logging"
	"github.com/Pankaj-karwasra/product-importer/internal/progress"
	"github.com/Pankaj-karwasra/product-importer/internal/queue"
)

// handleUpload accepts a multipart CSV upload, stages it on disk and
// enqueues an import job. The response carries only the job ID; clients
// poll /api/upload-status/{jobID} for the outcome.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	jobID := newJobID()

	// Stream the upload straight to the staging directory. The worker
	// owns the file from here and removes it when the job finishes.
	if err := os.MkdirAll(s.cfg.Import.TmpDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	dest := filepath.Join(s.cfg.Import.TmpDir, jobID+"_"+filepath.Base(header.Filename))
	if err := saveUpload(file, dest); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}

	ctx := r.Context()

	// Seed the snapshot before enqueueing so a status poll racing the
	// worker never sees "unknown" for an accepted job.
	seed := progress.Snapshot{Status: progress.StatusQueued, Progress: 0, Message: "Queued"}
	if err := s.progress.Set(ctx, jobID, seed); err != nil {
		logging.FromContext(ctx).Warn("progress seed failed", "job_id", jobID, "error", err)
	}

	if err := s.jobs.Submit(ctx, queue.NewImportJob(jobID, dest)); err != nil {
		os.Remove(dest)
		writeError(w, http.StatusInternalServerError, "failed to enqueue import job")
		return
	}

	writeJSON(w, map[string]string{"job_id": jobID})
}

// handleUploadStatus returns the current progress snapshot for a job.
func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "missing job ID")
		return
	}

	snap, err := s.progress.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, progress.ErrUnknownJob) {
			writeJSONStatus(w, http.StatusNotFound, map[string]string{"status": "unknown"})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to read job status")
		return
	}

	writeJSON(w, snap)
}

func saveUpload(src io.Reader, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}

// newJobID returns a 32-character hex job identifier.
func newJobID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
