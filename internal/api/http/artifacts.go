package http

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/classforge/assessd/internal/store"
	"github.com/classforge/assessd/internal/storage"
)

const maxUploadBytes = 256 << 20

// POST /artifacts (multipart: file, assessment_id?)
// When assessment_id names an assignment with file constraints, the upload
// is checked against them before anything is stored.
func UploadArtifactHandler(bs storage.BlobStore, st store.AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "bad multipart: "+err.Error(), http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		if assessmentID := strings.TrimSpace(r.FormValue("assessment_id")); assessmentID != "" {
			a, err := st.GetAssessment(r.Context(), assessmentID)
			if err != nil {
				writeErr(w, err)
				return
			}
			if fc := a.FileConstraints; fc != nil {
				if !fc.AllowsExt(hdr.Filename) {
					http.Error(w, "file type not allowed", http.StatusBadRequest)
					return
				}
				if !fc.WithinSize(hdr.Size) {
					http.Error(w, "file too large", http.StatusBadRequest)
					return
				}
			}
		}

		key := uuid.NewString() + "/" + path.Base(hdr.Filename)
		if _, err := bs.Put(r.Context(), key, f, hdr.Size); err != nil {
			http.Error(w, "store artifact: "+err.Error(), http.StatusInternalServerError)
			return
		}
		url, err := bs.SignedURL(r.Context(), key)
		if err != nil {
			http.Error(w, "sign url: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"ref": key, "url": url})
	}
}

// GET /artifacts/{key...}
func GetArtifactHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		if key == "" {
			http.Error(w, "key required", http.StatusBadRequest)
			return
		}
		rc, err := bs.Get(r.Context(), key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	}
}
