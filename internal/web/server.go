// Browser surface: upload, process, poll progress, play the result
package web

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"video-frame-studio/internal/filters"
	"video-frame-studio/internal/jobs"
	"video-frame-studio/internal/metrics"
	"video-frame-studio/internal/storage"
	"video-frame-studio/internal/video"
)

var allowedExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// Server wires the HTTP surface to the asset store and job manager. All
// state is carried by the injected dependencies; the server itself is
// stateless between requests.
type Server struct {
	store          *storage.Store
	manager        *jobs.Manager
	logger         *logrus.Logger
	maxUploadBytes int64
	mux            *chi.Mux
}

func NewServer(store *storage.Store, manager *jobs.Manager, logger *logrus.Logger, maxUploadBytes int64) *Server {
	s := &Server{
		store:          store,
		manager:        manager,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
	s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUpload)
	r.Get("/videos/{name}", s.handleVideo)

	r.Route("/api", func(r chi.Router) {
		r.Get("/filters", s.handleFilters)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleJob)
		r.Post("/jobs/{id}/cancel", s.handleCancelJob)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	s.mux = r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  ww.Status(),
			"elapsed": time.Since(start).Round(time.Microsecond).String(),
		}).Debug("http request")
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Filters       []string
		MaxUploadSize string
	}{
		Filters:       filters.Names(),
		MaxUploadSize: humanize.Bytes(uint64(s.maxUploadBytes)),
	}

	tmpl := template.Must(template.New("index").Parse(indexHTML))
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.WithError(err).Error("template rendering failed")
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type %q", ext))
		return
	}

	filterName := r.FormValue("filter")
	if filterName == "" {
		filterName = "edge_overlay"
	}
	fn, err := filters.Transform(filterName, nil)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uploadPath, size, err := s.store.SaveUpload(file, header.Filename)
	if err != nil {
		s.logger.WithError(err).Error("failed to save upload")
		s.writeError(w, http.StatusInternalServerError, "failed to save upload")
		return
	}
	metrics.UploadsTotal.Inc()
	metrics.UploadBytesTotal.Add(float64(size))

	outputPath := s.store.ProcessedPath(uploadPath)
	job := s.manager.Submit(filterName, uploadPath, outputPath, video.FrameTransform(fn))

	s.writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleFilters(w http.ResponseWriter, _ *http.Request) {
	type filterInfo struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	infos := make([]filterInfo, 0)
	for _, id := range filters.Names() {
		f, _ := filters.Get(id)
		infos = append(infos, filterInfo{
			ID:          id,
			Name:        f.Name(),
			Description: f.Description(),
		})
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleListJobs(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.manager.List())
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, exists := s.manager.Get(id)
	if !exists {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	if !s.manager.Cancel(id) {
		s.writeError(w, http.StatusConflict, "job not found or already finished")
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	path, err := s.store.ProcessedFile(name)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "video not found")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
