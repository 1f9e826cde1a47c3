// Package httpapi exposes a locus backend over HTTP. Searches are POSTs of
// a JSON request body, gets address one object by its opaque ID, and
// reference bases are a GET with range arguments in the query string. The
// handler is a thin shim: all semantics live in the backend, which consumes
// and produces raw JSON.
package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/locusdb/locus/locus"
)

// maxRequestBodyBytes bounds search request bodies.
const maxRequestBodyBytes = 1 << 20

// Server routes HTTP requests to a backend.
type Server struct {
	backend *locus.Backend
	log     *logrus.Logger
}

// NewServer returns a server over the given backend. A nil logger falls
// back to the logrus standard logger.
func NewServer(backend *locus.Backend, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{backend: backend, log: log}
}

// Handler builds the HTTP routing tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.requestLogger)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/datasets/search", s.search(s.backend.RunSearchDatasets))
		r.Post("/variantsets/search", s.search(s.backend.RunSearchVariantSets))
		r.Post("/variants/search", s.search(s.backend.RunSearchVariants))
		r.Post("/callsets/search", s.search(s.backend.RunSearchCallSets))
		r.Post("/readgroupsets/search", s.search(s.backend.RunSearchReadGroupSets))
		r.Post("/reads/search", s.search(s.backend.RunSearchReads))
		r.Post("/referencesets/search", s.search(s.backend.RunSearchReferenceSets))
		r.Post("/references/search", s.search(s.backend.RunSearchReferences))
		r.Post("/featuresets/search", s.search(s.backend.RunSearchFeatureSets))
		r.Post("/features/search", s.search(s.backend.RunSearchFeatures))
		r.Post("/variantannotationsets/search", s.search(s.backend.RunSearchVariantAnnotationSets))
		r.Post("/variantannotations/search", s.search(s.backend.RunSearchVariantAnnotations))

		r.Get("/datasets/{id}", s.get(s.backend.RunGetDataset))
		r.Get("/variantsets/{id}", s.get(s.backend.RunGetVariantSet))
		r.Get("/variants/{id}", s.get(s.backend.RunGetVariant))
		r.Get("/callsets/{id}", s.get(s.backend.RunGetCallSet))
		r.Get("/readgroupsets/{id}", s.get(s.backend.RunGetReadGroupSet))
		r.Get("/readgroups/{id}", s.get(s.backend.RunGetReadGroup))
		r.Get("/referencesets/{id}", s.get(s.backend.RunGetReferenceSet))
		r.Get("/featuresets/{id}", s.get(s.backend.RunGetFeatureSet))
		r.Get("/features/{id}", s.get(s.backend.RunGetFeature))
		r.Get("/variantannotationsets/{id}", s.get(s.backend.RunGetVariantAnnotationSet))
		r.Get("/references/{id}", s.get(s.backend.RunGetReference))
		r.Get("/references/{id}/bases", s.listBases)
	})

	return r
}

// search wraps a backend search operation.
func (s *Server) search(run func(body []byte) ([]byte, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
		if err != nil {
			s.writeError(w, r, &locus.BadRequestError{Reason: "unreadable request body"})
			return
		}
		if len(body) == 0 {
			body = []byte("{}")
		}
		out, err := run(body)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, out)
	}
}

// get wraps a backend get operation.
func (s *Server) get(run func(id string) ([]byte, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := run(chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, out)
	}
}

// listBases serves the reference bases endpoint.
func (s *Server) listBases(w http.ResponseWriter, r *http.Request) {
	args := map[string]string{}
	for _, key := range []string{"start", "end", "pageToken"} {
		if v := r.URL.Query().Get(key); v != "" {
			args[key] = v
		}
	}
	out, err := s.backend.RunListReferenceBases(chi.URLParam(r, "id"), args)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, out)
}

func (s *Server) writeJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// StatusForError maps request errors to HTTP statuses. Unknown errors are
// internal.
func StatusForError(err error) int {
	var (
		badPageToken   *locus.BadPageTokenError
		badPageSize    *locus.BadPageSizeError
		badInteger     *locus.BadRequestIntegerError
		badIdentifier  *locus.BadIdentifierError
		invalidJSON    *locus.InvalidJSONError
		badRequest     *locus.BadRequestError
		notFoundTagged *locus.NotFoundError
	)
	switch {
	case errors.As(err, &badPageToken),
		errors.As(err, &badPageSize),
		errors.As(err, &badInteger),
		errors.As(err, &badIdentifier),
		errors.As(err, &invalidJSON),
		errors.As(err, &badRequest):
		return http.StatusBadRequest
	case errors.As(err, &notFoundTagged), errors.Is(err, locus.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("request failed")
		message = "internal error"
	}
	body, marshalErr := jsonCodec.Marshal(errorBody{Status: status, Message: message})
	if marshalErr != nil {
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(started),
			"request":  middleware.GetReqID(r.Context()),
		}).Debug("handled request")
	})
}
