// Package filings exposes the extraction pipeline over HTTP.
package filings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"edgar_extract/pkg/core/container"
	"edgar_extract/pkg/core/decode"
	"edgar_extract/pkg/core/pipeline"
)

// DefaultMaxBodyBytes bounds an uploaded filing.
const DefaultMaxBodyBytes = 256 << 20

// Handler serves filing extraction over HTTP.
type Handler struct {
	recognized *pipeline.Assembler // ProcessAllDocuments = false
	all        *pipeline.Assembler // ProcessAllDocuments = true
	maxBody    int64
	logger     *slog.Logger
}

// NewHandler wraps asm. A sibling assembler with the opposite document policy is
// built so requests can pick it with ?process_all=.
func NewHandler(asm *pipeline.Assembler, logger *slog.Logger) (*Handler, error) {
	if asm == nil {
		return nil, errors.New("filings handler: nil assembler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := asm.Policy()
	p.ProcessAllDocuments = !p.ProcessAllDocuments
	sibling, err := pipeline.NewAssembler(asm.Registry(), p)
	if err != nil {
		return nil, fmt.Errorf("filings handler: %w", err)
	}

	h := &Handler{maxBody: DefaultMaxBodyBytes, logger: logger.With("component", "api")}
	if asm.Policy().ProcessAllDocuments {
		h.all, h.recognized = asm, sibling
	} else {
		h.recognized, h.all = asm, sibling
	}
	return h, nil
}

// SetMaxBodyBytes changes the upload limit.
func (h *Handler) SetMaxBodyBytes(n int64) {
	if n > 0 {
		h.maxBody = n
	}
}

// RegisterHTTP mounts the routes on r.
func (h *Handler) RegisterHTTP(r chi.Router) {
	r.Get("/healthz", h.HandleHealth)
	r.Get("/api/profiles", h.HandleProfiles)
	r.Post("/api/filings/parse", h.HandleParse)
}

// Router returns a standalone router with the handler's routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors)
	h.RegisterHTTP(r)
	return r
}

// cors adds the local-dev CORS headers and answers preflight requests.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleProfiles lists the registered filing type profiles.
func (h *Handler) HandleProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.recognized.Registry().Profiles())
}

// HandleParse extracts the filing in the request body.
//
//	POST /api/filings/parse?ticker=AAPL&process_all=true&source=name.txt
//
// The response is the FilingResult. A body without document markers answers 422
// with the failed result.
func (h *Handler) HandleParse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	asm := h.recognized
	if v := q.Get("process_all"); v != "" {
		all, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "process_all must be a boolean", http.StatusBadRequest)
			return
		}
		if all {
			asm = h.all
		}
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "filing too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(raw) == 0 {
		http.Error(w, "empty request body", http.StatusBadRequest)
		return
	}

	source := q.Get("source")
	if source == "" {
		source = "upload"
	}
	text, enc := decode.Bytes(raw, r.Header.Get("Content-Type"))
	res, err := asm.Process(pipeline.Source{ID: source, Ticker: q.Get("ticker"), Text: text, Encoding: enc})
	if err != nil {
		var malformed *container.MalformedContainerError
		if errors.As(err, &malformed) {
			writeJSON(w, http.StatusUnprocessableEntity, res)
			return
		}
		h.logger.Error("parse failed", "source", source, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("filing parsed",
		"source", source,
		"form_type", res.FormType,
		"documents", res.Summary.DocumentsSeen,
		"tables", res.Summary.TablesExtracted,
		"request_id", middleware.GetReqID(r.Context()),
	)
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
