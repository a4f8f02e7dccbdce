package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/hdkg/internal/ingest"
	"github.com/hyperjump/hdkg/internal/kgerr"
	"github.com/hyperjump/hdkg/internal/models"
	"github.com/hyperjump/hdkg/internal/preprocess"
	"github.com/hyperjump/hdkg/internal/symbol"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	langs := make([]string, 0, len(preprocess.Supported())+1)
	for _, l := range preprocess.Supported() {
		langs = append(langs, l.Code())
	}
	langs = append(langs, preprocess.Auto.Code())
	s.respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Version:   s.version,
		Languages: langs,
	})
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	out := make([]models.LanguageInfo, 0, len(preprocess.Supported()))
	for _, l := range preprocess.Supported() {
		out = append(out, models.LanguageInfo{
			Code:         l.Code(),
			Name:         l.Name(),
			PatternCount: len(preprocess.Patterns(l)),
		})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handlePreprocess(w http.ResponseWriter, r *http.Request) {
	var req models.PreprocessRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Chunks) == 0 {
		s.respondError(w, http.StatusBadRequest, "no chunks provided")
		return
	}
	if limit := s.config.Preprocess.MaxChunks; limit > 0 && len(req.Chunks) > limit {
		s.respondError(w, http.StatusRequestEntityTooLarge, "too many chunks: max "+strconv.Itoa(limit))
		return
	}

	start := time.Now()
	results, err := s.preprocessor.ProcessBatch(r.Context(), req.Chunks)
	if err != nil {
		s.logger.Error("Preprocessing failed", s.reqField(r), zap.Error(err))
		s.respondKindError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.PreprocessResponse{
		Results:          results,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.engine.Info())
}

func (s *Server) handleAddTriples(w http.ResponseWriter, r *http.Request) {
	var req models.AddTriplesRequest
	if !s.decode(w, r, &req) {
		return
	}
	triples := make([]symbol.Triple, 0, len(req.Triples))
	skipped := 0
	for _, in := range req.Triples {
		t, ok := in.Triple()
		if !ok {
			skipped++
			continue
		}
		triples = append(triples, t)
	}

	st, err := ingest.Apply(r.Context(), s.engine, triples)
	if err != nil {
		s.logger.Error("Adding triples failed", s.reqField(r), zap.Int("added", st.Added), zap.Error(err))
		s.respondKindError(w, err)
		return
	}
	s.logger.Debug("Triples added", s.reqField(r),
		zap.Int("added", st.Added), zap.Int("duplicate", st.Duplicate), zap.Int("skipped", skipped))
	s.respondJSON(w, http.StatusOK, models.AddTriplesResponse{
		Added:     st.Added,
		Duplicate: st.Duplicate,
		Skipped:   skipped,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	seeds, err := req.Validate()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	hits, err := s.engine.SearchSeeds(r.Context(), seeds, req.TopK)
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	ids := make([]uint64, len(seeds))
	for i, sd := range seeds {
		ids[i] = sd.Uint64()
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{
		Seeds:     ids,
		Results:   models.NewSearchResults(hits),
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleSimilarTo(w http.ResponseWriter, r *http.Request) {
	sym, ok := s.symbolParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	k, ok := s.topK(w, r)
	if !ok {
		return
	}
	start := time.Now()
	hits, err := s.engine.SearchSimilarTo(r.Context(), sym, k)
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{
		Seeds:     []uint64{sym.Uint64()},
		Results:   models.NewSearchResults(hits),
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	subject, ok := s.symbolParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	predicate, ok := s.symbolParam(w, r.URL.Query().Get("predicate"))
	if !ok {
		return
	}
	k, ok := s.topK(w, r)
	if !ok {
		return
	}
	start := time.Now()
	hits, err := s.engine.RecoverFiller(r.Context(), subject, predicate, k)
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{
		Seeds:     []uint64{subject.Uint64(), predicate.Uint64()},
		Results:   models.NewSearchResults(hits),
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) symbolParam(w http.ResponseWriter, raw string) (symbol.Symbol, bool) {
	sym, err := symbol.Parse(raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid symbol id: "+strconv.Quote(raw))
		return 0, false
	}
	return sym, true
}

func (s *Server) topK(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("top_k")
	if raw == "" {
		return models.DefaultTopK, true
	}
	k, err := strconv.Atoi(raw)
	if err != nil || k <= 0 {
		s.respondError(w, http.StatusBadRequest, "top_k must be a positive integer")
		return 0, false
	}
	return min(k, models.MaxTopK), true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.config.Server.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) reqField(r *http.Request) zap.Field {
	return zap.String("request_id", middleware.GetReqID(r.Context()))
}

// statusFor maps engine error kinds onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case kgerr.IsInvalidInput(err):
		return http.StatusBadRequest
	case errors.Is(err, kgerr.ErrIndexUnavailable), errors.Is(err, kgerr.ErrSymbolNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondKindError(w http.ResponseWriter, err error) {
	resp := models.ErrorResponse{Error: err.Error()}
	if kind := kgerr.Kind(err); kind != nil {
		resp.Kind = kind.Error()
	}
	s.respondJSON(w, statusFor(err), resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, models.ErrorResponse{Error: message})
}
