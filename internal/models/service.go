package models

import "github.com/hyperjump/hdkg/internal/preprocess"

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string   `json:"status"`
	Version   string   `json:"version"`
	Languages []string `json:"languages"`
}

// LanguageInfo describes one supported language.
type LanguageInfo struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	PatternCount int    `json:"pattern_count"`
}

// PreprocessRequest is the body of POST /preprocess.
type PreprocessRequest struct {
	Chunks []preprocess.Chunk `json:"chunks"`
}

// PreprocessResponse carries one result per chunk, in request order.
type PreprocessResponse struct {
	Results          []preprocess.Result `json:"results"`
	ProcessingTimeMs int64               `json:"processing_time_ms"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
