package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
// Engine.Dimension stays zero so an existing data directory keeps its width.
func ApplyDefaults(cfg *Config) {
	if cfg.Engine.IndexType == "" {
		cfg.Engine.IndexType = "hnsw"
	}
	if cfg.Engine.HNSW.M == 0 {
		cfg.Engine.HNSW.M = 16
	}
	if cfg.Engine.HNSW.EfConstruction == 0 {
		cfg.Engine.HNSW.EfConstruction = 200
	}
	if cfg.Engine.HNSW.EfSearch == 0 {
		cfg.Engine.HNSW.EfSearch = 64
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8200
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 10 << 20
	}
	if cfg.Preprocess.MaxChunks == 0 {
		cfg.Preprocess.MaxChunks = 1000
	}
	if cfg.Preprocess.CacheSize == 0 {
		cfg.Preprocess.CacheSize = 10000
	}
	if cfg.Preprocess.FuzzyThreshold == 0 {
		cfg.Preprocess.FuzzyThreshold = 0.6
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json", ".txt", ".pdf", ".rtf", ".odt"}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
