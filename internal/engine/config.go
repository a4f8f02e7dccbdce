package engine

import (
	"github.com/hyperjump/hdkg/internal/config"
	"github.com/hyperjump/hdkg/internal/vector"
	"github.com/hyperjump/hdkg/internal/vsa"
)

// FromConfig maps the application config onto engine settings.
func FromConfig(cfg *config.Config) Config {
	return Config{
		Dimension: vsa.Dimension(cfg.Engine.Dimension),
		DataDir:   cfg.DataDir,
		IndexType: cfg.Engine.IndexType,
		HNSW: vector.HNSWConfig{
			M:              cfg.Engine.HNSW.M,
			EfConstruction: cfg.Engine.HNSW.EfConstruction,
			EfSearch:       cfg.Engine.HNSW.EfSearch,
			Seed:           vector.DefaultHNSWConfig().Seed,
		},
	}
}
