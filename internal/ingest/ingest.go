// Package ingest loads triples from files into the engine.
//
// Two formats are understood: a JSON array of {"s","p","o"} records, and
// prose, which is run through the preprocessor so every extracted claim
// becomes a triple. Prose may be plain text, PDF, RTF or ODT.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/hdkg/internal/models"
	"github.com/hyperjump/hdkg/internal/preprocess"
	"github.com/hyperjump/hdkg/internal/symbol"
)

// Sink receives triples. *engine.Engine implements it.
type Sink interface {
	AddTriple(ctx context.Context, s, p, o symbol.Symbol) (bool, error)
}

// Extractor turns a text chunk into claims. *preprocess.Preprocessor
// implements it.
type Extractor interface {
	Process(ctx context.Context, chunk preprocess.Chunk) (preprocess.Result, error)
}

// Stats counts what an ingestion did.
type Stats struct {
	Files     int `json:"files"`
	Added     int `json:"added"`
	Duplicate int `json:"duplicate"`
	Skipped   int `json:"skipped"`
}

// Merge adds o into s.
func (s *Stats) Merge(o Stats) {
	s.Files += o.Files
	s.Added += o.Added
	s.Duplicate += o.Duplicate
	s.Skipped += o.Skipped
}

// Ingester feeds files into a Sink.
type Ingester struct {
	sink      Sink
	extractor Extractor
	logger    *zap.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithLogger sets a logger for per-file debug output.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingester) { in.logger = l }
}

// WithExtractor enables prose files. Without one, only JSON files are read.
func WithExtractor(x Extractor) Option {
	return func(in *Ingester) { in.extractor = x }
}

// New returns an ingester writing to sink.
func New(sink Sink, opts ...Option) *Ingester {
	in := &Ingester{sink: sink, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// DecodeTriples reads a JSON array of triple records. Records with a zero
// field are counted and dropped rather than failing the whole file.
func DecodeTriples(r io.Reader) ([]symbol.Triple, int, error) {
	var records []models.TripleInput
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, 0, fmt.Errorf("decode triples: %w", err)
	}
	triples := make([]symbol.Triple, 0, len(records))
	skipped := 0
	for _, rec := range records {
		t, ok := rec.Triple()
		if !ok {
			skipped++
			continue
		}
		triples = append(triples, t)
	}
	return triples, skipped, nil
}

// LoadFile reads a JSON triple file.
func LoadFile(path string) ([]symbol.Triple, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	triples, skipped, err := DecodeTriples(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return triples, skipped, nil
}

// Apply adds triples in order. Duplicates are counted, not rejected; the
// first error stops the batch.
func Apply(ctx context.Context, sink Sink, triples []symbol.Triple) (Stats, error) {
	var st Stats
	for _, t := range triples {
		added, err := sink.AddTriple(ctx, t.Subject, t.Predicate, t.Object)
		if err != nil {
			return st, fmt.Errorf("add %s: %w", t, err)
		}
		if added {
			st.Added++
		} else {
			st.Duplicate++
		}
	}
	return st, nil
}

// IngestFile loads one file. If allowedExts is non-empty the extension must
// be in it (case-insensitive).
func (in *Ingester) IngestFile(ctx context.Context, path string, allowedExts []string) (Stats, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Stats{}, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !ExtensionAllowed(ext, allowedExts) {
		return Stats{}, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return Stats{}, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return Stats{}, fmt.Errorf("not a regular file: %s", absPath)
	}

	var (
		triples []symbol.Triple
		skipped int
	)
	if ext == ".json" {
		triples, skipped, err = LoadFile(absPath)
	} else {
		triples, err = in.extract(ctx, absPath, ext)
	}
	if err != nil {
		return Stats{}, err
	}

	st, err := Apply(ctx, in.sink, triples)
	st.Files = 1
	st.Skipped += skipped
	if err != nil {
		return st, fmt.Errorf("%s: %w", absPath, err)
	}
	in.logger.Debug("ingested file",
		zap.String("path", absPath),
		zap.Int("added", st.Added),
		zap.Int("duplicate", st.Duplicate),
		zap.Int("skipped", st.Skipped))
	return st, nil
}

func (in *Ingester) extract(ctx context.Context, path, ext string) ([]symbol.Triple, error) {
	if in.extractor == nil {
		return nil, fmt.Errorf("no preprocessor configured for %s", filepath.Base(path))
	}
	text, err := readText(path, ext)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	// Name-based ids keep chunk ids stable across re-ingestion of a file.
	res, err := in.extractor.Process(ctx, preprocess.Chunk{
		ID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path)).String(),
		Text: text,
	})
	if err != nil {
		return nil, fmt.Errorf("preprocess %s: %w", path, err)
	}
	triples := make([]symbol.Triple, 0, len(res.Claims))
	for _, c := range res.Claims {
		triples = append(triples, c.Triple())
	}
	return triples, nil
}

// IngestDirectory walks dir and ingests every regular file whose extension
// is allowed. It stops at the first failing file.
func (in *Ingester) IngestDirectory(ctx context.Context, dir string, allowedExts []string, recursive bool) (Stats, error) {
	var total Stats
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return total, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return total, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return total, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != absDir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !ExtensionAllowed(ext, allowedExts) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		st, ingestErr := in.IngestFile(ctx, path, allowedExts)
		total.Merge(st)
		return ingestErr
	})
	return total, err
}

// ExtensionAllowed reports whether ext is in allowed, ignoring case and a
// leading dot.
func ExtensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
