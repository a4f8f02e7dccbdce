package preprocess

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/blevesearch/bleve/v2"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ar"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/en"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/es"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/fr"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ru"
	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/hdkg/internal/memory"
	"github.com/hyperjump/hdkg/internal/metrics"
	"github.com/hyperjump/hdkg/internal/symbol"
)

// Chunk is one piece of text to preprocess. Language is an optional hint.
type Chunk struct {
	ID       string `json:"id,omitempty"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// Entity is a subject or object mentioned by a claim.
type Entity struct {
	Name           string   `json:"name"`
	EntityType     string   `json:"entity_type"`
	CanonicalName  string   `json:"canonical_name"`
	Symbol         uint64   `json:"symbol"`
	Confidence     float64  `json:"confidence"`
	Aliases        []string `json:"aliases"`
	SourceLanguage string   `json:"source_language"`
}

// Claim is a subject, predicate, object statement found in a sentence.
type Claim struct {
	ClaimText      string  `json:"claim_text"`
	ClaimType      string  `json:"claim_type"`
	Confidence     float64 `json:"confidence"`
	Subject        string  `json:"subject"`
	Predicate      string  `json:"predicate"`
	Object         string  `json:"object"`
	SubjectID      uint64  `json:"subject_id"`
	PredicateID    uint64  `json:"predicate_id"`
	ObjectID       uint64  `json:"object_id"`
	SourceLanguage string  `json:"source_language"`
}

// Triple returns the claim as engine symbols.
func (c Claim) Triple() symbol.Triple {
	return symbol.Triple{
		Subject:   symbol.Symbol(c.SubjectID),
		Predicate: symbol.Symbol(c.PredicateID),
		Object:    symbol.Symbol(c.ObjectID),
	}
}

// Result is the preprocessing output for one chunk.
type Result struct {
	ChunkID                    string   `json:"chunk_id"`
	SourceLanguage             string   `json:"source_language"`
	DetectedLanguageConfidence float64  `json:"detected_language_confidence"`
	Entities                   []Entity `json:"entities"`
	Claims                     []Claim  `json:"claims"`
}

// Preprocessor extracts claims from prose and makes sure every symbol it
// hands out has a vector in item memory.
type Preprocessor struct {
	memory    *memory.ItemMemory
	registry  *Registry
	tokenizer *bleveunicode.UnicodeTokenizer
	analyzers *mapping.IndexMappingImpl
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithLogger sets the preprocessor logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Preprocessor) {
		p.logger = l
	}
}

// WithMetrics records processed chunks per language.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Preprocessor) {
		p.metrics = m
	}
}

// New returns a preprocessor that resolves labels through reg and stores
// vectors in mem.
func New(mem *memory.ItemMemory, reg *Registry, opts ...Option) *Preprocessor {
	p := &Preprocessor{
		memory:    mem,
		registry:  reg,
		tokenizer: bleveunicode.NewUnicodeTokenizer(),
		analyzers: bleve.NewIndexMapping(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the label registry.
func (p *Preprocessor) Registry() *Registry { return p.registry }

// Process extracts entities and claims from one chunk. A chunk without an id
// gets a random one.
func (p *Preprocessor) Process(ctx context.Context, chunk Chunk) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	id := chunk.ID
	if id == "" {
		id = uuid.NewString()
	}
	detection := DetectLanguage(chunk.Text)
	lang := detection.Language
	if hint, ok := ParseLanguage(chunk.Language); ok && hint != Auto {
		lang = hint
	}

	out := result{Result: Result{
		ChunkID:                    id,
		SourceLanguage:             lang.Code(),
		DetectedLanguageConfidence: detection.Confidence,
		Entities:                   []Entity{},
		Claims:                     []Claim{},
	}, seen: map[string]int{}}

	for _, sentence := range SplitSentences(chunk.Text) {
		if err := p.sentence(lang, sentence, &out); err != nil {
			return Result{}, fmt.Errorf("chunk %s: %w", id, err)
		}
	}

	p.metrics.ChunkProcessed(lang.Code())
	p.logger.Debug("Preprocessed chunk",
		zap.String("chunk_id", id),
		zap.String("language", lang.Code()),
		zap.Int("claims", len(out.Claims)))
	return out.Result, nil
}

// ProcessBatch processes chunks in order.
func (p *Preprocessor) ProcessBatch(ctx context.Context, chunks []Chunk) ([]Result, error) {
	out := make([]Result, 0, len(chunks))
	for _, c := range chunks {
		r, err := p.Process(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// ProcessMixed splits a mixed-language text into sentences and processes
// each with its own detected language.
func (p *Preprocessor) ProcessMixed(ctx context.Context, text string) ([]Result, error) {
	var chunks []Chunk
	for _, sd := range DetectPerSentence(text) {
		chunks = append(chunks, Chunk{Text: sd.Text, Language: sd.Detection.Language.Code()})
	}
	return p.ProcessBatch(ctx, chunks)
}

type result struct {
	Result
	seen map[string]int
}

func (p *Preprocessor) sentence(lang Language, sentence string, out *result) error {
	tokens := p.tokenize(sentence)
	m, ok := FindPattern(lang, tokens)
	if !ok {
		return nil
	}
	subjWords := dropVoid(lang, tokens[:m.Start])
	objWords := dropVoid(lang, tokens[m.End:])
	if len(subjWords) == 0 || len(objWords) == 0 {
		return nil
	}

	pred, err := p.registry.Register(m.Pattern.Predicate)
	if err != nil {
		return err
	}
	if _, err := p.memory.GetOrCreate(pred); err != nil {
		return err
	}
	subj, err := p.entity(lang, subjWords, m.Pattern.Predicate, true, out)
	if err != nil {
		return err
	}
	obj, err := p.entity(lang, objWords, m.Pattern.Predicate, false, out)
	if err != nil {
		return err
	}

	out.Claims = append(out.Claims, Claim{
		ClaimText:      sentence,
		ClaimType:      ClaimType(m.Pattern.Predicate),
		Confidence:     m.Pattern.Confidence,
		Subject:        subj.CanonicalName,
		Predicate:      m.Pattern.Predicate,
		Object:         obj.CanonicalName,
		SubjectID:      subj.Symbol,
		PredicateID:    pred.Uint64(),
		ObjectID:       obj.Symbol,
		SourceLanguage: lang.Code(),
	})
	return nil
}

func (p *Preprocessor) entity(lang Language, words []string, predicate string, subject bool, out *result) (Entity, error) {
	surface := strings.Join(words, " ")
	res, err := p.registry.ResolveOrRegister(p.canonical(lang, surface))
	if err != nil {
		return Entity{}, err
	}
	if _, err := p.memory.GetOrCreate(res.Symbol); err != nil {
		return Entity{}, err
	}

	if i, ok := out.seen[res.Label]; ok {
		e := &out.Entities[i]
		if surface != e.Name && !slices.Contains(e.Aliases, surface) {
			e.Aliases = append(e.Aliases, surface)
		}
		return *e, nil
	}

	confidence := 0.90
	if res.Fuzzy {
		confidence *= res.Similarity
	}
	e := Entity{
		Name:           surface,
		EntityType:     entityType(predicate, subject),
		CanonicalName:  res.Label,
		Symbol:         res.Symbol.Uint64(),
		Confidence:     confidence,
		Aliases:        []string{},
		SourceLanguage: lang.Code(),
	}
	out.seen[res.Label] = len(out.Entities)
	out.Entities = append(out.Entities, e)
	return e, nil
}

func (p *Preprocessor) tokenize(text string) []string {
	stream := p.tokenizer.Tokenize([]byte(text))
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		out = append(out, strings.ToLower(string(tok.Term)))
	}
	return out
}

// canonical stems a phrase with the language's analyzer, falling back to the
// lowercased phrase when the analyzer drops every term.
func (p *Preprocessor) canonical(lang Language, phrase string) string {
	analyzer := p.analyzers.AnalyzerNamed(lang.Code())
	if analyzer == nil {
		return phrase
	}
	var terms []string
	for _, tok := range analyzer.Analyze([]byte(phrase)) {
		terms = append(terms, string(tok.Term))
	}
	if len(terms) == 0 {
		return phrase
	}
	return strings.Join(terms, " ")
}

func dropVoid(lang Language, words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if !IsVoid(lang, w) {
			out = append(out, w)
		}
	}
	return out
}
