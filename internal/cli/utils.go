// Package cli provides output helpers for the hdkg command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/hdkg/internal/engine"
	"github.com/hyperjump/hdkg/internal/ingest"
	"github.com/hyperjump/hdkg/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json", case-insensitively. An empty
// string selects text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteSearchResults writes ranked symbols to w in the given format. Unknown
// formats fall back to text.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms for seeds %s\n\n",
		len(response.Results), response.QueryTime, joinIDs(response.Seeds))
	for _, r := range response.Results {
		fmt.Fprintf(w, "%3d. symbol %-20d similarity %.4f\n", r.Rank, r.Symbol, r.Score)
	}
	return nil
}

// WriteInfo writes an engine snapshot.
func WriteInfo(w io.Writer, info engine.Info, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, info)
	}
	_, err := io.WriteString(w, info.String())
	return err
}

// WriteIngestStats summarises one ingest run.
func WriteIngestStats(w io.Writer, st ingest.Stats) {
	fmt.Fprintf(w, "Ingested %d triples (%d duplicate, %d skipped) from %d file(s)\n",
		st.Added, st.Duplicate, st.Skipped, st.Files)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinIDs(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
