package engine

import (
	"fmt"
	"strings"

	"github.com/hyperjump/hdkg/internal/vsa"
)

// Info is a read-only snapshot of engine state.
type Info struct {
	Dimension      int    `json:"dimension"`
	Encoding       string `json:"encoding"`
	SymbolCount    int    `json:"symbol_count"`
	NodeCount      int    `json:"node_count"`
	TripleCount    int    `json:"triple_count"`
	IndexType      string `json:"index_type"`
	IndexEntries   int    `json:"index_entries"`
	Persistent     bool   `json:"persistent"`
	DataDir        string `json:"data_dir,omitempty"`
	DiskUsageBytes int64  `json:"disk_usage_bytes,omitempty"`
}

type diskUser interface {
	DiskUsage() (int64, error)
}

// Info returns counts and configuration.
func (e *Engine) Info() Info {
	info := Info{
		Dimension:    int(e.cfg.Dimension),
		Encoding:     vsa.Encoding,
		SymbolCount:  e.memory.Len(),
		NodeCount:    e.graph.NodeCount(),
		TripleCount:  e.graph.Len(),
		IndexType:    e.index.Type(),
		IndexEntries: e.index.Len(),
		Persistent:   e.store != nil,
		DataDir:      e.cfg.DataDir,
	}
	if du, ok := e.store.(diskUser); ok {
		if n, err := du.DiskUsage(); err == nil {
			info.DiskUsageBytes = n
		}
	}
	return info
}

func (i Info) String() string {
	var b strings.Builder
	b.WriteString("engine info\n")
	fmt.Fprintf(&b, "  dimension:    %d\n", i.Dimension)
	fmt.Fprintf(&b, "  encoding:     %s\n", i.Encoding)
	fmt.Fprintf(&b, "  symbols:      %d\n", i.SymbolCount)
	fmt.Fprintf(&b, "  nodes:        %d\n", i.NodeCount)
	fmt.Fprintf(&b, "  triples:      %d\n", i.TripleCount)
	fmt.Fprintf(&b, "  index:        %s (%d entries)\n", i.IndexType, i.IndexEntries)
	fmt.Fprintf(&b, "  persistent:   %t\n", i.Persistent)
	if i.DataDir != "" {
		fmt.Fprintf(&b, "  data dir:     %s\n", i.DataDir)
	}
	return b.String()
}
