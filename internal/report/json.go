package report

import (
	"encoding/json"
	"io"
)

// JSONReport is the top-level JSON output structure.
type JSONReport struct {
	Version string  `json:"version"`
	Package string  `json:"package"`
	Entries []Entry `json:"entries"`
}

// WriteJSON writes the entries for pkg as formatted JSON to the writer.
func WriteJSON(w io.Writer, pkg string, entries []Entry, version string) error {
	if entries == nil {
		entries = []Entry{}
	}
	report := JSONReport{
		Version: version,
		Package: pkg,
		Entries: entries,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
