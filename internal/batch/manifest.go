package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ManifestEntry represents one model in the output manifest.
type ManifestEntry struct {
	Name        string `json:"name"`
	ID          string `json:"id,omitempty"`
	Output      string `json:"output,omitempty"`
	Diagnostics int    `json:"diagnostics"`
	Error       string `json:"error,omitempty"`
}

// WriteManifest writes manifest.json describing every result.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Name:        r.Name,
			ID:          r.ID,
			Output:      filepath.ToSlash(r.Output),
			Diagnostics: r.Diagnostics,
			Error:       r.Error,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
