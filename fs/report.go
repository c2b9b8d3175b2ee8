// Package fs writes pipeline results as JSON reports to a directory.
package fs

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/rulekit"
	"github.com/fwojciec/rulekit/extract"
	"github.com/fwojciec/rulekit/harvest"
)

// Report file names written by the Writer.
const (
	ComponentsFile = "components.json"
	DeadLetterFile = "deadletter.json"
	ImagesFile     = "images.json"
	ClustersFile   = "clusters.json"
)

// Writer writes reports to a base directory.
type Writer struct {
	baseDir string
}

// NewWriter creates a Writer rooted at baseDir.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// WriteExtract writes the component list and dead-letter records.
func (w *Writer) WriteExtract(res *extract.Result) error {
	if err := w.writeJSON(ComponentsFile, res.Components); err != nil {
		return err
	}
	return w.writeJSON(DeadLetterFile, res.DeadLetter)
}

// WriteHarvest writes the ranked image list and dedupe clusters.
func (w *Writer) WriteHarvest(res *harvest.Result) error {
	if err := w.writeJSON(ImagesFile, res.Images); err != nil {
		return err
	}
	return w.writeJSON(ClustersFile, res.Clusters)
}

// writeJSON writes a value atomically: to a temporary file first, then
// renamed into place, so readers never observe a half-written report.
func (w *Writer) writeJSON(name string, v any) error {
	if err := os.MkdirAll(w.baseDir, 0755); err != nil {
		return rulekit.Errorf(rulekit.EINTERNAL, "create report dir: %v", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return rulekit.Errorf(rulekit.EINTERNAL, "encode %s: %v", name, err)
	}
	data = append(data, '\n')

	target := filepath.Join(w.baseDir, name)
	tmp, err := os.CreateTemp(w.baseDir, name+".tmp*")
	if err != nil {
		return rulekit.Errorf(rulekit.EINTERNAL, "write %s: %v", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return rulekit.Errorf(rulekit.EINTERNAL, "write %s: %v", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return rulekit.Errorf(rulekit.EINTERNAL, "write %s: %v", name, err)
	}
	return os.Rename(tmp.Name(), target)
}
