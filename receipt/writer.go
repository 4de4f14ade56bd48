// Package receipt persists evaluation receipts: JSON reports on disk
// and, optionally, messages on a NATS subject.
package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/c360studio/knowhook/hooks"
)

// Writer persists one JSON receipt per evaluation pass under a reports
// directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at dir. The directory is created on
// first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Record writes the receipt. The file name carries the pass start time
// and evaluation ID so repeated passes never collide.
func (w *Writer) Record(ctx context.Context, res *hooks.EvaluationResult) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}

	name := fmt.Sprintf("evaluation-%s-%s.json",
		res.StartedAt.UTC().Format("20060102T150405Z"), shortID(res.EvaluationID))
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}
	return nil
}

// Path returns where a receipt for the given result would be written.
func (w *Writer) Path(res *hooks.EvaluationResult) string {
	name := fmt.Sprintf("evaluation-%s-%s.json",
		res.StartedAt.UTC().Format("20060102T150405Z"), shortID(res.EvaluationID))
	return filepath.Join(w.dir, name)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
