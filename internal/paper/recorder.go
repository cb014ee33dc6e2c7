package paper

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"pancakeswap-go/internal/execution"
)

// JSONLRecorder is the on-disk fills journal: one JSON object per line, append-only.
type JSONLRecorder struct {
	mu   sync.Mutex
	path string
	file *os.File
	enc  *json.Encoder
}

// NewJSONLRecorder opens path for appending, creating parent directories.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("fills dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open fills journal: %w", err)
	}
	return &JSONLRecorder{path: path, file: file, enc: json.NewEncoder(file)}, nil
}

// Path is the journal file.
func (r *JSONLRecorder) Path() string { return r.path }

// Record appends fill to the journal.
func (r *JSONLRecorder) Record(fill execution.Fill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return errors.New("fills journal closed")
	}
	return r.enc.Encode(fill)
}

func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// LoadJournal reads every fill in the journal at path into a ledger. A missing file is an empty journal.
func LoadJournal(path string) (*Ledger, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewLedger(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open fills journal: %w", err)
	}
	defer file.Close()

	ledger := NewLedger(16)
	dec := json.NewDecoder(file)
	for n := 1; ; n++ {
		var fill execution.Fill
		if err := dec.Decode(&fill); err == io.EOF {
			return ledger, nil
		} else if err != nil {
			return nil, fmt.Errorf("fills journal entry %d: %w", n, err)
		}
		_ = ledger.Record(fill)
	}
}
