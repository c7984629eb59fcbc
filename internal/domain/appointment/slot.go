package appointment

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// ErrSlotEmpty is returned by Slot.Load when nothing has been stored yet.
var ErrSlotEmpty = errors.New("appointment slot is empty")

// Slot is a single named value holding the serialized ledger. Implementations
// store and return the bytes verbatim.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Store(ctx context.Context, data []byte) error
}

// MemorySlot keeps the ledger in process memory.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

// NewMemorySlot returns an empty slot, or one pre-seeded with the given
// payload.
func NewMemorySlot(seed ...[]byte) *MemorySlot {
	s := &MemorySlot{}
	if len(seed) > 0 {
		s.data = slices.Clone(seed[0])
		s.set = true
	}
	return s
}

func (s *MemorySlot) Load(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return nil, ErrSlotEmpty
	}
	return slices.Clone(s.data), nil
}

func (s *MemorySlot) Store(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = slices.Clone(data)
	s.set = true
	return nil
}

// FileSlot keeps the ledger in a JSON file. Writes go to a temporary file in
// the same directory and are renamed into place.
type FileSlot struct {
	path string
}

func NewFileSlot(path string) *FileSlot {
	return &FileSlot{path: path}
}

func (s *FileSlot) Path() string { return s.path }

func (s *FileSlot) Load(context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger file %s: %w", s.path, err)
	}
	return data, nil
}

func (s *FileSlot) Store(_ context.Context, data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger file %s: %w", s.path, err)
	}
	return nil
}
