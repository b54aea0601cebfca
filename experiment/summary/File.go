package summary

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Scalar is a single line of a File sink
type Scalar struct {
	Name  string    `json:"name"`
	Value float64   `json:"value"`
	Step  int       `json:"step"`
	Time  time.Time `json:"time"`
}

// File is a Sink appending one JSON line per scalar to a zstd
// compressed file. Each line is flushed to the compressor as it is
// written, but the file only becomes a complete zstd stream once the
// sink is closed.
type File struct {
	mu   sync.Mutex
	path string
	f    *os.File
	enc  *zstd.Encoder
	w    *bufio.Writer
	now  func() time.Time
}

// NewFile creates the file at path, along with any missing parent
// directories
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("newFile: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("newFile: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("newFile: %w", err)
	}

	return &File{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 64*1024),
		now:  time.Now,
	}, nil
}

// AddScalar appends the scalar to the file
func (s *File) AddScalar(name string, value float64, step int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		return fmt.Errorf("addScalar: %v is closed", s.path)
	}

	b, err := json.Marshal(Scalar{name, value, step, s.now().UTC()})
	if err != nil {
		return fmt.Errorf("addScalar: %w", err)
	}
	if _, err := s.w.Write(b); err != nil {
		return fmt.Errorf("addScalar: %w", err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("addScalar: %w", err)
	}
	return s.w.Flush()
}

// Close finishes the zstd stream and closes the file
func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		return nil
	}
	flushErr := s.w.Flush()
	encErr := s.enc.Close()
	fileErr := s.f.Close()
	s.w, s.enc, s.f = nil, nil, nil

	for _, err := range []error{flushErr, encErr, fileErr} {
		if err != nil {
			return fmt.Errorf("close: %w", err)
		}
	}
	return nil
}

// ReadFile reads back the scalars written by a closed File sink
func ReadFile(path string) ([]Scalar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("readFile: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("readFile: %w", err)
	}
	defer dec.Close()

	return readScalars(dec)
}

func readScalars(r io.Reader) ([]Scalar, error) {
	var scalars []Scalar
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		var s Scalar
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			return nil, fmt.Errorf("readFile: line %d: %w",
				len(scalars)+1, err)
		}
		scalars = append(scalars, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("readFile: %w", err)
	}
	return scalars, nil
}
