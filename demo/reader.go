package demo

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Reader decodes a demonstration file: metadata, parameters, then steps in
// write order.
type Reader struct {
	Metadata   Metadata
	Parameters Parameters

	br    *bufio.Reader
	steps int
}

// NewReader reads the metadata region and the parameters from rs and leaves
// it positioned at the first step.
func NewReader(rs io.ReadSeeker) (*Reader, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, newError(KindSeek, "read", "", err)
	}
	region := make([]byte, ParametersOffset)
	if _, err := io.ReadFull(rs, region); err != nil {
		return nil, newError(KindCorrupt, "read", "", fmt.Errorf("metadata region: %w", err))
	}
	meta, err := decodeRegion(region)
	if err != nil {
		return nil, newError(KindCorrupt, "read", "", err)
	}

	if _, err := rs.Seek(ParametersOffset, io.SeekStart); err != nil {
		return nil, newError(KindSeek, "read", "", err)
	}
	br := bufio.NewReader(rs)
	body, err := readDelimited(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, newError(KindCorrupt, "read", "", fmt.Errorf("parameters: %w", err))
	}
	var params Parameters
	if err := params.Unmarshal(body); err != nil {
		return nil, newError(KindCorrupt, "read", "", fmt.Errorf("decode parameters: %w", err))
	}
	return &Reader{Metadata: meta, Parameters: params, br: br}, nil
}

// Next returns the next step, or io.EOF after the last one.
func (r *Reader) Next() (StepRecord, error) {
	var step StepRecord
	body, err := readDelimited(r.br)
	if err == io.EOF {
		return step, io.EOF
	}
	if err != nil {
		return step, newError(KindCorrupt, "read", "", fmt.Errorf("step %d: %w", r.steps, err))
	}
	if err := step.Unmarshal(body); err != nil {
		return step, newError(KindCorrupt, "read", "", fmt.Errorf("decode step %d: %w", r.steps, err))
	}
	r.steps++
	return step, nil
}

// ReadAll returns every remaining step.
func (r *Reader) ReadAll() ([]StepRecord, error) {
	var steps []StepRecord
	for {
		step, err := r.Next()
		if err == io.EOF {
			return steps, nil
		}
		if err != nil {
			return steps, err
		}
		steps = append(steps, step)
	}
}

// FileReader is an open demonstration file.
type FileReader struct {
	*Reader
	f afero.File
}

// OpenFile opens the demonstration at path on the operating system filesystem.
func OpenFile(path string) (*FileReader, error) {
	return Open(afero.NewOsFs(), path)
}

// Open opens the demonstration at path on fs.
func Open(fs afero.Fs, path string) (*FileReader, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &FileReader{Reader: r, f: f}, nil
}

func (fr *FileReader) Close() error { return fr.f.Close() }
