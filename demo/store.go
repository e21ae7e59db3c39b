package demo

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

type state int

const (
	stateNew state = iota
	stateRecording
	stateClosed
)

// Store writes one demonstration file.
//
// Usage:
//
//	s := demo.New(nil, demo.DefaultConfig())
//	if err := s.Initialize("walker", params); err != nil { ... }
//	for each step { _ = s.Record(step) }
//	err := s.Close()
//
// Steps are appended as they are recorded. The metadata region at the start of
// the file holds a placeholder until Close() patches it. A Store is meant to be
// driven from a single goroutine.
type Store struct {
	fs  FileSystem
	cfg Config
	log logrus.FieldLogger

	state     state
	file      File
	path      string
	meta      Metadata
	cumReward float64
	lastDone  bool
	err       error // sticky I/O failure
}

// New returns a Store that creates its file through fs. A nil fs means the
// operating system filesystem.
func New(fs FileSystem, cfg Config) *Store {
	if fs == nil {
		fs = NewFileSystem(nil)
	}
	return &Store{
		fs:  fs,
		cfg: cfg.withDefaults(),
		log: logrus.WithField("component", "demo"),
	}
}

// SetLogger replaces the logger used by s.
func (s *Store) SetLogger(l logrus.FieldLogger) {
	if l != nil {
		s.log = l
	}
}

// Path returns the file being written, or "" before Initialize.
func (s *Store) Path() string { return s.path }

// Metadata returns a snapshot of the running statistics.
func (s *Store) Metadata() Metadata { return s.meta }

// Initialize creates the demonstration file, reserves the metadata region and
// writes params at ParametersOffset.
func (s *Store) Initialize(name string, params Parameters) error {
	const op = "initialize"
	if s.state != stateNew {
		return newError(KindInvalidSequencing, op, s.path, errors.New("store already initialized"))
	}
	if err := s.cfg.Validate(); err != nil {
		return newError(KindInvalidConfig, op, "", err)
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return newError(KindFileCreation, op, "", fmt.Errorf("invalid demonstration name %q", name))
	}

	meta := Metadata{APIVersion: APIVersion, Name: name}
	if err := meta.checkCapacity(); err != nil {
		return newError(KindCapacityExceeded, op, "", err)
	}

	if err := s.fs.CreateDirectory(s.cfg.Directory); err != nil {
		return newError(KindDirectoryCreation, op, s.cfg.Directory, err)
	}
	path, err := s.uniquePath(name)
	if err != nil {
		return err
	}
	f, err := s.fs.CreateFile(path)
	if err != nil {
		return newError(KindFileCreation, op, path, err)
	}

	if err := writeRegion(f, meta); err != nil {
		_ = f.Close()
		return withOp(err, op, path)
	}
	if err := writeParameters(f, params); err != nil {
		_ = f.Close()
		return withOp(err, op, path)
	}

	s.file, s.path, s.meta = f, path, meta
	s.state = stateRecording
	s.log.WithFields(logrus.Fields{"path": path, "brain": params.BrainName}).Info("demonstration started")
	return nil
}

// uniquePath returns the first free path among name, name_0, name_1, ...
func (s *Store) uniquePath(name string) (string, error) {
	candidate := name
	for i := 0; ; i++ {
		path := filepath.Join(s.cfg.Directory, candidate+s.cfg.Extension)
		exists, err := s.fs.Exists(path)
		if err != nil {
			return "", newError(KindFileCreation, "initialize", path, err)
		}
		if !exists {
			return path, nil
		}
		if i >= s.cfg.MaxNameAttempts {
			return "", newError(KindFileCreation, "initialize", path,
				fmt.Errorf("no free name after %d attempts", s.cfg.MaxNameAttempts))
		}
		candidate = fmt.Sprintf("%s_%d", name, i)
	}
}

// writeRegion writes the full reserved region at offset 0.
func writeRegion(f File, meta Metadata) error {
	region, err := meta.region()
	if err != nil {
		return newError(KindCapacityExceeded, "", "", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return newError(KindSeek, "", "", err)
	}
	if _, err := f.Write(region); err != nil {
		return newError(KindWrite, "", "", err)
	}
	return nil
}

func writeParameters(f File, params Parameters) error {
	off, err := f.Seek(ParametersOffset, io.SeekStart)
	if err != nil {
		return newError(KindSeek, "", "", err)
	}
	if off != ParametersOffset {
		return newError(KindSeek, "", "", fmt.Errorf("seek landed at %d, want %d", off, ParametersOffset))
	}
	if _, err := writeDelimited(f, params.Marshal()); err != nil {
		return newError(KindWrite, "", "", fmt.Errorf("write parameters: %w", err))
	}
	return nil
}

// Record appends step to the demonstration and updates the running counters.
func (s *Store) Record(step StepRecord) error {
	const op = "record"
	switch s.state {
	case stateNew:
		return newError(KindInvalidSequencing, op, "", errors.New("record before initialize"))
	case stateClosed:
		return newError(KindInvalidSequencing, op, s.path, errors.New("record after close"))
	}
	if s.err != nil {
		return s.err
	}
	if s.meta.ExperienceCount == math.MaxInt32 || (step.Terminal() && s.meta.EpisodeCount == math.MaxInt32-1) {
		return newError(KindCapacityExceeded, op, s.path, errors.New("step counter overflow"))
	}

	s.meta.ExperienceCount++
	s.cumReward += float64(step.Reward())
	if step.Terminal() {
		s.endEpisode()
	}
	s.lastDone = step.Terminal()

	if _, err := writeDelimited(s.file, step.Marshal()); err != nil {
		s.err = newError(KindWrite, op, s.path, err)
		return s.err
	}
	s.log.WithFields(logrus.Fields{
		"step":     s.meta.ExperienceCount,
		"episodes": s.meta.EpisodeCount,
	}).Debug("recorded step")
	return nil
}

func (s *Store) endEpisode() {
	s.meta.EpisodeCount++
}

// Close finalises the statistics, patches the metadata region and closes the
// file. Calling Close twice is an error.
func (s *Store) Close() error {
	const op = "close"
	switch s.state {
	case stateNew:
		return newError(KindInvalidSequencing, op, "", errors.New("close before initialize"))
	case stateClosed:
		return newError(KindInvalidSequencing, op, s.path, errors.New("store already closed"))
	}
	s.state = stateClosed

	if s.err != nil {
		_ = s.file.Close()
		return s.err
	}

	if s.cfg.Accounting == AccountingCompat || !s.lastDone || s.meta.ExperienceCount == 0 {
		s.endEpisode()
	}
	s.meta.MeanReward = float32(s.cumReward / float64(s.meta.EpisodeCount))

	if err := writeRegion(s.file, s.meta); err != nil {
		_ = s.file.Close()
		return withOp(err, op, s.path)
	}
	if err := s.file.Close(); err != nil {
		return newError(KindWrite, op, s.path, err)
	}
	s.log.WithFields(logrus.Fields{
		"path":        s.path,
		"steps":       s.meta.ExperienceCount,
		"episodes":    s.meta.EpisodeCount,
		"mean_reward": s.meta.MeanReward,
	}).Info("demonstration finalized")
	return nil
}

// withOp fills in the operation and path of a demo error built by a helper.
func withOp(err error, op, path string) error {
	var e *Error
	if errors.As(err, &e) {
		if e.Op == "" {
			e.Op = op
		}
		if e.Path == "" {
			e.Path = path
		}
		return e
	}
	return newError(KindUnknown, op, path, err)
}
