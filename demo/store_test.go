package demo

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Parameters {
	return Parameters{
		BrainName:             "Walker",
		VectorObservationSize: 3,
		VectorActionSize:      []int32{2},
		VectorActionSpaceType: SpaceContinuous,
	}
}

func testStep(reward float32, done bool) StepRecord {
	return StepRecord{
		Info: AgentInfo{
			Reward: reward,
			Done:   done,
			Observations: []Observation{
				{Shape: []int32{3}, FloatData: []float32{reward, 1, 2}},
				{Shape: []int32{2, 2}, Compression: CompressionPNG, CompressedData: []byte{0x89, 'P', 'N', 'G'}},
			},
		},
		Action: Action{VectorActions: []float32{0.5, -0.5}},
	}
}

func newMemStore(t *testing.T, cfg Config) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return New(NewFileSystem(fs), cfg), fs
}

func recordAll(t *testing.T, s *Store, steps ...StepRecord) {
	t.Helper()
	for _, st := range steps {
		require.NoError(t, s.Record(st))
	}
}

func TestStoreLayout(t *testing.T) {
	s, fs := newMemStore(t, Config{})
	require.NoError(t, s.Initialize("walker", testParams()))
	steps := []StepRecord{testStep(1, false), testStep(2, true), testStep(3, false)}
	recordAll(t, s, steps...)
	require.NoError(t, s.Close())

	assert.Equal(t, filepath.Join(DefaultDirectory, "walker.demo"), s.Path())

	raw, err := afero.ReadFile(fs, s.Path())
	require.NoError(t, err)
	require.Greater(t, len(raw), ParametersOffset)

	// The reserved region is a single delimited message followed by padding.
	size := int(raw[0])
	require.LessOrEqual(t, size, MetadataCapacity)
	for _, b := range raw[1+size : ParametersOffset] {
		assert.Zero(t, b)
	}

	// Parameters start exactly at the fixed offset.
	paramsLen := int(raw[ParametersOffset])
	var params Parameters
	require.NoError(t, params.Unmarshal(raw[ParametersOffset+1:ParametersOffset+1+paramsLen]))
	assert.Equal(t, testParams(), params)

	fr, err := Open(fs, s.Path())
	require.NoError(t, err)
	defer fr.Close()
	got, err := fr.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, steps, got)
}

func TestStoreStatistics(t *testing.T) {
	s, fs := newMemStore(t, Config{})
	require.NoError(t, s.Initialize("stats", testParams()))
	recordAll(t, s,
		testStep(1, false), testStep(2, true), // episode 1: 3
		testStep(3, true), // episode 2: 3
		testStep(4, false), // unterminated tail: 4
	)
	require.NoError(t, s.Close())

	fr, err := Open(fs, s.Path())
	require.NoError(t, err)
	defer fr.Close()

	meta := fr.Metadata
	assert.Equal(t, "stats", meta.Name)
	assert.Equal(t, int32(APIVersion), meta.APIVersion)
	assert.Equal(t, int32(4), meta.ExperienceCount)
	assert.Equal(t, int32(3), meta.EpisodeCount)
	assert.InDelta(t, 10.0/3.0, meta.MeanReward, 1e-6)
	assert.Equal(t, meta, s.Metadata())
}

func TestStoreCloseBumpsEpisodeAfterTerminal(t *testing.T) {
	for _, tc := range []struct {
		accounting Accounting
		episodes   int32
	}{
		{AccountingCompat, 3},
		{AccountingExact, 2},
	} {
		t.Run(string(tc.accounting), func(t *testing.T) {
			s, _ := newMemStore(t, Config{Accounting: tc.accounting})
			require.NoError(t, s.Initialize("acct", testParams()))
			recordAll(t, s, testStep(2, true), testStep(4, true))
			require.NoError(t, s.Close())

			meta := s.Metadata()
			assert.Equal(t, tc.episodes, meta.EpisodeCount)
			assert.InDelta(t, 6.0/float64(tc.episodes), meta.MeanReward, 1e-6)
		})
	}
}

func TestStoreNoTerminalStep(t *testing.T) {
	for _, acct := range []Accounting{AccountingCompat, AccountingExact} {
		t.Run(string(acct), func(t *testing.T) {
			s, fs := newMemStore(t, Config{Accounting: acct})
			require.NoError(t, s.Initialize("open", testParams()))
			recordAll(t, s, testStep(1.5, false), testStep(2.5, false))
			require.NoError(t, s.Close())

			sum, err := Validate(fs, s.Path())
			require.NoError(t, err)
			assert.Equal(t, int32(1), sum.Metadata.EpisodeCount)
			assert.Equal(t, int32(2), sum.Metadata.ExperienceCount)
			assert.InDelta(t, 4.0, sum.Metadata.MeanReward, 1e-6)
		})
	}
}

func TestStoreEmptySession(t *testing.T) {
	s, fs := newMemStore(t, Config{Accounting: AccountingExact})
	require.NoError(t, s.Initialize("empty", testParams()))
	require.NoError(t, s.Close())

	sum, err := Validate(fs, s.Path())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Steps)
	assert.Equal(t, int32(1), sum.Metadata.EpisodeCount)
	assert.Zero(t, sum.Metadata.MeanReward)
}

func TestStoreExperienceCountIncludesTerminalSteps(t *testing.T) {
	s, _ := newMemStore(t, Config{})
	require.NoError(t, s.Initialize("count", testParams()))
	for i := 0; i < 25; i++ {
		require.NoError(t, s.Record(testStep(1, i%5 == 4)))
	}
	require.NoError(t, s.Close())
	assert.Equal(t, int32(25), s.Metadata().ExperienceCount)
	assert.Equal(t, int32(6), s.Metadata().EpisodeCount)
}

func TestStoreUniqueNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "demos"
	require.NoError(t, fs.MkdirAll(dir, 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "foo.demo"), []byte("x"), 0o644))

	cfg := Config{Directory: dir}
	var paths []string
	for i := 0; i < 3; i++ {
		s := New(NewFileSystem(fs), cfg)
		require.NoError(t, s.Initialize("foo", testParams()))
		require.NoError(t, s.Close())
		paths = append(paths, s.Path())
	}
	assert.Equal(t, []string{
		filepath.Join(dir, "foo_0.demo"),
		filepath.Join(dir, "foo_1.demo"),
		filepath.Join(dir, "foo_2.demo"),
	}, paths)

	// Candidates are probed in order; the first free one wins.
	require.NoError(t, fs.Remove(filepath.Join(dir, "foo_1.demo")))
	s := New(NewFileSystem(fs), cfg)
	require.NoError(t, s.Initialize("foo", testParams()))
	require.NoError(t, s.Close())
	assert.Equal(t, filepath.Join(dir, "foo_1.demo"), s.Path())

	// The recorded name is the requested one, without suffix.
	sum, err := Validate(fs, s.Path())
	require.NoError(t, err)
	assert.Equal(t, "foo", sum.Metadata.Name)
}

func TestStoreNameAttemptsExhausted(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, n := range []string{"foo", "foo_0", "foo_1"} {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("d", n+".demo"), nil, 0o644))
	}
	s := New(NewFileSystem(fs), Config{Directory: "d", MaxNameAttempts: 2})
	err := s.Initialize("foo", testParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileCreation))
}

func TestStoreCreatesDirectory(t *testing.T) {
	s, fs := newMemStore(t, Config{Directory: "a/b/c"})
	require.NoError(t, s.Initialize("nested", testParams()))
	require.NoError(t, s.Close())
	ok, err := afero.DirExists(fs, "a/b/c")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStoreDirectoryCreationFailure(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	s := New(NewFileSystem(fs), Config{})
	err := s.Initialize("ro", testParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDirectoryCreation))
	assert.Equal(t, KindDirectoryCreation, KindOf(err))
}

func TestStoreFileCreationFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll(DefaultDirectory, 0o755))
	s := New(NewFileSystem(afero.NewReadOnlyFs(base)), Config{})
	err := s.Initialize("ro", testParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileCreation))
}

func TestStoreInvalidName(t *testing.T) {
	for _, name := range []string{"", "a/b", `a\b`} {
		s, _ := newMemStore(t, Config{})
		err := s.Initialize(name, testParams())
		assert.True(t, errors.Is(err, ErrFileCreation), "name %q", name)
	}
}

func TestStoreNameExceedsCapacity(t *testing.T) {
	s, fs := newMemStore(t, Config{})
	err := s.Initialize("a-name-that-cannot-fit", testParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	ok, err := afero.DirExists(fs, DefaultDirectory)
	require.NoError(t, err)
	assert.False(t, ok, "nothing is created for a session that cannot be finalized")
}

func TestStoreInvalidConfig(t *testing.T) {
	s, _ := newMemStore(t, Config{Accounting: "bogus"})
	err := s.Initialize("cfg", testParams())
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestStoreSequencing(t *testing.T) {
	t.Run("record before initialize", func(t *testing.T) {
		s, _ := newMemStore(t, Config{})
		err := s.Record(testStep(1, false))
		assert.True(t, errors.Is(err, ErrInvalidSequencing))
	})

	t.Run("close before initialize", func(t *testing.T) {
		s, _ := newMemStore(t, Config{})
		assert.True(t, errors.Is(s.Close(), ErrInvalidSequencing))
	})

	t.Run("initialize twice", func(t *testing.T) {
		s, _ := newMemStore(t, Config{})
		require.NoError(t, s.Initialize("twice", testParams()))
		assert.True(t, errors.Is(s.Initialize("twice", testParams()), ErrInvalidSequencing))
		require.NoError(t, s.Close())
	})

	t.Run("double close keeps file valid", func(t *testing.T) {
		s, fs := newMemStore(t, Config{})
		require.NoError(t, s.Initialize("dbl", testParams()))
		recordAll(t, s, testStep(1, true), testStep(2, false))
		require.NoError(t, s.Close())
		before, err := afero.ReadFile(fs, s.Path())
		require.NoError(t, err)

		assert.True(t, errors.Is(s.Close(), ErrInvalidSequencing))
		assert.True(t, errors.Is(s.Record(testStep(5, true)), ErrInvalidSequencing))

		after, err := afero.ReadFile(fs, s.Path())
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Equal(t, int32(2), s.Metadata().EpisodeCount)

		_, err = Validate(fs, s.Path())
		assert.NoError(t, err)
	})
}

// faultyFS hands out files whose writes or seeks fail on demand.
type faultyFS struct {
	*AferoFS
	failWriteAfter int // writes allowed before failing, -1 for never
	failSeek       bool
}

type faultyFile struct {
	File
	fs     *faultyFS
	writes int
}

func (f *faultyFS) CreateFile(path string) (File, error) {
	file, err := f.AferoFS.CreateFile(path)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fs: f}, nil
}

func (f *faultyFile) Write(p []byte) (int, error) {
	if f.fs.failWriteAfter >= 0 && f.writes >= f.fs.failWriteAfter {
		return 0, errors.New("disk full")
	}
	f.writes++
	return f.File.Write(p)
}

func (f *faultyFile) Seek(offset int64, whence int) (int64, error) {
	if f.fs.failSeek {
		return 0, errors.New("not seekable")
	}
	return f.File.Seek(offset, whence)
}

func TestStoreSeekFailure(t *testing.T) {
	fs := &faultyFS{AferoFS: NewFileSystem(afero.NewMemMapFs()), failWriteAfter: -1, failSeek: true}
	s := New(fs, Config{})
	err := s.Initialize("seek", testParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSeek))
}

func TestStoreWriteFailureIsSticky(t *testing.T) {
	// Region and parameters take two writes; the third write is the first step.
	fs := &faultyFS{AferoFS: NewFileSystem(afero.NewMemMapFs()), failWriteAfter: 3}
	s := New(fs, Config{})
	require.NoError(t, s.Initialize("sticky", testParams()))
	require.NoError(t, s.Record(testStep(1, false)))

	err := s.Record(testStep(1, false))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrite))

	assert.Equal(t, err, s.Record(testStep(1, false)))
	assert.True(t, errors.Is(s.Close(), ErrWrite))
	assert.True(t, errors.Is(s.Close(), ErrInvalidSequencing))
}

func TestStoreCloseWriteFailure(t *testing.T) {
	fs := &faultyFS{AferoFS: NewFileSystem(afero.NewMemMapFs()), failWriteAfter: 3}
	s := New(fs, Config{})
	require.NoError(t, s.Initialize("patch", testParams()))
	require.NoError(t, s.Record(testStep(1, true)))

	err := s.Close()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrite))
	assert.Contains(t, err.Error(), "close")
}
