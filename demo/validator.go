package demo

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Summary is what validation learned about a demonstration.
type Summary struct {
	Path       string
	Size       int64
	Metadata   Metadata
	Parameters Parameters
	Steps      int
	Terminals  int
	Reward     float64 // sum of step rewards
}

// ValidateFile performs comprehensive validation of a demonstration file.
// It checks the metadata region, the parameter block, every step record and
// the finalised statistics.
func ValidateFile(path string) error {
	_, err := validate(afero.NewOsFs(), path, logrus.WithField("component", "demo"))
	return err
}

// ValidateFileQuiet is like ValidateFile but emits no log output.
func ValidateFileQuiet(path string) error {
	_, err := validate(afero.NewOsFs(), path, quietLogger())
	return err
}

// Validate checks the demonstration at path on fs and returns its summary.
// Warnings are not logged.
func Validate(fs afero.Fs, path string) (Summary, error) {
	return validate(fs, path, quietLogger())
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func validate(fs afero.Fs, path string, log logrus.FieldLogger) (Summary, error) {
	sum := Summary{Path: path}
	log = log.WithField("path", path)

	info, err := fs.Stat(path)
	if err != nil {
		return sum, fmt.Errorf("demonstration file not found: %w", err)
	}
	sum.Size = info.Size()
	if sum.Size < ParametersOffset {
		return sum, newError(KindCorrupt, "validate", path,
			fmt.Errorf("file is %d bytes, shorter than the metadata region", sum.Size))
	}

	fr, err := Open(fs, path)
	if err != nil {
		return sum, err
	}
	defer fr.Close()
	sum.Metadata, sum.Parameters = fr.Metadata, fr.Parameters

	for {
		step, err := fr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, withOp(err, "validate", path)
		}
		sum.Steps++
		sum.Reward += float64(step.Reward())
		if step.Terminal() {
			sum.Terminals++
		}
	}

	meta := sum.Metadata
	if meta.EpisodeCount == 0 {
		return sum, newError(KindCorrupt, "validate", path, errors.New("metadata was never finalized"))
	}
	if int(meta.ExperienceCount) != sum.Steps {
		return sum, newError(KindCorrupt, "validate", path,
			fmt.Errorf("metadata counts %d steps, file holds %d", meta.ExperienceCount, sum.Steps))
	}

	if meta.APIVersion != APIVersion {
		log.Warnf("unexpected api version %d", meta.APIVersion)
	}
	if sum.Steps == 0 {
		log.Warn("demonstration has no steps")
	}
	if e := int(meta.EpisodeCount); e != sum.Terminals && e != sum.Terminals+1 {
		log.Warnf("metadata counts %d episodes for %d terminal steps", e, sum.Terminals)
	}
	mean := sum.Reward / float64(meta.EpisodeCount)
	if math.Abs(mean-float64(meta.MeanReward)) > 1e-3*math.Max(1, math.Abs(mean)) {
		log.Warnf("mean reward %g does not match recomputed %g", meta.MeanReward, mean)
	}
	if sum.Parameters.BrainName == "" {
		log.Warn("parameters carry no brain name")
	}

	log.WithFields(logrus.Fields{
		"name":     meta.Name,
		"brain":    sum.Parameters.BrainName,
		"steps":    sum.Steps,
		"episodes": meta.EpisodeCount,
		"bytes":    sum.Size,
	}).Info("validated demonstration")
	return sum, nil
}
