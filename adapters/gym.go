// Package adapters bridges gym-style environment loops to a demonstration
// recorder.
package adapters

import (
	"github.com/sirupsen/logrus"

	"github.com/reallyoldfogie/demo-recorder-go/demo"
	"github.com/reallyoldfogie/demo-recorder-go/demo/recorder"
)

// StepFunc is called once per environment step with the observation the agent
// acted on, the discrete action it took, and what the environment returned.
type StepFunc func(obs []float64, action int, reward float64, done bool) error

// DiscreteStepFunc returns a StepFunc that records each step through rec.
// obs is exposed to rec through sensor, which must be registered on rec.
func DiscreteStepFunc(rec *recorder.Recorder, sensor *recorder.VectorSensor) StepFunc {
	recordCount := 0
	return func(obs []float64, action int, reward float64, done bool) error {
		values := make([]float32, len(obs))
		for i, v := range obs {
			values[i] = float32(v)
		}
		if err := sensor.Set(values...); err != nil {
			return err
		}
		recordCount++
		if recordCount%100 == 0 {
			logrus.WithFields(logrus.Fields{
				"component": "adapters",
				"steps":     recordCount,
				"episodes":  rec.Metadata().EpisodeCount,
			}).Info("recorded steps")
		}
		return rec.Record(
			demo.AgentInfo{Reward: float32(reward), Done: done},
			demo.Action{VectorActions: []float32{float32(action)}},
		)
	}
}
