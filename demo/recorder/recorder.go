// Package recorder feeds agent steps into a demo.Store. It collects the
// observations of every registered sensor, in registration order, and writes
// them together with the agent info and action as one step record.
package recorder

import (
	"fmt"

	"github.com/reallyoldfogie/demo-recorder-go/demo"
)

// Sensor renders the current observation of one input of the agent.
type Sensor interface {
	Name() string
	Observation() (demo.Observation, error)
}

// Recorder pairs a demo.Store with the sensors whose observations go into each
// recorded step. Like the Store, it is meant to be driven from one goroutine.
type Recorder struct {
	store   *demo.Store
	sensors []Sensor
}

// New creates a Recorder writing to store. Sensor order is the order in which
// observations appear in every step.
func New(store *demo.Store, sensors ...Sensor) *Recorder {
	return &Recorder{store: store, sensors: sensors}
}

// Start initializes the underlying store.
func Start(fs demo.FileSystem, cfg demo.Config, name string, params demo.Parameters, sensors ...Sensor) (*Recorder, error) {
	s := demo.New(fs, cfg)
	if err := s.Initialize(name, params); err != nil {
		return nil, err
	}
	return New(s, sensors...), nil
}

// AddSensor registers another sensor after the existing ones.
func (r *Recorder) AddSensor(s Sensor) {
	r.sensors = append(r.sensors, s)
}

// Sensors returns the registered sensors in observation order.
func (r *Recorder) Sensors() []Sensor {
	return append([]Sensor(nil), r.sensors...)
}

// Record writes one step. Observations already present in info are replaced
// by the sensors' current observations. A sensor error aborts the step before
// anything is written.
func (r *Recorder) Record(info demo.AgentInfo, action demo.Action) error {
	obs := make([]demo.Observation, 0, len(r.sensors))
	for _, s := range r.sensors {
		o, err := s.Observation()
		if err != nil {
			return fmt.Errorf("sensor %s: %w", s.Name(), err)
		}
		obs = append(obs, o)
	}
	info.Observations = obs
	return r.store.Record(demo.StepRecord{Info: info, Action: action})
}

// Path returns the demonstration file being written.
func (r *Recorder) Path() string { return r.store.Path() }

// Metadata returns the running statistics of the underlying store.
func (r *Recorder) Metadata() demo.Metadata { return r.store.Metadata() }

// Close finalizes the demonstration.
func (r *Recorder) Close() error {
	return r.store.Close()
}
