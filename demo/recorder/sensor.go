package recorder

import (
	"fmt"

	"github.com/reallyoldfogie/demo-recorder-go/demo"
)

// VectorSensor observes a flat float vector that the caller updates each step.
type VectorSensor struct {
	name string
	data []float32
}

// NewVectorSensor creates a sensor for vectors of the given size.
func NewVectorSensor(name string, size int) *VectorSensor {
	return &VectorSensor{name: name, data: make([]float32, size)}
}

func (v *VectorSensor) Name() string { return v.name }

// Set stores the observation for the next recorded step. len(values) must
// match the sensor size.
func (v *VectorSensor) Set(values ...float32) error {
	if len(values) != len(v.data) {
		return fmt.Errorf("sensor %s: got %d values, want %d", v.name, len(values), len(v.data))
	}
	copy(v.data, values)
	return nil
}

func (v *VectorSensor) Observation() (demo.Observation, error) {
	return demo.Observation{
		Shape:       []int32{int32(len(v.data))},
		Compression: demo.CompressionNone,
		FloatData:   append([]float32(nil), v.data...),
	}, nil
}

// FuncSensor adapts a function to the Sensor interface.
type FuncSensor struct {
	SensorName string
	Observe    func() (demo.Observation, error)
}

func (f FuncSensor) Name() string { return f.SensorName }

func (f FuncSensor) Observation() (demo.Observation, error) { return f.Observe() }
