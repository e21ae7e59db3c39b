package demo

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// SpaceType is the kind of action space an agent acts in.
type SpaceType int32

const (
	SpaceDiscrete   SpaceType = 0
	SpaceContinuous SpaceType = 1
)

func (t SpaceType) String() string {
	switch t {
	case SpaceDiscrete:
		return "discrete"
	case SpaceContinuous:
		return "continuous"
	}
	return fmt.Sprintf("space(%d)", int32(t))
}

// MarshalText lets SpaceType appear as "discrete"/"continuous" in YAML.
func (t SpaceType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *SpaceType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "discrete", "":
		*t = SpaceDiscrete
	case "continuous":
		*t = SpaceContinuous
	default:
		return fmt.Errorf("unknown action space type %q", b)
	}
	return nil
}

// Parameters describes the observation and action space of the recorded agent
// and the brain it belongs to. It is written once, at ParametersOffset.
type Parameters struct {
	BrainName                    string    `yaml:"brain_name"`
	VectorObservationSize        int32     `yaml:"vector_observation_size"`
	NumStackedVectorObservations int32     `yaml:"num_stacked_vector_observations"`
	VectorActionSize             []int32   `yaml:"vector_action_size"`
	VectorActionDescriptions     []string  `yaml:"vector_action_descriptions"`
	VectorActionSpaceType        SpaceType `yaml:"vector_action_space_type"`
	IsTraining                   bool      `yaml:"is_training"`
}

const (
	paramFieldObservationSize protowire.Number = 1
	paramFieldNumStacked      protowire.Number = 2
	paramFieldActionSize      protowire.Number = 3
	paramFieldDescriptions    protowire.Number = 5
	paramFieldSpaceType       protowire.Number = 6
	paramFieldBrainName       protowire.Number = 7
	paramFieldIsTraining      protowire.Number = 8
)

// Marshal encodes p with the protobuf wire format.
func (p Parameters) Marshal() []byte {
	var b []byte
	b = appendInt32(b, paramFieldObservationSize, p.VectorObservationSize)
	b = appendInt32(b, paramFieldNumStacked, p.NumStackedVectorObservations)
	b = appendPackedInt32(b, paramFieldActionSize, p.VectorActionSize)
	for _, d := range p.VectorActionDescriptions {
		b = protowire.AppendTag(b, paramFieldDescriptions, protowire.BytesType)
		b = protowire.AppendString(b, d)
	}
	b = appendInt32(b, paramFieldSpaceType, int32(p.VectorActionSpaceType))
	b = appendString(b, paramFieldBrainName, p.BrainName)
	b = appendBool(b, paramFieldIsTraining, p.IsTraining)
	return b
}

// Unmarshal decodes b into p.
func (p *Parameters) Unmarshal(b []byte) error {
	*p = Parameters{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case paramFieldObservationSize:
			return consumeInt32(typ, b, &p.VectorObservationSize)
		case paramFieldNumStacked:
			return consumeInt32(typ, b, &p.NumStackedVectorObservations)
		case paramFieldActionSize:
			return consumeRepeatedInt32(typ, b, &p.VectorActionSize)
		case paramFieldDescriptions:
			var s string
			n := consumeString(typ, b, &s)
			if n > 0 {
				p.VectorActionDescriptions = append(p.VectorActionDescriptions, s)
			}
			return n
		case paramFieldSpaceType:
			var v int32
			n := consumeInt32(typ, b, &v)
			p.VectorActionSpaceType = SpaceType(v)
			return n
		case paramFieldBrainName:
			return consumeString(typ, b, &p.BrainName)
		case paramFieldIsTraining:
			return consumeBool(typ, b, &p.IsTraining)
		}
		return 0
	})
}
