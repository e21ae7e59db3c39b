package demo

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Compression identifies how an observation payload is encoded.
type Compression int32

const (
	CompressionNone Compression = 0
	CompressionPNG  Compression = 1
)

// Observation is one sensor's rendering of the environment for a single step.
// Exactly one of FloatData or CompressedData is expected to be set, depending
// on Compression.
type Observation struct {
	Shape          []int32
	Compression    Compression
	CompressedData []byte
	FloatData      []float32
}

const (
	obsFieldShape       protowire.Number = 1
	obsFieldCompression protowire.Number = 2
	obsFieldCompressed  protowire.Number = 3
	obsFieldFloatData   protowire.Number = 4

	floatDataFieldData protowire.Number = 1
)

func (o Observation) Marshal() []byte {
	var b []byte
	b = appendPackedInt32(b, obsFieldShape, o.Shape)
	b = appendInt32(b, obsFieldCompression, int32(o.Compression))
	b = appendBytes(b, obsFieldCompressed, o.CompressedData)
	if o.Compression == CompressionNone {
		b = appendMessage(b, obsFieldFloatData, appendPackedFloat(nil, floatDataFieldData, o.FloatData))
	}
	return b
}

func (o *Observation) Unmarshal(b []byte) error {
	*o = Observation{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case obsFieldShape:
			return consumeRepeatedInt32(typ, b, &o.Shape)
		case obsFieldCompression:
			var v int32
			n := consumeInt32(typ, b, &v)
			o.Compression = Compression(v)
			return n
		case obsFieldCompressed:
			return consumeBytes(typ, b, &o.CompressedData)
		case obsFieldFloatData:
			return consumeMessage(typ, b, func(msg []byte) error {
				return walkFields(msg, func(num protowire.Number, typ protowire.Type, b []byte) int {
					if num == floatDataFieldData {
						return consumeRepeatedFloat(typ, b, &o.FloatData)
					}
					return 0
				})
			})
		}
		return 0
	})
}

// AgentInfo is the agent-side half of a step: what it observed and what the
// environment returned.
type AgentInfo struct {
	ID             int32
	Reward         float32
	Done           bool
	MaxStepReached bool
	ActionMask     []bool
	Observations   []Observation
}

const (
	infoFieldReward       protowire.Number = 7
	infoFieldDone         protowire.Number = 8
	infoFieldMaxStep      protowire.Number = 9
	infoFieldID           protowire.Number = 10
	infoFieldActionMask   protowire.Number = 11
	infoFieldObservations protowire.Number = 13
)

func (a AgentInfo) Marshal() []byte {
	var b []byte
	b = appendFloat(b, infoFieldReward, a.Reward)
	b = appendBool(b, infoFieldDone, a.Done)
	b = appendBool(b, infoFieldMaxStep, a.MaxStepReached)
	b = appendInt32(b, infoFieldID, a.ID)
	b = appendPackedBool(b, infoFieldActionMask, a.ActionMask)
	for _, o := range a.Observations {
		b = appendMessage(b, infoFieldObservations, o.Marshal())
	}
	return b
}

func (a *AgentInfo) Unmarshal(b []byte) error {
	*a = AgentInfo{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case infoFieldReward:
			return consumeFloat(typ, b, &a.Reward)
		case infoFieldDone:
			return consumeBool(typ, b, &a.Done)
		case infoFieldMaxStep:
			return consumeBool(typ, b, &a.MaxStepReached)
		case infoFieldID:
			return consumeInt32(typ, b, &a.ID)
		case infoFieldActionMask:
			return consumeRepeatedBool(typ, b, &a.ActionMask)
		case infoFieldObservations:
			return consumeMessage(typ, b, func(msg []byte) error {
				var o Observation
				if err := o.Unmarshal(msg); err != nil {
					return err
				}
				a.Observations = append(a.Observations, o)
				return nil
			})
		}
		return 0
	})
}

// Action is the action taken in a step.
type Action struct {
	VectorActions []float32
	Value         float32
}

const (
	actionFieldVector protowire.Number = 1
	actionFieldValue  protowire.Number = 4
)

func (a Action) Marshal() []byte {
	var b []byte
	b = appendPackedFloat(b, actionFieldVector, a.VectorActions)
	b = appendFloat(b, actionFieldValue, a.Value)
	return b
}

func (a *Action) Unmarshal(b []byte) error {
	*a = Action{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case actionFieldVector:
			return consumeRepeatedFloat(typ, b, &a.VectorActions)
		case actionFieldValue:
			return consumeFloat(typ, b, &a.Value)
		}
		return 0
	})
}

// StepRecord is one recorded step: the agent info with its observations in
// sensor order, and the action taken.
type StepRecord struct {
	Info   AgentInfo
	Action Action
}

const (
	stepFieldInfo   protowire.Number = 1
	stepFieldAction protowire.Number = 2
)

// Reward is the reward received in this step.
func (s StepRecord) Reward() float32 { return s.Info.Reward }

// Terminal reports whether this step ends an episode.
func (s StepRecord) Terminal() bool { return s.Info.Done }

func (s StepRecord) Marshal() []byte {
	var b []byte
	b = appendMessage(b, stepFieldInfo, s.Info.Marshal())
	b = appendMessage(b, stepFieldAction, s.Action.Marshal())
	return b
}

func (s *StepRecord) Unmarshal(b []byte) error {
	*s = StepRecord{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case stepFieldInfo:
			return consumeMessage(typ, b, s.Info.Unmarshal)
		case stepFieldAction:
			return consumeMessage(typ, b, s.Action.Unmarshal)
		}
		return 0
	})
}
