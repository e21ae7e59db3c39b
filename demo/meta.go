package demo

import (
	"bytes"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// APIVersion is the demonstration metadata version written by this package.
const APIVersion = 1

const (
	// MetadataCapacity is the number of bytes reserved for the encoded metadata.
	MetadataCapacity = 32
	// FramingOverhead is the size of the metadata length prefix. A length of at
	// most MetadataCapacity always fits in a single varint byte.
	FramingOverhead = 1
	// ParametersOffset is the fixed file offset of the session parameters.
	ParametersOffset = MetadataCapacity + FramingOverhead
)

// Metadata summarises a recording session. MeanReward is only meaningful in
// the copy written on Close(); while recording it is zero.
type Metadata struct {
	APIVersion      int32
	Name            string
	ExperienceCount int32
	EpisodeCount    int32
	MeanReward      float32
}

const (
	metaFieldAPIVersion protowire.Number = 1
	metaFieldName       protowire.Number = 2
	metaFieldSteps      protowire.Number = 3
	metaFieldEpisodes   protowire.Number = 4
	metaFieldMeanReward protowire.Number = 5
)

// Marshal encodes m with the protobuf wire format.
func (m Metadata) Marshal() []byte {
	var b []byte
	b = appendInt32(b, metaFieldAPIVersion, m.APIVersion)
	b = appendString(b, metaFieldName, m.Name)
	b = appendInt32(b, metaFieldSteps, m.ExperienceCount)
	b = appendInt32(b, metaFieldEpisodes, m.EpisodeCount)
	b = appendFloat(b, metaFieldMeanReward, m.MeanReward)
	return b
}

// Unmarshal decodes b into m.
func (m *Metadata) Unmarshal(b []byte) error {
	*m = Metadata{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case metaFieldAPIVersion:
			return consumeInt32(typ, b, &m.APIVersion)
		case metaFieldName:
			return consumeString(typ, b, &m.Name)
		case metaFieldSteps:
			return consumeInt32(typ, b, &m.ExperienceCount)
		case metaFieldEpisodes:
			return consumeInt32(typ, b, &m.EpisodeCount)
		case metaFieldMeanReward:
			return consumeFloat(typ, b, &m.MeanReward)
		}
		return 0
	})
}

// region encodes m as the full reserved metadata region: the delimited
// message followed by zero padding up to ParametersOffset.
func (m Metadata) region() ([]byte, error) {
	body := m.Marshal()
	if len(body) > MetadataCapacity {
		return nil, fmt.Errorf("metadata is %d bytes, capacity is %d", len(body), MetadataCapacity)
	}
	var buf bytes.Buffer
	buf.Grow(ParametersOffset)
	if err := appendDelimited(&buf, body); err != nil {
		return nil, err
	}
	out := make([]byte, ParametersOffset)
	copy(out, buf.Bytes())
	return out, nil
}

// worstCase returns m with every counter at its largest encoded size.
func (m Metadata) worstCase() Metadata {
	m.ExperienceCount = math.MaxInt32
	m.EpisodeCount = math.MaxInt32
	m.MeanReward = math.MaxFloat32
	return m
}

// checkCapacity reports an error when m could outgrow the reserved region
// before the session is finalised.
func (m Metadata) checkCapacity() error {
	if n := len(m.worstCase().Marshal()); n > MetadataCapacity {
		return fmt.Errorf("metadata for %q may need %d bytes, capacity is %d", m.Name, n, MetadataCapacity)
	}
	return nil
}

// decodeRegion parses the reserved region at the start of a demonstration.
func decodeRegion(region []byte) (Metadata, error) {
	var m Metadata
	r := bytes.NewReader(region)
	body, err := readDelimited(r)
	if err != nil {
		return m, fmt.Errorf("read metadata: %w", err)
	}
	if len(body) > MetadataCapacity {
		return m, fmt.Errorf("metadata is %d bytes, capacity is %d", len(body), MetadataCapacity)
	}
	if err := m.Unmarshal(body); err != nil {
		return m, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}
