package vector

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// recordDTO is the persisted JSON shape of one chunk. The embedding is
// packed as little-endian float32 bytes, base64-encoded.
type recordDTO struct {
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Embedding string            `json:"embedding"`
}

type record struct {
	content   string
	metadata  map[string]string
	embedding []float32
}

func marshalRecord(content string, metadata map[string]string, embedding []float32) ([]byte, error) {
	return json.Marshal(recordDTO{
		Content:   content,
		Metadata:  metadata,
		Embedding: base64.StdEncoding.EncodeToString(packFloats(embedding)),
	})
}

func unmarshalRecord(data []byte) (record, error) {
	var dto recordDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return record{}, err
	}

	raw, err := base64.StdEncoding.DecodeString(dto.Embedding)
	if err != nil {
		return record{}, fmt.Errorf("decode embedding: %w", err)
	}
	embedding, err := unpackFloats(raw)
	if err != nil {
		return record{}, err
	}

	return record{content: dto.Content, metadata: dto.Metadata, embedding: embedding}, nil
}

func packFloats(vals []float32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func unpackFloats(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("embedding length %d is not a multiple of 4", len(raw))
	}
	vals := make([]float32, len(raw)/4)
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vals, nil
}
