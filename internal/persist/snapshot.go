// Package persist keeps the study state in memory and writes it behind to
// SQLite once edits go quiet.
package persist

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/conorfennell/knolstudy/internal/session"
)

// Codec turns session snapshots into compressed blobs and back.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewCodec() (*Codec, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Codec{encoder: encoder, decoder: decoder}, nil
}

// Encode serialises s as compressed JSON.
func (c *Codec) Encode(s *session.State) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session %s: %w", s.ID, err)
	}
	return c.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// Decode reverses Encode. The result is not normalised.
func (c *Codec) Decode(blob []byte) (*session.State, error) {
	raw, err := c.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress session snapshot: %w", err)
	}
	var s session.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session snapshot: %w", err)
	}
	return &s, nil
}
