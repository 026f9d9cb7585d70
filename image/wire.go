package image

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical options for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalChunk serializes a Chunk to canonical CBOR bytes.
func MarshalChunk(c *Chunk) ([]byte, error) {
	return cborEncMode.Marshal(c)
}

// UnmarshalChunk deserializes a Chunk from CBOR bytes.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	var c Chunk
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("image: unmarshal chunk: %w", err)
	}
	return &c, nil
}

// ChunkHash returns the content hash of a chunk: a digest over its canonical
// encoding.
func ChunkHash(c *Chunk) ([32]byte, error) {
	data, err := MarshalChunk(c)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}
