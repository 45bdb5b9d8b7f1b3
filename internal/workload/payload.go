package workload

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// NewPayload builds a payload of exactly size bytes from a murmur3 keystream.
// The content is deterministic for a given seed, so two runs of the same
// scenario write identical bytes, while avoiding the single-repeated-byte
// filler that understates real page write costs.
func NewPayload(size int, seed uint64) []byte {
	payload := make([]byte, size)
	var block [16]byte
	binary.LittleEndian.PutUint64(block[:8], seed)

	for off := 0; off < size; off += 8 {
		binary.LittleEndian.PutUint64(block[8:], uint64(off))
		h := murmur3.Sum64(block[:])

		var word [8]byte
		binary.LittleEndian.PutUint64(word[:], h)
		copy(payload[off:], word[:])
	}
	return payload
}
