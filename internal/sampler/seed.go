package sampler

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
)

const seedDomain = "synth/seed/v1"

// DeriveSeed returns the seed for one collection of a run. It depends
// only on the run seed and the collection name.
func DeriveSeed(seed uint64, collection string) uint64 {
	h := sha256.New()
	h.Write([]byte(seedDomain))
	h.Write([]byte{0})
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seed)
	h.Write(buf[:])
	h.Write([]byte(collection))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}

// NewRand returns the random source for one collection of a run.
func NewRand(seed uint64, collection string) *rand.Rand {
	derived := DeriveSeed(seed, collection)
	return rand.New(rand.NewPCG(derived, seed))
}
