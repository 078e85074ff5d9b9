package traffic

import (
	"hash/fnv"

	"github.com/iti/rngstream"
)

// Moduli of the two MRG components behind rngstream.
const (
	streamModulus1 = 4294967087
	streamModulus2 = 4294944443
)

// SeedStreams resets the package seed of rngstream to a value derived from
// seedName. Terminals built afterwards draw their streams in creation order,
// so two networks built from the same configuration see the same traffic.
func SeedStreams(seedName string) {
	seed := make([]uint64, 6)

	for i := range seed {
		h := fnv.New64a()
		h.Write([]byte(seedName))
		h.Write([]byte{byte(i)})

		modulus := uint64(streamModulus1)
		if i >= 3 {
			modulus = streamModulus2
		}

		seed[i] = h.Sum64()%(modulus-1) + 1
	}

	if !rngstream.SetPackageSeed(seed) {
		panic("invalid stream seed derived from " + seedName)
	}
}
