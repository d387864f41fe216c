// Package permute produces the keyed pixel-traversal order: a Fisher-Yates
// shuffle of [0, n) seeded from the passphrase. Embed and extract MUST
// derive the identical seed and run the identical shuffle, or decoding is
// impossible — spec.md §4.E / §9 "Compatibility risk".
//
// The PRNG is Go's stdlib math/rand, the same family the teacher's own
// deterministicStartIndex uses for keyed positions (sha256-derived seed
// fed to rand.NewSource). This implementation's published wire contract:
// seed = first 8 bytes of SHA-256(passphrase), big-endian unsigned, fed
// to math/rand's default source, consumed by a standard Fisher-Yates.
package permute

import (
	"crypto/sha256"
	"encoding/binary"
	"log"
	"math/rand"
)

// Seed derives the PRNG seed from passphrase: the first 8 bytes of
// SHA-256(passphrase), interpreted big-endian unsigned.
func Seed(passphrase string) uint64 {
	h := sha256.Sum256([]byte(passphrase))
	return binary.BigEndian.Uint64(h[:8])
}

// Order returns a permutation of [0, n) deterministic in passphrase and
// n: embed and extract calling Order with the same arguments get the
// same traversal order.
func Order(passphrase string, n int) []int {
	seed := Seed(passphrase)
	r := rand.New(rand.NewSource(int64(seed)))

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// Standard Fisher-Yates, iterating from the end.
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	log.Printf("[DEBUG] permute.Order: n=%d seed=%d", n, seed)
	return order
}
