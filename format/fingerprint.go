package format

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/outofforest/hashlife"
	"github.com/outofforest/photon"
)

// Digest is the fingerprint of the state.
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Fingerprint returns the digest of normalized state. States equal modulo offset have equal fingerprints.
func Fingerprint(s hashlife.CellState) Digest {
	h := blake3.New()
	for _, c := range hashlife.SortedCells(hashlife.Normalize(s)) {
		h.Write(photon.NewFromValue(&c).B)
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
