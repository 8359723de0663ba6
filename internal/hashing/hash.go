// Package hashing implements the sketch's two-level hash scheme: a strong,
// seedable partition hash that fixes an item's identity across the
// sketch's lifetime, and a family of pairwise-independent linear hashes
// that place that identity on each row's ring.
package hashing

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// PartitionHash returns the sketch-wide hash of x under seed. It is the
// item's ring identity: stable across Expand, Shrink, Merge and Split,
// independent of row.
func PartitionHash(x uint64, seed uint32) uint64 {
	var buf [12]byte
	binary.LittleEndian.PutUint64(buf[0:8], x)
	binary.LittleEndian.PutUint32(buf[8:12], seed)
	return xxh3.Hash(buf[:])
}

// PlacementParams derives the pairwise-independent linear hash parameters
// (a, b) for a row from its seed. a is forced odd so that x -> a*x+b is a
// bijection mod 2^64.
func PlacementParams(rowSeed uint32) (a, b uint64) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], rowSeed)
	a = xxh3.HashSeed(buf[:], uint64(rowSeed)) | 1
	b = xxh3.HashSeed(buf[:], uint64(rowSeed)^0x9e3779b97f4a7c15)
	return a, b
}

// PlacementHash computes row i's placement of a partition hash value:
// a*p + b (mod 2^64), using wrapping arithmetic.
func PlacementHash(a, b, p uint64) uint64 {
	return a*p + b
}
