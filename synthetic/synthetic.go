// Package synthetic generates synthetic streams of uint64 item identifiers
// for driving a Sketch without a real trace file. It is the in-process
// counterpart to package traces, which replays recorded traces instead.
package synthetic

// Source produces a stream of item identifiers.
type Source interface {
	Next() uint64
}
