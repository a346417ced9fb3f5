// Package rev implements compressed reversible trails: append-only logs of
// (location, prior value) saves that can be replayed backwards to restore an
// earlier state of the program.
//
// A Trail partitions its saves into fixed-size blocks. The active block and
// the most recently completed one (the spare) live as raw cells in memory;
// every older completed block is handed to a pluggable Packer and retained as
// an opaque byte vector. The hot path (Save, RestoreTo within the active
// block) never touches the packer. Popping back across a boundary swaps the
// raw spare back in without unpacking; pushing across a boundary allocates a
// fresh active block. Save and restore are O(1) amortised.
//
// Three packers are provided:
//
//   - NoCompression — memcpy-equivalent, the default.
//   - Zlib          — DEFLATE via klauspost/compress, smallest blocks.
//   - Snappy        — fast block compression, a middle ground.
//
// Typical use, as the backing store of a backtracking search engine:
//
//	tr := rev.NewTrail[int64](rev.WithBlockSize(4096), rev.WithCompression(rev.Zlib))
//	mark := tr.Len()
//	tr.Save(&x) // before overwriting x
//	x = 7
//	tr.RestoreTo(mark) // x is back to its prior value
//
// Complexity:
//
//   - Save / RestoreTo: O(1) amortised; O(block-size) when a block boundary is
//     crossed (pack or unpack of one block).
//   - Memory: one raw block, one spare block, plus the packed history.
package rev
