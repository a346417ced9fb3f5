package rev

import "encoding/binary"

// Scalar is the set of value types a Trail can record.
type Scalar interface {
	~int64 | ~uint64
}

// cellBytes is the packed size of one saved value.
const cellBytes = 8

// block is a completed, packed run of saves. Locations stay as live pointers
// (they must survive for restore); only the value stream is packed.
type block[T Scalar] struct {
	locs   []*T
	packed []byte
}

// Trail records (location, prior value) saves for one scalar type and can
// replay them backwards. The zero value is not usable; call NewTrail.
type Trail[T Scalar] struct {
	packer    Packer
	blockSize int

	blocks []block[T] // completed blocks, oldest first

	// Active block. locs/vals always have blockSize capacity and length.
	locs []*T
	vals []T

	// Spare block: the most recently completed block, kept raw so a pop just
	// past a boundary does not pay an unpack.
	spareLocs []*T
	spareVals []T
	spareUsed bool

	scratch []byte // encode buffer, blockSize*cellBytes

	current int // next free slot in the active block
	size    int // total number of live saves
}

// NewTrail builds an empty trail for one scalar type.
func NewTrail[T Scalar](opts ...Option) *Trail[T] {
	o := gatherOptions(opts)

	return &Trail[T]{
		packer:    newPacker(o.Compression),
		blockSize: o.BlockSize,
		locs:      make([]*T, o.BlockSize),
		vals:      make([]T, o.BlockSize),
		scratch:   make([]byte, o.BlockSize*cellBytes),
	}
}

// Len returns the number of live saves.
func (t *Trail[T]) Len() int { return t.size }

// Save records the current value behind loc. Call it before overwriting.
// Saving the same location twice under one marker is permitted: the later
// saves restore the intermediate values in LIFO order, which composes back to
// the earliest one.
func (t *Trail[T]) Save(loc *T) { t.PushBack(loc, *loc) }

// PushBack appends an explicit (location, value) cell.
func (t *Trail[T]) PushBack(loc *T, val T) {
	if t.current >= t.blockSize {
		if t.spareUsed {
			// Pack the spare, which is the oldest raw block.
			t.blocks = append(t.blocks, block[T]{
				locs:   t.spareLocs,
				packed: t.packer.Pack(t.encode(t.spareVals)),
			})
			t.spareLocs, t.spareVals = nil, nil
		}
		// The freshly completed active block becomes the spare.
		t.spareLocs, t.spareVals = t.locs, t.vals
		t.spareUsed = true
		t.locs = make([]*T, t.blockSize)
		t.vals = make([]T, t.blockSize)
		t.current = 0
	}
	t.locs[t.current] = loc
	t.vals[t.current] = val
	t.current++
	t.size++
}

// Back returns the most recent cell without removing it.
// Panics on an empty trail (programmer error).
func (t *Trail[T]) Back() (*T, T) {
	if t.current <= 0 {
		panic("rev: Back on empty trail block")
	}

	return t.locs[t.current-1], t.vals[t.current-1]
}

// PopBack discards the most recent cell, unpacking across a block boundary
// when needed.
func (t *Trail[T]) PopBack() {
	if t.size == 0 {
		return
	}
	t.current--
	if t.current <= 0 && t.size > 1 {
		if t.spareUsed {
			// Swap back: the spare becomes active again, raw and ready.
			t.locs, t.spareLocs = t.spareLocs, t.locs
			t.vals, t.spareVals = t.spareVals, t.vals
			t.spareUsed = false
			t.current = t.blockSize
		} else if n := len(t.blocks); n > 0 {
			top := t.blocks[n-1]
			t.blocks = t.blocks[:n-1]
			copy(t.locs, top.locs)
			if err := t.packer.Unpack(top.packed, t.scratch); err != nil {
				panic(err) // invariant violation: the trail packed this block
			}
			t.decode(t.scratch, t.vals)
			t.current = t.blockSize
		}
	}
	t.size--
}

// RestoreTo replays saves backwards, writing each recorded value to its
// location, until only mark saves remain. mark must be a previous Len value.
func (t *Trail[T]) RestoreTo(mark int) {
	for t.size > mark {
		loc, val := t.Back()
		*loc = val
		t.PopBack()
	}
}

func (t *Trail[T]) encode(vals []T) []byte {
	for i, v := range vals {
		binary.LittleEndian.PutUint64(t.scratch[i*cellBytes:], uint64(v))
	}

	return t.scratch[:len(vals)*cellBytes]
}

func (t *Trail[T]) decode(raw []byte, into []T) {
	for i := range into {
		into[i] = T(binary.LittleEndian.Uint64(raw[i*cellBytes:]))
	}
}
