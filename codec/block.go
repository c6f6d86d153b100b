package codec

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/veltra/chronofile/bitstream"
	"github.com/veltra/chronofile/errs"
	"github.com/veltra/chronofile/internal/scratch"
)

// Encoder packs a sequence of items into one or more blocks, each shaped
// [uvarint itemCount][member-interleaved field bytes]. A block closes as
// soon as the next item wouldn't fit; the field's delta state resets at
// every block boundary so each block decodes independently.
type Encoder[T any] struct {
	root      Field[T]
	blockSize int
}

// NewEncoder builds an Encoder that packs items through root, targeting
// blocks of at most blockSize bytes (including the item-count header).
func NewEncoder[T any](root Field[T], blockSize int) *Encoder[T] {
	return &Encoder[T]{root: root, blockSize: blockSize}
}

// EncodeAll packs items into as many blocks as needed and returns them in
// order. It fails, reporting errs.ErrCodecPrecisionLoss, without
// returning any blocks at all if a single item can never be represented
// regardless of which block it starts.
func (e *Encoder[T]) EncodeAll(items []T) ([][]byte, error) {
	var blocks [][]byte

	for i := 0; i < len(items); {
		e.root.Reset()

		block, consumed, err := e.encodeBlock(items[i:])
		if err != nil {
			return nil, err
		}

		if consumed == 0 {
			return nil, fmt.Errorf("%w: block size %d cannot hold a single item", errs.ErrCodecBlockFull, e.blockSize)
		}

		blocks = append(blocks, block)
		i += consumed
	}

	return blocks, nil
}

func (e *Encoder[T]) encodeBlock(items []T) ([]byte, int, error) {
	headerRoom := binary.MaxVarintLen64
	if e.blockSize <= headerRoom {
		return nil, 0, errs.ErrCodecBlockFull
	}

	areaSize := e.blockSize - headerRoom

	scratchBuf := scratch.GetBlockBuffer()
	defer scratch.PutBlockBuffer(scratchBuf)

	scratchBuf.Reset()
	scratchBuf.Grow(areaSize)
	itemArea := scratchBuf.B[:areaSize]
	// bitstream.Writer ORs bits into its block, so a reused pooled area
	// must start zeroed.
	clear(itemArea)

	w := bitstream.NewWriter(itemArea)

	consumed := 0
	for _, item := range items {
		bs, err := e.root.Encode(item)
		if err != nil {
			return nil, 0, err
		}

		if len(bs) > w.Remaining() {
			break
		}

		if err := w.WriteBytes(bs); err != nil {
			return nil, 0, err
		}

		e.root.Advance(item)
		consumed++
	}

	used := w.FinishBlock()

	out := make([]byte, 0, binary.MaxVarintLen64+used)
	out = binary.AppendUvarint(out, uint64(consumed))
	out = append(out, itemArea[:used]...)

	return out, consumed, nil
}

// Decoder unpacks blocks written by an Encoder using the same Field
// shape. Its Field must be freshly Reset (or freshly built) before
// decoding the first block of a sequence.
type Decoder[T any] struct {
	root Field[T]
}

// NewDecoder builds a Decoder that unpacks blocks through root.
func NewDecoder[T any](root Field[T]) *Decoder[T] {
	return &Decoder[T]{root: root}
}

// DecodeBlock unpacks a single block, resetting the field's delta state
// first so the block decodes independently of whatever came before.
func (d *Decoder[T]) DecodeBlock(block []byte) ([]T, error) {
	count, n := binary.Uvarint(block)
	if n <= 0 {
		return nil, fmt.Errorf("%w: malformed block item count", errs.ErrInvalidHeader)
	}

	d.root.Reset()

	r := bitstream.NewReader(block[n:])
	items := make([]T, count)
	for i := range items {
		if err := d.root.Decode(r, &items[i]); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// All lazily decodes blocks in order, yielding one item at a time and
// stopping early if a block fails to decode.
func (d *Decoder[T]) All(blocks [][]byte) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, block := range blocks {
			items, err := d.DecodeBlock(block)
			if err != nil {
				return
			}

			for _, item := range items {
				if !yield(item) {
					return
				}
			}
		}
	}
}
