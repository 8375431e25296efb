// Package pool provides pooled growable byte buffers used to amortize
// allocations while encoding row frames and whole table buffers.
//
// Adapted from mebo's internal/pool package: same ByteBuffer/ByteBufferPool
// types and amortized growth strategy, retargeted from metric blob buffers
// to pbtable's two natural buffer sizes — one row at a time, and one whole
// encoded table.
package pool

import "sync"

// Default and max-retained sizes for the two buffer pools below. A row
// buffer holds one row message at a time, so it stays small; a table
// buffer accumulates the whole encoded output and is allowed to grow much
// larger before Put starts discarding it.
const (
	RowBufferDefaultSize    = 1024 * 1         // 1KiB
	RowBufferMaxThreshold   = 1024 * 64        // 64KiB
	TableBufferDefaultSize  = 1024 * 16        // 16KiB
	TableBufferMaxThreshold = 1024 * 1024 * 4  // 4MiB
)

// ByteBuffer is a growable byte buffer meant to be reused across Encode
// calls via a ByteBufferPool.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a ByteBuffer with the given initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the underlying slice. The caller must not retain it past
// the next call to MustWrite, Grow, or Reset.
func (bb *ByteBuffer) Bytes() []byte { return bb.B }

// Reset empties the buffer while retaining its allocated capacity.
func (bb *ByteBuffer) Reset() { bb.B = bb.B[:0] }

// Len reports the number of bytes currently held.
func (bb *ByteBuffer) Len() int { return len(bb.B) }

// Cap reports the buffer's current capacity.
func (bb *ByteBuffer) Cap() int { return cap(bb.B) }

// MustWrite appends data, growing the buffer first if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.Grow(len(data))
	bb.B = append(bb.B, data...)
}

// Grow ensures the buffer can accept requiredBytes more bytes without a
// further reallocation.
//
// Growth strategy: buffers with a capacity of at most 4x
// RowBufferDefaultSize grow by RowBufferDefaultSize at a time; larger
// buffers grow by 25% of current capacity, to balance reallocation cost
// against memory use. The step does not depend on the size the buffer was
// created with.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := RowBufferDefaultSize
	if cap(bb.B) > 4*RowBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write implements io.Writer, appending data and growing as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.MustWrite(data)
	return len(data), nil
}

// ByteBufferPool is a sync.Pool of ByteBuffers, with an optional ceiling on
// the capacity of buffers it will retain.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool whose buffers start at defaultSize.
// Buffers grown past maxThreshold are discarded on Put instead of
// retained (0 means no limit).
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any { return NewByteBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool, allocating one if empty.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns bb to the pool for reuse, unless it has grown past
// maxThreshold, in which case it is discarded to bound memory use.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if p.maxThreshold > 0 && cap(bb.B) > p.maxThreshold {
		return
	}

	bb.Reset()
	p.pool.Put(bb)
}

var (
	rowDefaultPool   = NewByteBufferPool(RowBufferDefaultSize, RowBufferMaxThreshold)
	tableDefaultPool = NewByteBufferPool(TableBufferDefaultSize, TableBufferMaxThreshold)
)

// GetRowBuffer retrieves a ByteBuffer from the default per-row pool, sized
// for building one encoded Row message at a time.
func GetRowBuffer() *ByteBuffer { return rowDefaultPool.Get() }

// PutRowBuffer returns bb to the default per-row pool.
func PutRowBuffer(bb *ByteBuffer) { rowDefaultPool.Put(bb) }

// GetTableBuffer retrieves a ByteBuffer from the default whole-table pool,
// sized for accumulating an entire encoded buffer (header + every row).
func GetTableBuffer() *ByteBuffer { return tableDefaultPool.Get() }

// PutTableBuffer returns bb to the default whole-table pool.
func PutTableBuffer(bb *ByteBuffer) { tableDefaultPool.Put(bb) }
