package rowparser

import "sync"

// bufferPool holds scratch buffers used to merge pending bytes with a new
// chunk and to compact escaped quotes out of a cell before decoding.
var bufferPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 4096)
		return &b
	},
}

// maxPooledBuffer keeps one oversized row from pinning memory in the pool.
const maxPooledBuffer = 1 << 20

// getBuffer returns an empty buffer with at least n bytes of capacity.
func getBuffer(n int) []byte {
	p := bufferPool.Get().(*[]byte)
	buf := (*p)[:0]
	if cap(buf) < n {
		buf = make([]byte, 0, n)
	}
	return buf
}

// putBuffer returns buf to the pool unless it grew too large.
func putBuffer(buf []byte) {
	if cap(buf) > maxPooledBuffer {
		return
	}
	buf = buf[:0]
	bufferPool.Put(&buf)
}
