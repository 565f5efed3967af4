package util

import (
	"bufio"
	"io"
	"sync"
)

// DefaultBufSize is the size of pooled write buffers.  Request headers
// and typical collector batches fit in one buffer.
const DefaultBufSize = 4 * 1024

var writerPool sync.Pool

// GetWriter returns a buffered writer on w from the pool.  Callers must
// return it with [PutWriter] once flushed.
func GetWriter(w io.Writer) *bufio.Writer {
	if bw, ok := writerPool.Get().(*bufio.Writer); ok {
		bw.Reset(w)
		return bw
	}
	return bufio.NewWriterSize(w, DefaultBufSize)
}

// PutWriter returns bw to the pool.  The writer is detached from its
// destination first.
func PutWriter(bw *bufio.Writer) {
	if bw == nil {
		return
	}
	bw.Reset(nil)
	writerPool.Put(bw)
}
