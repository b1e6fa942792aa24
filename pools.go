package flatdoc

import "sync"

const (
	encodeBufSize  = 65536
	encodeFlushAt  = encodeBufSize - 4096
	maxPooledBytes = 1 << 20
)

var encodeBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, encodeBufSize)
	},
}

var valueBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 65536)
	},
}

func releaseEncodeBytes(b []byte) {
	if cap(b) <= maxPooledBytes {
		encodeBytesPool.Put(b[:0])
	}
}

func releaseValueBytes(b []byte) {
	if cap(b) <= maxPooledBytes {
		valueBytesPool.Put(b[:0])
	}
}
