package memtable

import "sync"

// digestBufPool holds scratch buffers for Checksum and index digests.
var digestBufPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 1024)
	},
}

func acquireDigestBuf() []byte {
	return digestBufPool.Get().([]byte)
}

func releaseDigestBuf(b []byte) {
	digestBufPool.Put(b[:0])
}
