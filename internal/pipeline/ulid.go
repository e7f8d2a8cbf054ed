package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Batch ids are ULIDs: 48 bits of millisecond time then 80 bits of entropy,
// written as 26 Crockford base32 characters. Ids from one process sort in
// creation order.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var ids struct {
	sync.Mutex
	ms  uint64
	seq uint16
}

// NewID returns a new ULID.
func NewID() string {
	ids.Lock()
	ms := uint64(time.Now().UnixMilli())
	if ms <= ids.ms {
		// Same millisecond, or the clock stepped back.
		ms = ids.ms
		ids.seq++
	} else {
		ids.ms = ms
		ids.seq = 0
	}
	seq := ids.seq
	ids.Unlock()

	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], ms<<16)
	_, _ = rand.Read(b[8:])
	// The counter takes the first entropy bytes so ids within one
	// millisecond still increase.
	binary.BigEndian.PutUint16(b[6:8], seq)
	return encodeCrockford(b)
}

func encodeCrockford(b [16]byte) string {
	hi := binary.BigEndian.Uint64(b[:8])
	lo := binary.BigEndian.Uint64(b[8:])
	var out [26]byte
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
