package zbuf

import (
	"github.com/bytedance/gopkg/lang/mcache"
)

// Ownership tags who is responsible for the backing memory of a Buffer.
type Ownership uint8

const (
	// Owned storage is allocated by the buffer and returned to the allocator on Release.
	Owned Ownership = iota
	// Borrowed storage belongs to the caller and is never freed by the buffer.
	Borrowed
)

func (o Ownership) String() string {
	switch o {
	case Owned:
		return "owned"
	case Borrowed:
		return "borrowed"
	default:
		return "unknown"
	}
}

// storage is a tagged handle over the bytes of a buffer.
// len(bytes) is the capacity; cap(bytes) may be larger when drawn from mcache.
type storage struct {
	bytes []byte
	own   Ownership
}

// allocStorage returns exactly n zeroed owned bytes.
func allocStorage(n int) storage {
	if n == 0 {
		return storage{own: Owned}
	}
	p := mcache.Malloc(n)
	clear(p)
	return storage{bytes: p, own: Owned}
}

func borrowStorage(p []byte) storage {
	return storage{bytes: p, own: Borrowed}
}

// free hands owned memory back to mcache.
func (s *storage) free() error {
	if s.own != Owned {
		return ErrInvalidOwnership
	}
	if s.bytes != nil {
		mcache.Free(s.bytes)
	}
	s.bytes = nil
	return nil
}

// detach drops the reference to borrowed memory without freeing it.
func (s *storage) detach() {
	s.bytes = nil
}
