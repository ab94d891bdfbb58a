package graph

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
)

// Hash is the structural identity of a node. Two nodes with equal hashes
// have identical fields, recursively through their input streams.
type Hash [sha256.Size]byte

// String returns a short hex prefix, enough to tell nodes apart in logs
func (h Hash) String() string {
	return hex.EncodeToString(h[:6])
}

// Hex returns the full hex digest
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// canonicalNaN makes every NaN hash alike so NaN options survive a round trip
const canonicalNaN = 0x7ff8000000000001

// hasher writes a length-prefixed canonical form of node fields. Child
// nodes contribute their cached hash, so hashing a node costs time
// proportional to its own fields only.
type hasher struct {
	h   hash.Hash
	buf [8]byte
}

func newHasher(kind Kind) *hasher {
	w := &hasher{h: sha256.New()}
	w.str(string(kind))
	return w
}

func (w *hasher) uint(v uint64) {
	binary.BigEndian.PutUint64(w.buf[:], v)
	w.h.Write(w.buf[:])
}

func (w *hasher) int(v int64) {
	w.uint(uint64(v))
}

func (w *hasher) str(s string) {
	w.uint(uint64(len(s)))
	w.h.Write([]byte(s))
}

func (w *hasher) value(v interface{}) {
	switch x := v.(type) {
	case string:
		w.h.Write([]byte{'s'})
		w.str(x)
	case bool:
		w.h.Write([]byte{'b'})
		if x {
			w.uint(1)
		} else {
			w.uint(0)
		}
	case int64:
		w.h.Write([]byte{'i'})
		w.int(x)
	case float64:
		w.h.Write([]byte{'f'})
		if math.IsNaN(x) {
			w.uint(canonicalNaN)
		} else {
			w.uint(math.Float64bits(x))
		}
	}
}

func (w *hasher) options(opts Options) {
	w.uint(uint64(len(opts)))
	for _, kv := range opts {
		w.str(kv.Key)
		w.value(kv.Value)
	}
}

func (w *hasher) strings(ss []string) {
	w.uint(uint64(len(ss)))
	for _, s := range ss {
		w.str(s)
	}
}

func (w *hasher) stream(s Stream) {
	h := s.node.Hash()
	w.h.Write(h[:])
	w.int(int64(s.index))
	w.str(string(s.selector))
}

func (w *hasher) streams(ss []Stream) {
	w.uint(uint64(len(ss)))
	for _, s := range ss {
		w.stream(s)
	}
}

func (w *hasher) typing(t Typing) {
	if t.Dynamic {
		w.int(-1)
		return
	}
	w.uint(uint64(len(t.Ports)))
	for _, p := range t.Ports {
		w.str(string(p))
	}
}

func (w *hasher) sum() Hash {
	var out Hash
	copy(out[:], w.h.Sum(nil))
	return out
}
