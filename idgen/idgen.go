// Copyright (c) 2023 BVK Chaitanya

package idgen

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"sync"

	"github.com/google/uuid"
)

// MaxClientOrderIDLen is the longest client order id accepted by the exchange.
const MaxClientOrderIDLen = 36

// Generator creates a deterministic sequence of uuids derived from a seed, so
// that a restarted job can regenerate the client order ids it used before.
type Generator struct {
	mu sync.Mutex

	base uuid.UUID

	next  uint64
	cache []uuid.UUID
}

func New(seed string, offset uint64) *Generator {
	base := uuid.UUID(md5.Sum([]byte(seed)))
	return &Generator{base: base, next: offset}
}

func (v *Generator) Offset() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.next
}

func (v *Generator) NextID() uuid.UUID {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.cache) == 0 || v.next%10 == 0 {
		v.cache = v.prepare(v.next/10*10, 10)
	}
	id := v.cache[v.next%10]
	v.next++
	return id
}

func (v *Generator) RevertID() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.next > 0 {
		v.next--
		v.cache = nil
	}
}

// NextClientOrderID returns the next id formatted as an exchange client order
// id with the given prefix. Result is truncated to MaxClientOrderIDLen bytes.
func (v *Generator) NextClientOrderID(prefix string) string {
	id := v.NextID()
	s := prefix + hex.EncodeToString(id[:])
	if len(s) > MaxClientOrderIDLen {
		s = s[:MaxClientOrderIDLen]
	}
	return s
}

func (v *Generator) prepare(from, n uint64) []uuid.UUID {
	var buf [16 + 8]byte
	copy(buf[:16], []byte(v.base[:]))

	ids := make([]uuid.UUID, 0, n)
	for i := uint64(0); i < n; i++ {
		binary.BigEndian.PutUint64(buf[16:], from+i)
		checksum := md5.Sum(buf[:])
		ids = append(ids, uuid.UUID(checksum))
	}
	return ids
}
