// Package nanoid generates short random identifiers for connection scopes.
package nanoid

import (
	"crypto/rand"
	"sync"
)

// URL-safe alphabet of 64 characters, so one random byte masked with 63
// picks a character without bias.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-_"

const (
	// DefaultSize is the length of IDs returned by New.
	DefaultSize = 21

	poolBufSize = 4096
)

// randomBuffer holds pre-fetched random bytes so most IDs cost no syscall.
type randomBuffer struct {
	data [poolBufSize]byte
	next int
}

var bufferPool = sync.Pool{
	New: func() any {
		buf := &randomBuffer{}
		buf.refill()
		return buf
	},
}

func (b *randomBuffer) refill() {
	if _, err := rand.Read(b.data[:]); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	b.next = 0
}

// New generates a cryptographically secure DefaultSize-character ID.
func New() string {
	return NewSize(DefaultSize)
}

// NewSize generates an ID of size characters. size must be between 1 and
// 4096.
func NewSize(size int) string {
	if size <= 0 || size > poolBufSize {
		panic("nanoid: size out of range")
	}

	buf := bufferPool.Get().(*randomBuffer)
	if buf.next+size > poolBufSize {
		buf.refill()
	}

	result := make([]byte, size)
	for i, b := range buf.data[buf.next : buf.next+size] {
		result[i] = alphabet[b&63]
	}
	buf.next += size

	bufferPool.Put(buf)
	return string(result)
}
