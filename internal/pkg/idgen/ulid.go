// internal/pkg/idgen/ulid.go
package idgen

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator produces lexicographically sortable ids. The monotonic entropy
// source is guarded by a mutex so concurrent creates never collide, and ids are
// never derived from the collection size.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

func (g *ULIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}
