package idgen

import (
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULIDGeneratorProducesUniqueIDsConcurrently(t *testing.T) {
	gen := NewULIDGenerator()

	const workers, perWorker = 8, 250
	ids := make(chan string, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				ids <- gen.NewID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, workers*perWorker)
	for id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestULIDGeneratorIDsParse(t *testing.T) {
	id := NewULIDGenerator().NewID()

	_, err := ulid.Parse(id)
	assert.NoError(t, err)
	assert.Len(t, id, 26)
}
