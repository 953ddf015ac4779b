package knowledge

import (
	"sync"
)

// Engine holds the current index behind a lock so a corpus reload is
// an atomic swap under concurrent readers.
type Engine struct {
	mu    sync.RWMutex
	index *Index
}

func NewEngine(records []Record) *Engine {
	return &Engine{index: BuildIndex(records)}
}

// Reload replaces the whole corpus at once.
func (e *Engine) Reload(records []Record) {
	ix := BuildIndex(records)
	e.mu.Lock()
	e.index = ix
	e.mu.Unlock()
}

// Query proxies to the current index.
func (e *Engine) Query(text string) []Match {
	e.mu.RLock()
	ix := e.index
	e.mu.RUnlock()
	return ix.Query(text)
}

func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.Len()
}
