package nn

import (
	"sync"

	"github.com/lucid-ml/lucid/internal/tensor"
)

// ForwardHook observes a layer's output during Forward.
//
// Hooks receive the output tensor after the layer computes it and before it
// is returned to the caller. They must not modify the tensor.
type ForwardHook[B tensor.Backend] func(output *tensor.Tensor[float32, B])

// Observable is implemented by layers whose output can be captured with a
// forward hook. All leaf layers in this package implement it.
type Observable[B tensor.Backend] interface {
	// RegisterForwardHook attaches fn and returns a function that removes
	// it. The remove function is idempotent.
	RegisterForwardHook(fn ForwardHook[B]) (remove func())
}

// hookSet holds the registered forward hooks of a layer.
//
// Layers embed it by value and call fire at the end of Forward. The zero
// value is ready to use: a layer with no hooks registered pays one nil map
// check per Forward.
type hookSet[B tensor.Backend] struct {
	mu     sync.Mutex
	nextID int
	hooks  map[int]ForwardHook[B]
}

// RegisterForwardHook attaches fn and returns its remove function.
func (h *hookSet[B]) RegisterForwardHook(fn ForwardHook[B]) (remove func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.hooks == nil {
		h.hooks = make(map[int]ForwardHook[B])
	}
	id := h.nextID
	h.nextID++
	h.hooks[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.hooks, id)
		})
	}
}

// fire invokes all registered hooks with the layer output.
func (h *hookSet[B]) fire(output *tensor.Tensor[float32, B]) {
	h.mu.Lock()
	if len(h.hooks) == 0 {
		h.mu.Unlock()
		return
	}
	fns := make([]ForwardHook[B], 0, len(h.hooks))
	for _, fn := range h.hooks {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(output)
	}
}
