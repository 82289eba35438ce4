package embedding

import (
	"context"
	"fmt"
	"sync"
)

// Factory builds an encoder. It runs at most once per Handle.
type Factory func(ctx context.Context) (Encoder, error)

// Handle owns the process-wide encoder. The encoder is built on first use and
// never replaced; Close releases it.
type Handle struct {
	factory Factory

	once sync.Once
	mu   sync.RWMutex
	enc  Encoder
	err  error
	done bool
}

// NewHandle returns a Handle that builds its encoder with factory on first Get.
func NewHandle(factory Factory) *Handle {
	return &Handle{factory: factory}
}

// Static returns a Handle around an already built encoder.
func Static(enc Encoder) *Handle {
	h := &Handle{}
	h.once.Do(func() { h.enc = enc })
	return h
}

// Get returns the shared encoder, building it if needed.
func (h *Handle) Get(ctx context.Context) (Encoder, error) {
	h.mu.RLock()
	closed := h.done
	h.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	h.once.Do(func() {
		enc, err := h.factory(ctx)
		h.mu.Lock()
		h.enc, h.err = enc, err
		h.mu.Unlock()
	})
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.done {
		return nil, ErrClosed
	}
	if h.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInit, h.err)
	}
	return h.enc, nil
}

// Encode is a shortcut for Get followed by Encode.
func (h *Handle) Encode(ctx context.Context, text string) ([]float64, error) {
	enc, err := h.Get(ctx)
	if err != nil {
		return nil, err
	}
	return enc.Encode(ctx, text)
}

// Close releases the encoder. Later Get calls fail with ErrClosed.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return nil
	}
	h.done = true
	if c, ok := h.enc.(Closer); ok {
		return c.Close()
	}
	return nil
}
