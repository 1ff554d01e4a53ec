package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/JaimeStill/slate/pkg/lifecycle"
)

type object struct {
	data        []byte
	contentType string
}

// Memory is a System that keeps blobs in process memory.
// It backs local runs and handler tests; contents do not survive restarts.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]object
	logger  *slog.Logger
}

// NewMemory creates an empty in-memory store.
func NewMemory(logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Memory{
		objects: make(map[string]object),
		logger:  logger.With("system", "storage", "provider", ProviderMemory),
	}
}

func (m *Memory) Start(lc *lifecycle.Coordinator) error {
	m.logger.Info("starting storage system")
	return nil
}

// Ready always reports true.
func (m *Memory) Ready() bool {
	return true
}

func (m *Memory) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}

	m.mu.Lock()
	m.objects[key] = object{data: data, contentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(m.objects, key)
	return nil
}

func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

// ContentType returns the content type recorded for key.
func (m *Memory) ContentType(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj.contentType, ok
}
