// Package memory keeps uploaded documents in process memory. It backs the
// memory driver and the upload tests.
package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"evictioncrm/internal/blob/core"
)

type object struct {
	meta core.Object
	data []byte
}

// Store implements core.Store over a guarded map.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	prefix  string
}

// New returns an empty store. Fetch URLs are rooted at urlPrefix, which
// defaults to "/files/".
func New(urlPrefix string) *Store {
	if urlPrefix == "" {
		urlPrefix = "/files/"
	}
	return &Store{objects: make(map[string]object), prefix: urlPrefix}
}

func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put stores a copy of r's bytes under key.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Object, error) {
	if key == "" {
		return core.Object{}, fmt.Errorf("empty key")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.Object{}, err
	}
	sum := md5.Sum(data)
	meta := core.Object{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(sum[:]),
		Metadata:     core.CloneMetadata(opts.Metadata),
		LastModified: time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.objects[key]; taken {
		return core.Object{}, fmt.Errorf("%w: %s", core.ErrExists, key)
	}
	s.objects[key] = object{meta: meta, data: data}
	return copyMeta(meta), nil
}

// Get returns the object and a reader over a private copy of its bytes.
func (s *Store) Get(_ context.Context, key string) (core.Object, io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return core.Object{}, nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return copyMeta(obj.meta), io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

// Delete reports whether key existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return false, nil
	}
	delete(s.objects, key)
	return true, nil
}

func (s *Store) URL(key string) string {
	return s.prefix + url.PathEscape(key)
}

// Len is the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func copyMeta(m core.Object) core.Object {
	m.Metadata = core.CloneMetadata(m.Metadata)
	return m
}
