// Package fs stores uploaded documents under a local directory. Each object is
// a data file plus a JSON sidecar (`<name>.meta`) holding content type, user
// metadata and a sha256 etag.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"evictioncrm/internal/blob/core"
)

const (
	// DefaultRoot is used when no directory is configured.
	DefaultRoot = "./blobdata"
	metaSuffix  = ".meta"
)

// Store implements core.Store on the local filesystem. Writers of distinct
// keys may run concurrently; creation of a single key is first-writer-wins.
type Store struct {
	root   string
	prefix string
}

// New returns a store rooted at root (created if missing). Fetch URLs are
// rooted at urlPrefix, which defaults to "/files/".
func New(root, urlPrefix string) (*Store, error) {
	if root == "" {
		root = DefaultRoot
	}
	if urlPrefix == "" {
		urlPrefix = "/files/"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: root, prefix: urlPrefix}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// cleanKey rejects keys that are empty, absolute or could leave the root.
func cleanKey(key string) (string, error) {
	switch {
	case strings.TrimSpace(key) == "":
		return "", errors.New("empty key")
	case strings.HasPrefix(key, "/"):
		return "", fmt.Errorf("absolute key %q", key)
	case hasParentSegment(key):
		return "", fmt.Errorf("key %q contains a '..' segment", key)
	case strings.HasSuffix(key, metaSuffix):
		return "", fmt.Errorf("key %q uses reserved suffix", key)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

func hasParentSegment(key string) bool {
	for _, seg := range strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}

func (s *Store) paths(key string) (data, meta string, err error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", "", err
	}
	data = filepath.Join(s.root, filepath.FromSlash(k))
	return data, data + metaSuffix, nil
}

type sidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size"`
	StoredAt    time.Time         `json:"stored_at"`
}

func (m sidecar) object(key string) core.Object {
	return core.Object{
		Key:          key,
		Size:         m.Size,
		ContentType:  m.ContentType,
		ETag:         m.ETag,
		Metadata:     core.CloneMetadata(m.Metadata),
		LastModified: m.StoredAt,
	}
}

// Put streams r to a temp file beside the target, then links it into place.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Object, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Object{}, err
	}
	dir := filepath.Dir(dataPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.Object{}, err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return core.Object{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return core.Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.Object{}, err
	}
	// os.Link fails when the target exists, which gives create-only semantics
	// without a stat/rename race.
	if err := os.Link(tmp.Name(), dataPath); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return core.Object{}, fmt.Errorf("%w: %s", core.ErrExists, key)
		}
		return core.Object{}, err
	}
	meta := sidecar{
		ContentType: opts.ContentType,
		Metadata:    core.CloneMetadata(opts.Metadata),
		ETag:        hex.EncodeToString(h.Sum(nil)),
		Size:        size,
		StoredAt:    time.Now().UTC(),
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return core.Object{}, err
	}
	if err := os.WriteFile(metaPath, b, 0o644); err != nil {
		_ = os.Remove(dataPath)
		return core.Object{}, err
	}
	return meta.object(key), nil
}

// Get opens the data file; the caller closes the reader.
func (s *Store) Get(_ context.Context, key string) (core.Object, io.ReadCloser, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Object{}, nil, err
	}
	meta, err := readSidecar(metaPath)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Object{}, nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	if err != nil {
		return core.Object{}, nil, err
	}
	f, err := os.Open(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Object{}, nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	if err != nil {
		return core.Object{}, nil, err
	}
	return meta.object(key), f, nil
}

// Delete removes the data file and its sidecar.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(dataPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	_ = os.Remove(metaPath)
	return true, nil
}

func (s *Store) URL(key string) string {
	return s.prefix + url.PathEscape(key)
}

func readSidecar(path string) (sidecar, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return sidecar{}, err
	}
	var m sidecar
	if err := json.Unmarshal(b, &m); err != nil {
		return sidecar{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return m, nil
}
