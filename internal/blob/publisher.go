package blob

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"evictioncrm/internal/ident"
)

const objectFragmentLen = 11

// Publisher stores uploaded files under generated object names and hands back
// the URL clients fetch them from.
type Publisher struct {
	store      Store
	publicBase string
	now        func() time.Time
	logger     *zap.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithPublicBase serves objects from base (for example a CDN) instead of the
// driver's own URL.
func WithPublicBase(base string) PublisherOption {
	return func(p *Publisher) { p.publicBase = strings.TrimSuffix(base, "/") }
}

// WithPublisherClock replaces time.Now for object naming.
func WithPublisherClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) { p.now = now }
}

// WithPublisherLogger attaches a logger.
func WithPublisherLogger(logger *zap.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

// NewPublisher wraps store.
func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the underlying driver.
func (p *Publisher) Store() Store { return p.store }

// ObjectName builds `{unixMillis}-{random base36}-{file name}`. Directory
// components of name are dropped.
func ObjectName(at time.Time, name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	return fmt.Sprintf("%d-%s-%s", at.UnixMilli(), ident.Fragment(objectFragmentLen), base)
}

// Upload stores data under a fresh object name derived from name and returns
// its public URL.
func (p *Publisher) Upload(ctx context.Context, data []byte, name string) (string, error) {
	key := ObjectName(p.now(), name)
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	obj, err := p.store.Put(ctx, key, bytes.NewReader(data), PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"original_name": name},
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	p.logger.Debug("blob stored",
		zap.String("key", obj.Key),
		zap.Int64("size", obj.Size),
		zap.String("driver", string(p.store.Driver())))
	return p.PublicURL(key), nil
}

// PublicURL returns the URL for a stored object name.
func (p *Publisher) PublicURL(key string) string {
	if p.publicBase != "" {
		return p.publicBase + "/" + url.PathEscape(key)
	}
	return p.store.URL(key)
}

// Discard deletes the object behind a URL returned by Upload. URLs this
// publisher did not produce are ignored.
func (p *Publisher) Discard(ctx context.Context, objectURL string) error {
	key, ok := p.keyFor(objectURL)
	if !ok {
		return nil
	}
	if _, err := p.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("discard %s: %w", key, err)
	}
	return nil
}

func (p *Publisher) keyFor(objectURL string) (string, bool) {
	prefix := p.PublicURL("")
	if !strings.HasPrefix(objectURL, prefix) || len(objectURL) == len(prefix) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimPrefix(objectURL, prefix))
	if err != nil {
		return "", false
	}
	return key, true
}
