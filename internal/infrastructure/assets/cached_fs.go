package assets

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"time"

	"github.com/careoptions/rcm-dashboard/internal/application/port"
	"github.com/careoptions/rcm-dashboard/pkg/logger"
)

const defaultKeyPrefix = "assets:"

type cachedAsset struct {
	Data    []byte    `json:"data"`
	ModTime time.Time `json:"mod_time"`
}

func (a cachedAsset) matches(info fs.FileInfo) bool {
	return int64(len(a.Data)) == info.Size() && a.ModTime.Equal(info.ModTime())
}

// CachedFSOptions tunes a CachedFS. Hooks may be nil.
type CachedFSOptions struct {
	KeyPrefix string
	OnHit     func()
	OnMiss    func()
}

// CachedFS reads regular files through a port.Cache. Directories and errors
// are never cached, and cache failures fall back to the wrapped fs.FS.
// The wrapped fs.FS should implement fs.StatFS so a freshness check stays
// cheaper than a read.
type CachedFS struct {
	inner  fs.FS
	cache  port.Cache
	opts   CachedFSOptions
	logger *logger.Logger
}

func NewCachedFS(inner fs.FS, cache port.Cache, opts CachedFSOptions, log *logger.Logger) *CachedFS {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	return &CachedFS{
		inner:  inner,
		cache:  cache,
		opts:   opts,
		logger: log,
	}
}

// Open checks the source first so deleted files stay deleted. A cached copy is
// used only while its size and mod time still match the source.
func (c *CachedFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	info, err := fs.Stat(c.inner, name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return c.inner.Open(name)
	}

	key := c.key(name)

	var entry cachedAsset
	err = c.cache.Get(context.Background(), key, &entry)
	switch {
	case err == nil && entry.matches(info):
		c.hit()
		return NewFile(name, entry.Data, entry.ModTime), nil
	case err == nil:
		c.logger.Debug("Cached asset is stale", "path", name)
	case !errors.Is(err, port.ErrCacheMiss):
		c.logger.Warn("Asset cache read failed", "path", name, "error", err.Error())
	}
	c.miss()

	f, err := c.inner.Open(name)
	if err != nil {
		return nil, err
	}

	info, err = f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		return f, nil
	}

	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}

	entry = cachedAsset{Data: data, ModTime: info.ModTime()}
	go func() {
		if err := c.cache.Set(context.Background(), key, entry); err != nil {
			c.logger.Warn("Failed to cache asset", "path", name, "error", err.Error())
		}
	}()

	return NewFile(name, data, info.ModTime()), nil
}

// Stat asks the source directly and never touches the cache.
func (c *CachedFS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	return fs.Stat(c.inner, name)
}

// Invalidate drops the cached copy of name.
func (c *CachedFS) Invalidate(ctx context.Context, name string) error {
	return c.cache.Delete(ctx, c.key(name))
}

func (c *CachedFS) key(name string) string {
	return c.opts.KeyPrefix + name
}

func (c *CachedFS) hit() {
	if c.opts.OnHit != nil {
		c.opts.OnHit()
	}
}

func (c *CachedFS) miss() {
	if c.opts.OnMiss != nil {
		c.opts.OnMiss()
	}
}
