package storyboard

import (
	"container/list"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageLoader turns an image URL into decoded pixels.
type ImageLoader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// LoaderFunc adapts a function to ImageLoader.
type LoaderFunc func(ctx context.Context, url string) (image.Image, error)

// Load implements ImageLoader.
func (f LoaderFunc) Load(ctx context.Context, url string) (image.Image, error) {
	return f(ctx, url)
}

// DefaultMaxEntries is the decoded image cache size of NewLoader.
const DefaultMaxEntries = 64

// Loader fetches http(s) URLs and reads everything else as a path under
// Root. Decoded images are kept in a least recently used cache keyed by URL.
// It is safe for concurrent use.
type Loader struct {
	Root   string
	Client *http.Client
	// MaxSide downsamples images whose longer side exceeds it. Zero keeps
	// the source size.
	MaxSide int
	// MaxEntries bounds the cache. Zero disables caching.
	MaxEntries int

	mu    sync.Mutex
	cache map[string]*list.Element
	lru   *list.List // front = most recent
}

type cacheEntry struct {
	url string
	img image.Image
}

// NewLoader returns a Loader resolving local paths under root.
func NewLoader(root string) *Loader {
	return &Loader{Root: root, Client: http.DefaultClient, MaxSide: 4096, MaxEntries: DefaultMaxEntries}
}

// Load implements ImageLoader.
func (l *Loader) Load(ctx context.Context, url string) (image.Image, error) {
	if img, ok := l.cached(url); ok {
		return img, nil
	}

	rc, err := l.open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("decode image %q: %w", url, err)
	}
	img = l.fit(img)

	l.store(url, img)
	return img, nil
}

func (l *Loader) cached(url string) (image.Image, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.cache[url]
	if !ok {
		return nil, false
	}
	l.lru.MoveToFront(e)
	return e.Value.(*cacheEntry).img, true
}

func (l *Loader) store(url string, img image.Image) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.MaxEntries <= 0 {
		return
	}
	if l.cache == nil {
		l.cache = make(map[string]*list.Element)
		l.lru = list.New()
	}
	if e, ok := l.cache[url]; ok {
		e.Value.(*cacheEntry).img = img
		l.lru.MoveToFront(e)
		return
	}
	l.cache[url] = l.lru.PushFront(&cacheEntry{url: url, img: img})
	for l.lru.Len() > l.MaxEntries {
		oldest := l.lru.Back()
		l.lru.Remove(oldest)
		delete(l.cache, oldest.Value.(*cacheEntry).url)
	}
}

// Forget drops url from the cache.
func (l *Loader) Forget(url string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.cache[url]; ok {
		l.lru.Remove(e)
		delete(l.cache, url)
	}
}

func (l *Loader) open(ctx context.Context, url string) (io.ReadCloser, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("load image %q: %w", url, err)
		}
		client := l.Client
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("load image %q: %w", url, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("load image %q: status %s", url, resp.Status)
		}
		return resp.Body, nil
	}
	// file:// URLs are filesystem paths; anything else is relative to Root,
	// leading slash included.
	path, ok := strings.CutPrefix(url, "file://")
	if !ok {
		path = filepath.Join(l.Root, filepath.FromSlash(strings.TrimPrefix(url, "/")))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load image %q: %w", url, err)
	}
	return f, nil
}

func (l *Loader) fit(img image.Image) image.Image {
	b := img.Bounds()
	side := max(b.Dx(), b.Dy())
	if l.MaxSide <= 0 || side <= l.MaxSide {
		return img
	}
	k := float64(l.MaxSide) / float64(side)
	w := max(1, int(float64(b.Dx())*k))
	h := max(1, int(float64(b.Dy())*k))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
