package storyboard

import (
	"net/url"
	"path"
	"strings"
)

// IsPlaceholderURL reports whether raw stands for an image that is not
// ready: empty, a known placeholder file name, or not starting with the
// secure scheme. The scheme is a plain prefix, "https" by default, so
// "https:" and "https://" URLs both pass. Placeholders match the base name
// of the URL path only; query and fragment are ignored.
func IsPlaceholderURL(raw string, cfg PublishConfig) bool {
	if raw == "" {
		return true
	}
	if isPlaceholderName(raw, cfg.Placeholders) {
		return true
	}
	scheme := cfg.SecureScheme
	if scheme == "" {
		scheme = "https"
	}
	return !strings.HasPrefix(raw, scheme)
}

func (c *Canvas) isPlaceholderURL(raw string) bool {
	return isPlaceholderName(raw, c.cfg.Publish.Placeholders)
}

func isPlaceholderName(raw string, names []string) bool {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	for _, name := range names {
		if name != "" && base == name {
			return true
		}
	}
	return false
}

// visibleImages returns the visible image nodes, top-level and nested. A
// nested image counts only while its container is visible too.
func visibleImages(app AppState) []*CNode {
	var out []*CNode
	for _, n := range app {
		if !n.Visible() {
			continue
		}
		if n.Kind == KindImage {
			out = append(out, n)
		}
		for _, ch := range n.Children {
			if ch.Visible() && ch.Kind == KindImage {
				out = append(out, ch)
			}
		}
	}
	return out
}

// ShouldDisablePublish is true only when there is at least one visible image
// and every one of them still shows a placeholder.
func ShouldDisablePublish(app AppState, cfg PublishConfig) bool {
	imgs := visibleImages(app)
	if len(imgs) == 0 {
		return false
	}
	for _, n := range imgs {
		if !IsPlaceholderURL(n.DisplayURL(), cfg) {
			return false
		}
	}
	return true
}

// ShouldDisablePublish reports whether publishing is blocked because every
// image on the canvas is still being generated.
func (c *Canvas) ShouldDisablePublish() bool {
	return ShouldDisablePublish(c.history.app, c.cfg.Publish)
}
