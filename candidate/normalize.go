// Package candidate holds the pure URL transforms applied to harvested
// image locations before retrieval: normalization, variant expansion,
// acceptance filtering, and deduplication.
package candidate

import (
	"regexp"
	"strings"
)

// imageURLPattern accepts absolute http(s) URLs ending in a common image
// file extension, case-insensitively.
var imageURLPattern = regexp.MustCompile(`(?i)^(https?://).*\.(jpg|jpeg|png|gif|bmp|webp|svg|tiff)$`)

// webpSuffix is the trailing variant marker some CDNs append to image paths.
const webpSuffix = "_webp"

// Normalize strips a trailing "_webp" variant marker and absolutizes the
// URL against the page's protocol+domain when it is not already absolute.
// Empty input stays empty.
func Normalize(raw, origin string) string {
	if raw == "" {
		return ""
	}
	raw = strings.TrimSuffix(raw, webpSuffix)
	if !strings.HasPrefix(raw, "http") {
		return origin + raw
	}
	return raw
}

// IsImageURL reports whether s looks like an absolute image URL.
func IsImageURL(s string) bool {
	return imageURLPattern.MatchString(s)
}

// IsDataURL reports whether s is an inline data: payload.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// ExpandWebpVariants returns urls plus, for every URL still containing a
// "_webp" marker, the de-marked variant. The expansion adds candidates,
// it never replaces the original.
func ExpandWebpVariants(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		out = append(out, u)
		if strings.Contains(u, webpSuffix) {
			out = append(out, strings.ReplaceAll(u, webpSuffix, ""))
		}
	}
	return out
}

// Dedup removes exact-string duplicates, preserving first-seen order.
// It is idempotent: Dedup(Dedup(x)) == Dedup(x).
func Dedup(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
