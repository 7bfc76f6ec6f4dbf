package resolver

import (
	"regexp"
	"strings"

	"github.com/use-agent/harvest/models"
)

// lazySrcScript collects original-image URLs from lazy-load attributes:
// hosts that render thumbnails into <img src> keep the original behind a
// data-src attribute on the same element.
const lazySrcScript = `() => {
	const urls = [];
	for (const el of document.querySelectorAll('img[data-src], [class*="lazy"] [data-src]')) {
		const src = el.getAttribute('data-src');
		if (src && src.startsWith('http')) urls.push(src);
	}
	return urls;
}`

// lightboxScript collects originals from lightbox anchors: galleries wrap
// each thumbnail in an <a> whose href is the full-resolution file, marked
// with data-fancybox or an explicit blank target.
const lightboxScript = `() => {
	const urls = [];
	for (const a of document.querySelectorAll('a[data-fancybox], a[target="_blank"]')) {
		const href = a.getAttribute('href');
		if (href && /^https?:\/\/.*\.(jpg|jpeg|png|gif|bmp|webp)$/i.test(href)) urls.push(href);
	}
	return urls;
}`

// huabanSizeSuffix matches the board-variant size suffix huaban appends to
// image keys, e.g. "..._fw236" or "..._fw658webp".
var huabanSizeSuffix = regexp.MustCompile(`_fw\d+(webp)?$`)

// huabanVariants produces both large background-variant suffixes for one
// asset; the caller unions the two result sets.
func huabanVariants(a *models.Asset) []string {
	base := huabanSizeSuffix.ReplaceAllString(a.SourceURL, "")
	if !strings.HasPrefix(base, "http") {
		return nil
	}
	return []string{base + "_fw1200", base + "_fw658"}
}

// thumbDimensions matches "-640x480" style size markers before the file
// extension.
var thumbDimensions = regexp.MustCompile(`-\d+x\d+(\.[a-zA-Z]+)$`)

// thumbSuffix matches "_thumb"/"_small"/"_medium"/"_640w" markers before
// the file extension.
var thumbSuffix = regexp.MustCompile(`_(thumb|small|medium|\d+w)(\.[a-zA-Z]+)$`)

// thumbPathSegment matches a thumbnail directory in the URL path.
var thumbPathSegment = regexp.MustCompile(`/(thumb|thumbs|thumbnail|thumbnails|small)/`)

// genericOriginal is the fallback thumbnail→original transform: it strips
// common size markers from the URL and drops sizing query strings. URLs the
// transform cannot improve are filtered out.
func genericOriginal(a *models.Asset) []string {
	u := a.SourceURL
	if !strings.HasPrefix(u, "http") {
		return nil
	}

	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	u = thumbDimensions.ReplaceAllString(u, "$1")
	u = thumbSuffix.ReplaceAllString(u, "$2")
	u = thumbPathSegment.ReplaceAllString(u, "/")

	if u == a.SourceURL {
		return nil
	}
	return []string{u}
}

// DefaultTable is the active strategy set, evaluated in order.
func DefaultTable() *Table {
	return NewTable(
		[]Strategy{
			{Name: "zcool", Match: matchHost("zcool"), Script: lazySrcScript},
			{Name: "duitang", Match: matchHost("duitang"), Script: lightboxScript},
			{Name: "huaban", Match: matchHost("huaban"), Transform: huabanVariants},
		},
		Strategy{Name: "generic", Transform: genericOriginal},
	)
}
