package scraper

import (
	"github.com/go-rod/rod"
	"github.com/ysmood/gson"

	"github.com/use-agent/harvest/candidate"
)

// harvestScript walks the rendered DOM and computed styles and returns the
// raw candidate values in two buckets. Collection that needs page state
// (computed-style reads, inline SVG serialization, the resolved favicon
// href) happens here; normalization, acceptance filtering, variant
// expansion, and deduplication happen on the Go side.
//
// Buckets:
//   - strict: a[href], meta[content], link[href] — accepted only when the
//     normalized value matches the image extension pattern
//   - loose: img[src] (any non-empty value), inline <svg> and <use>
//     serialized as percent-encoded data: URLs, computed-style
//     background-image / --svg payloads, and the favicon
const harvestScript = `() => {
	const strict = [];
	const loose = [];

	for (const el of document.querySelectorAll('a, img, svg, use, meta, link')) {
		switch (el.tagName.toLowerCase()) {
			case 'a':
			case 'link': {
				const u = el.getAttribute('href');
				if (u) strict.push(u);
				break;
			}
			case 'meta': {
				const u = el.getAttribute('content');
				if (u) strict.push(u);
				break;
			}
			case 'img': {
				const u = el.getAttribute('src');
				if (u) loose.push(u);
				break;
			}
			case 'svg': {
				const markup = new XMLSerializer().serializeToString(el);
				loose.push('data:image/svg+xml,' + encodeURIComponent(markup));
				break;
			}
			case 'use': {
				const ref = el.getAttribute('href') || el.getAttribute('xlink:href');
				if (!ref || !ref.startsWith('#')) break;
				const symbol = document.querySelector(ref);
				if (!symbol) break;
				const inner = new XMLSerializer().serializeToString(symbol);
				const doc = '<svg xmlns="http://www.w3.org/2000/svg">' + inner + '</svg>';
				loose.push('data:image/svg+xml,' + encodeURIComponent(doc));
				break;
			}
		}
	}

	for (const el of document.querySelectorAll('[class]')) {
		const style = window.getComputedStyle(el);
		const values = [
			style.getPropertyValue('--svg'),
			style.getPropertyValue('background-image'),
		];
		for (const value of values) {
			if (!value) continue;
			if (value.startsWith('url("data:')) {
				loose.push(decodeURIComponent(value.slice(5, -2)));
				break;
			}
			if (value.startsWith('url("http')) {
				loose.push(value.slice(5, -2));
				break;
			}
		}
	}

	const icon =
		document.querySelector('link[rel="shortcut icon"]') ||
		document.querySelector('link[rel="icon"]');
	if (icon && icon.href) loose.push(icon.href);

	return { strict, loose };
}`

// harvestCandidates evaluates the harvester payload on the stabilized page
// and post-processes the raw values into the deduplicated candidate set.
func (s *Scraper) harvestCandidates(p *rod.Page, origin string) ([]string, error) {
	res, err := p.Eval(harvestScript)
	if err != nil {
		return nil, err
	}
	strict := stringsFromJSON(res.Value.Get("strict"))
	loose := stringsFromJSON(res.Value.Get("loose"))
	return filterCandidates(strict, loose, origin), nil
}

// filterCandidates normalizes both buckets against the page origin and
// applies the acceptance rules: strict values must match the image
// extension pattern, loose values pass as-is (data: payloads untouched).
// Every accepted URL still carrying a "_webp" marker additionally
// contributes its de-marked variant.
func filterCandidates(strict, loose []string, origin string) []string {
	urls := make([]string, 0, len(strict)+len(loose))
	for _, raw := range strict {
		u := candidate.Normalize(raw, origin)
		if candidate.IsImageURL(u) {
			urls = append(urls, u)
		}
	}
	for _, raw := range loose {
		if candidate.IsDataURL(raw) {
			urls = append(urls, raw)
			continue
		}
		if u := candidate.Normalize(raw, origin); u != "" {
			urls = append(urls, u)
		}
	}
	urls = candidate.ExpandWebpVariants(urls)
	return candidate.Dedup(urls)
}

// stringsFromJSON flattens a JS string-array eval result, dropping empty
// and non-string elements.
func stringsFromJSON(v gson.JSON) []string {
	var out []string
	for _, item := range v.Arr() {
		if s := item.Str(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
