package imaging

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// svgDimensions extracts the dimensions of a vector image from its markup.
// The viewBox attribute wins when present (positions 2 and 3 of the
// whitespace-split value); otherwise the explicit width/height attributes
// are used. Any unparsable value defaults to 0.
func svgDimensions(data []byte) (width, height int) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	svg := doc.Find("svg").First()
	if svg.Length() == 0 {
		return 0, 0
	}

	// The HTML parser's foreign-content adjustment preserves viewBox's
	// camelCase inside <svg>; the lowercase form covers markup that reached
	// us through a case-folding serializer.
	vb, ok := svg.Attr("viewBox")
	if !ok {
		vb, ok = svg.Attr("viewbox")
	}
	if ok {
		parts := strings.Fields(vb)
		if len(parts) >= 4 {
			return parseDimension(parts[2]), parseDimension(parts[3])
		}
	}

	w, _ := svg.Attr("width")
	h, _ := svg.Attr("height")
	return parseDimension(w), parseDimension(h)
}

// parseDimension reads the leading numeric part of an attribute value,
// tolerating unit suffixes like "24px" and fractional values.
func parseDimension(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] == '.' || s[end] == '-' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return int(f)
}
