// Package imaging sniffs the binary format of retrieved image bytes and
// determines their dimensions. Classification is deterministic and total:
// any byte sequence yields a format (possibly Unknown) without panicking.
// The only error path is AVIF transcoding, which callers treat as a skip.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
)

// FormatUnknown is reported when no signature matches.
const FormatUnknown = "Unknown"

// ErrTranscode marks an AVIF buffer that could not be converted. Callers
// match it with errors.Is and skip the item.
var ErrTranscode = errors.New("imaging: avif transcode failed")

// Info describes a classified image.
type Info struct {
	Format    string
	Width     int
	Height    int
	PixelArea int
}

// Classify sniffs data and returns its format and dimensions, plus the
// bytes to store. For AVIF input the bytes are transcoded to JPEG and the
// returned Info describes the transcoded image; for everything else the
// input bytes are returned unchanged.
//
// Undeterminable dimensions are reported as 0, never as an error. A failed
// AVIF transcode is the single error case.
func Classify(data []byte) (info Info, stored []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			info = Info{Format: FormatUnknown}
			stored = data
			err = nil
		}
	}()

	switch {
	case isSVG(data):
		w, h := svgDimensions(data)
		return Info{Format: "svg", Width: w, Height: h, PixelArea: w * h}, data, nil

	case isAVIF(data):
		baseline, terr := toBaseline(data)
		if terr != nil {
			return Info{}, nil, fmt.Errorf("%w: %v", ErrTranscode, terr)
		}
		return rasterInfo(baseline), baseline, nil

	case isICO(data):
		w, h, _ := probeDimensions(data)
		return Info{Format: "ico", Width: w, Height: h, PixelArea: w * h}, data, nil

	default:
		return rasterInfo(data), data, nil
	}
}

// rasterInfo combines magic-byte sniffing with the generic dimension probe.
func rasterInfo(data []byte) Info {
	format := sniffMagic(data)
	w, h, probed := probeDimensions(data)
	if format == FormatUnknown && probed != "" {
		format = probed
	}
	return Info{Format: format, Width: w, Height: h, PixelArea: w * h}
}

// isSVG reports whether the first 100 bytes, read as text, contain "<svg".
func isSVG(data []byte) bool {
	head := data
	if len(head) > 100 {
		head = head[:100]
	}
	return bytes.Contains(head, []byte("<svg"))
}

// isAVIF reports whether bytes 4-12 spell the "ftypavif" box marker.
func isAVIF(data []byte) bool {
	return len(data) >= 12 && string(data[4:12]) == "ftypavif"
}

// isICO reports whether data starts with the Windows icon container header.
func isICO(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == 0x00 && data[1] == 0x00 && data[2] == 0x01 && data[3] == 0x00
}

// sniffMagic identifies common raster formats by their leading signatures.
func sniffMagic(data []byte) string {
	switch {
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8:
		return "jpeg"
	case len(data) >= 4 && data[0] == 0x89 && string(data[1:4]) == "PNG":
		return "png"
	case len(data) >= 3 && data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46:
		return "gif"
	case len(data) >= 12 &&
		data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50:
		return "webp"
	case len(data) >= 2 && data[0] == 0x42 && data[1] == 0x4D:
		return "bmp"
	default:
		return FormatUnknown
	}
}
