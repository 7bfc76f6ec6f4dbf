package imaging

import (
	"bytes"
	"image/jpeg"

	"github.com/gen2brain/avif"
)

// jpegQuality for transcoded output. AVIF sources are already lossy, so a
// high-but-not-max quality avoids inflating the stored buffer.
const jpegQuality = 90

// toBaseline converts an AVIF buffer to a baseline JPEG buffer so that the
// regular magic-byte path can classify it. Callers store the transcoded
// bytes, not the original.
func toBaseline(data []byte) ([]byte, error) {
	img, err := avif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
