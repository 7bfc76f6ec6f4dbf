package imaging

import (
	"bytes"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// probeDimensions is the generic dimension probe: it reads only the image
// header via the registered decoders and returns width, height, and the
// decoder's format name. Undecodable input yields zeros and an empty format.
func probeDimensions(data []byte) (width, height int, format string) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, ""
	}
	return cfg.Width, cfg.Height, name
}
