package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestClassify_MagicBytes(t *testing.T) {
	cases := []struct {
		name   string
		data   []byte
		format string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, "jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
		{"gif", []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61}, "gif"},
		{"webp", []byte{'R', 'I', 'F', 'F', 0, 0, 0, 0, 'W', 'E', 'B', 'P'}, "webp"},
		{"bmp", []byte{0x42, 0x4D, 0x00, 0x00}, "bmp"},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03}, FormatUnknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			info, stored, err := Classify(c.data)
			if err != nil {
				t.Fatalf("Classify returned error: %v", err)
			}
			if info.Format != c.format {
				t.Errorf("format = %q, want %q", info.Format, c.format)
			}
			if !bytes.Equal(stored, c.data) {
				t.Errorf("stored bytes changed for non-AVIF input")
			}
		})
	}
}

func TestClassify_ICOContainer(t *testing.T) {
	info, _, err := Classify([]byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if info.Format != "ico" {
		t.Errorf("format = %q, want ico", info.Format)
	}
}

func TestClassify_RealPNGDimensions(t *testing.T) {
	info, _, err := Classify(encodePNG(t, 7, 5))
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if info.Format != "png" || info.Width != 7 || info.Height != 5 || info.PixelArea != 35 {
		t.Errorf("got %+v, want png 7x5 area 35", info)
	}
}

func TestClassify_RealJPEGDimensions(t *testing.T) {
	info, _, err := Classify(encodeJPEG(t, 4, 3))
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if info.Format != "jpeg" || info.Width != 4 || info.Height != 3 {
		t.Errorf("got %+v, want jpeg 4x3", info)
	}
}

func TestClassify_SVGViewBox(t *testing.T) {
	data := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 16"></svg>`)
	info, _, err := Classify(data)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if info.Format != "svg" || info.Width != 24 || info.Height != 16 || info.PixelArea != 384 {
		t.Errorf("got %+v, want svg 24x16 area 384", info)
	}
}

func TestClassify_SVGViewBoxLowercase(t *testing.T) {
	// Some serializers case-fold attribute names; the viewBox lookup must
	// tolerate both spellings.
	data := []byte(`<svg viewbox="0 0 24 16"></svg>`)
	info, _, err := Classify(data)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if info.Width != 24 || info.Height != 16 {
		t.Errorf("got %dx%d, want 24x16", info.Width, info.Height)
	}
}

func TestClassify_SVGWidthHeightFallback(t *testing.T) {
	data := []byte(`<svg width="32px" height="10"></svg>`)
	info, _, err := Classify(data)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if info.Width != 32 || info.Height != 10 {
		t.Errorf("got %dx%d, want 32x10", info.Width, info.Height)
	}
}

func TestClassify_MalformedSVGDefaultsToZero(t *testing.T) {
	data := []byte(`<svg viewBox="broken"></svg>`)
	info, _, err := Classify(data)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if info.Format != "svg" || info.Width != 0 || info.Height != 0 || info.PixelArea != 0 {
		t.Errorf("got %+v, want svg with zero dimensions", info)
	}
}

func TestClassify_AVIFWithCorruptBodyIsSkipped(t *testing.T) {
	// Valid ftypavif marker but garbage payload: the transcode fails and the
	// item is skipped. AVIF must never be reported as its own format.
	data := append([]byte{0x00, 0x00, 0x00, 0x1C}, []byte("ftypavif")...)
	data = append(data, bytes.Repeat([]byte{0xAB}, 64)...)
	info, _, err := Classify(data)
	if err == nil {
		t.Fatalf("expected transcode error for corrupt AVIF, got %+v", info)
	}
}

func TestClassify_TotalOnArbitraryBytes(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		{0xFF},
		bytes.Repeat([]byte{0x42}, 1),
		bytes.Repeat([]byte{0x00}, 3),
		[]byte("plain text that is definitely not an image"),
	}
	for _, in := range inputs {
		info, _, err := Classify(in)
		if err != nil {
			t.Errorf("Classify(%v) returned error: %v", in, err)
		}
		if info.Format == "" {
			t.Errorf("Classify(%v) returned empty format", in)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	data := encodePNG(t, 2, 2)
	a, _, _ := Classify(data)
	b, _, _ := Classify(data)
	if a != b {
		t.Errorf("Classify not deterministic: %+v vs %+v", a, b)
	}
}
