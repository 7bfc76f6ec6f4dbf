package candidate

import (
	"reflect"
	"testing"
)

func TestNormalize_AbsolutizesRelativePaths(t *testing.T) {
	got := Normalize("/a.png", "https://site")
	if got != "https://site/a.png" {
		t.Errorf("Normalize(/a.png) = %q, want https://site/a.png", got)
	}
}

func TestNormalize_LeavesAbsoluteURLs(t *testing.T) {
	got := Normalize("https://x/b.jpg", "https://site")
	if got != "https://x/b.jpg" {
		t.Errorf("Normalize kept origin prefix off absolute URL, got %q", got)
	}
}

func TestNormalize_StripsTrailingWebpMarker(t *testing.T) {
	got := Normalize("https://cdn/img.png_webp", "https://site")
	if got != "https://cdn/img.png" {
		t.Errorf("trailing _webp not stripped, got %q", got)
	}
}

func TestNormalize_Empty(t *testing.T) {
	if got := Normalize("", "https://site"); got != "" {
		t.Errorf("empty input should stay empty, got %q", got)
	}
}

func TestIsImageURL(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://x/b.jpg", true},
		{"http://x/b.JPEG", true},
		{"https://x/p.png", true},
		{"https://x/v.svg", true},
		{"https://x/t.TIFF", true},
		{"https://x/page.html", false},
		{"/relative/b.jpg", false},
		{"ftp://x/b.jpg", false},
		{"https://x/b.jpg?w=100", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsImageURL(c.url); got != c.want {
			t.Errorf("IsImageURL(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}

func TestExpandWebpVariants(t *testing.T) {
	in := []string{"https://cdn/a.png_webp/x", "https://cdn/b.jpg"}
	got := ExpandWebpVariants(in)
	want := []string{"https://cdn/a.png_webp/x", "https://cdn/a.png/x", "https://cdn/b.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExpandWebpVariants = %v, want %v", got, want)
	}
}

func TestDedup_RemovesExactDuplicates(t *testing.T) {
	in := []string{"a", "b", "a", "", "c", "b"}
	want := []string{"a", "b", "c"}
	if got := Dedup(in); !reflect.DeepEqual(got, want) {
		t.Errorf("Dedup = %v, want %v", got, want)
	}
}

func TestDedup_Idempotent(t *testing.T) {
	in := []string{"a", "b", "a", "c"}
	once := Dedup(in)
	twice := Dedup(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Dedup not idempotent: %v vs %v", once, twice)
	}
}
