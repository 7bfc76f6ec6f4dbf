package scraper

import (
	"reflect"
	"testing"
)

func TestFilterCandidates_StrictBucketNeedsImageExtension(t *testing.T) {
	strict := []string{
		"/banner.png",
		"https://cdn.test/photo.JPG",
		"/about.html",
		"https://cdn.test/script.js",
	}
	got := filterCandidates(strict, nil, "https://site.test")
	want := []string{
		"https://site.test/banner.png",
		"https://cdn.test/photo.JPG",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("filterCandidates = %v, want %v", got, want)
	}
}

func TestFilterCandidates_LooseBucketPassesWithoutExtension(t *testing.T) {
	loose := []string{
		"/img/lazy",
		"https://cdn.test/avatar",
		"data:image/svg+xml,%3Csvg%3E%3C%2Fsvg%3E",
	}
	got := filterCandidates(nil, loose, "https://site.test")
	want := []string{
		"https://site.test/img/lazy",
		"https://cdn.test/avatar",
		"data:image/svg+xml,%3Csvg%3E%3C%2Fsvg%3E",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("filterCandidates = %v, want %v", got, want)
	}
}

func TestFilterCandidates_StripsWebpMarkerAndExpandsVariants(t *testing.T) {
	// A trailing marker is stripped before the extension check; an embedded
	// marker survives and contributes its de-marked variant.
	strict := []string{"https://cdn.test/pic.png_webp"}
	loose := []string{"https://cdn.test/x.jpg_webp/thumb"}
	got := filterCandidates(strict, loose, "https://site.test")
	want := []string{
		"https://cdn.test/pic.png",
		"https://cdn.test/x.jpg_webp/thumb",
		"https://cdn.test/x.jpg/thumb",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("filterCandidates = %v, want %v", got, want)
	}
}

func TestFilterCandidates_DedupsAcrossBuckets(t *testing.T) {
	strict := []string{"/pic.png", "https://site.test/pic.png"}
	loose := []string{"https://site.test/pic.png"}
	got := filterCandidates(strict, loose, "https://site.test")
	if len(got) != 1 {
		t.Errorf("expected single deduplicated URL, got %v", got)
	}
}
