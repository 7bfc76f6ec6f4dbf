package resolver

import (
	"reflect"
	"testing"

	"github.com/use-agent/harvest/models"
)

func asset(url string) *models.Asset {
	return &models.Asset{ID: "x", SourceURL: url}
}

func TestResolve_FirstMatchWins(t *testing.T) {
	table := NewTable(
		[]Strategy{
			{Name: "a", Match: func(string) bool { return true }, Script: "payload-a"},
			{Name: "b", Match: func(string) bool { return true }, Script: "payload-b"},
		},
		Strategy{Name: "generic", Transform: genericOriginal},
	)
	res := table.Resolve("https://example.com/page", nil)
	if res.Strategy != "a" || res.Script != "payload-a" {
		t.Errorf("expected first matching strategy, got %q", res.Strategy)
	}
}

func TestResolve_FallbackApplies(t *testing.T) {
	res := DefaultTable().Resolve("https://example.com/gallery",
		[]*models.Asset{asset("https://example.com/img/photo-640x480.jpg")})
	if res.Strategy != "generic" {
		t.Fatalf("expected generic fallback, got %q", res.Strategy)
	}
	want := []string{"https://example.com/img/photo.jpg"}
	if !reflect.DeepEqual(res.URLs, want) {
		t.Errorf("URLs = %v, want %v", res.URLs, want)
	}
}

func TestResolve_ScriptStrategySelectedByHost(t *testing.T) {
	res := DefaultTable().Resolve("https://www.zcool.com.cn/work/1", nil)
	if res.Strategy != "zcool" || res.Script == "" {
		t.Errorf("expected zcool script strategy, got %+v", res)
	}
}

func TestHuabanVariants_UnionsBothSuffixes(t *testing.T) {
	res := DefaultTable().Resolve("https://huaban.com/pins/1",
		[]*models.Asset{asset("https://gd-hbimg.huaban.com/abc_fw236")})
	want := []string{
		"https://gd-hbimg.huaban.com/abc_fw1200",
		"https://gd-hbimg.huaban.com/abc_fw658",
	}
	if !reflect.DeepEqual(res.URLs, want) {
		t.Errorf("URLs = %v, want %v", res.URLs, want)
	}
}

func TestGenericOriginal(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"https://cdn/x/photo-150x150.png", []string{"https://cdn/x/photo.png"}},
		{"https://cdn/x/photo_thumb.jpg", []string{"https://cdn/x/photo.jpg"}},
		{"https://cdn/x/photo_640w.jpg", []string{"https://cdn/x/photo.jpg"}},
		{"https://cdn/thumbs/photo.jpg", []string{"https://cdn/photo.jpg"}},
		{"https://cdn/photo.jpg?w=100&h=100", []string{"https://cdn/photo.jpg"}},
		// Already an original: nothing new to try.
		{"https://cdn/photo.jpg", nil},
		// Unmappable inputs are filtered out.
		{"data:image/png;base64,AAAA", nil},
	}
	for _, c := range cases {
		got := genericOriginal(asset(c.in))
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("genericOriginal(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestResolve_DedupsTransformOutput(t *testing.T) {
	assets := []*models.Asset{
		asset("https://cdn/photo_thumb.jpg"),
		asset("https://cdn/photo_thumb.jpg"),
	}
	res := DefaultTable().Resolve("https://example.com", assets)
	if len(res.URLs) != 1 {
		t.Errorf("expected deduplicated output, got %v", res.URLs)
	}
}
