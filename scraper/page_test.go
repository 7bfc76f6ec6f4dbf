package scraper

import (
	"testing"
	"time"

	"github.com/use-agent/harvest/config"
)

func TestSessionTimeout(t *testing.T) {
	s := &Scraper{
		extractCfg: config.ExtractConfig{
			DefaultTimeout: 300 * time.Second,
			MaxTimeout:     500 * time.Second,
		},
	}

	cases := []struct {
		name    string
		seconds int
		want    time.Duration
	}{
		{"unset falls back to configured default", 0, 300 * time.Second},
		{"explicit value passes through", 60, 60 * time.Second},
		{"oversized value clamps to max", 900, 500 * time.Second},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := s.sessionTimeout(c.seconds); got != c.want {
				t.Errorf("sessionTimeout(%d) = %v, want %v", c.seconds, got, c.want)
			}
		})
	}
}

func TestSessionTimeout_ZeroConfig(t *testing.T) {
	s := &Scraper{}
	if got := s.sessionTimeout(0); got != 300*time.Second {
		t.Errorf("sessionTimeout(0) = %v, want built-in 300s", got)
	}
}
