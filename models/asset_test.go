package models

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNewSession_GroupName(t *testing.T) {
	before := time.Now().UnixMilli()
	s := NewSession("https://www.example.com/gallery?page=2", "default")
	after := time.Now().UnixMilli()

	parts := strings.Split(s.GroupName, "-")
	if len(parts) < 2 {
		t.Fatalf("group name %q missing epoch suffix", s.GroupName)
	}
	if !strings.HasPrefix(s.GroupName, "www.example.com-") {
		t.Errorf("group name %q should start with the hostname", s.GroupName)
	}
	ms, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	if err != nil {
		t.Fatalf("group name suffix is not numeric: %v", err)
	}
	if ms < before || ms > after {
		t.Errorf("group name epoch %d outside [%d, %d]", ms, before, after)
	}
}

func TestNewSession_DefaultsMechanism(t *testing.T) {
	s := NewSession("https://example.com", "")
	if s.MatchingMechanism != "default" {
		t.Errorf("mechanism = %q, want default", s.MatchingMechanism)
	}
	if s.State != SessionCreated {
		t.Errorf("state = %q, want created", s.State)
	}
}

func TestSession_AppendPairsAssetWithBuffer(t *testing.T) {
	s := NewSession("https://example.com", "default")
	s.Append(
		&Asset{ID: "x", Name: "pic", Format: "png"},
		&AssetBuffer{ID: "x", Name: "pic", Format: "png", Data: []byte{1, 2, 3}},
	)

	if len(s.Assets) != 1 || len(s.Buffers) != 1 {
		t.Fatalf("append left %d assets, %d buffers", len(s.Assets), len(s.Buffers))
	}
	b, ok := s.Buffer("x")
	if !ok {
		t.Fatal("Buffer lookup failed for appended asset")
	}
	if len(b.Data) != 3 {
		t.Errorf("buffer data length = %d", len(b.Data))
	}
	if _, ok := s.Buffer("missing"); ok {
		t.Error("Buffer lookup should fail for unknown ID")
	}
}

func TestAsset_Filename(t *testing.T) {
	a := &Asset{Name: "sunset", Format: "jpeg"}
	if got := a.Filename(); got != "sunset.jpeg" {
		t.Errorf("Filename = %q", got)
	}
}

func TestExtractRequest_Defaults(t *testing.T) {
	r := &ExtractRequest{URL: "https://example.com"}
	r.Defaults()

	if r.MatchingMechanism != "default" {
		t.Errorf("mechanism = %q", r.MatchingMechanism)
	}
	if r.MaxScroll != 20000 {
		t.Errorf("max scroll = %d", r.MaxScroll)
	}
	if r.Timeout != 0 {
		t.Errorf("timeout = %d, want 0 so the server default applies", r.Timeout)
	}
	if r.Stealth == nil || !*r.Stealth {
		t.Error("stealth should default to true")
	}
}

func TestStage_Percent(t *testing.T) {
	order := []Stage{StageSessionOpened, StagePageLoaded, StageScrolling, StageHarvesting, StageFetching, StageDone}
	prev := -1
	for _, st := range order {
		p := st.Percent()
		if p <= prev {
			t.Errorf("stage %q percent %d not increasing (prev %d)", st, p, prev)
		}
		prev = p
	}
	if StageDone.Percent() != 100 {
		t.Errorf("done percent = %d", StageDone.Percent())
	}
}

func TestExtractError_WrapsAndFormats(t *testing.T) {
	inner := &ExtractError{Code: ErrCodeTimeout, Message: "deadline"}
	outer := NewExtractError(ErrCodeNavigation, "navigate", inner)

	if outer.Unwrap() != inner {
		t.Error("Unwrap should return the wrapped error")
	}
	if !strings.Contains(outer.Error(), ErrCodeNavigation) {
		t.Errorf("Error() = %q missing code", outer.Error())
	}
	d := outer.ToDetail()
	if d.Code != ErrCodeNavigation || d.Message != "navigate" {
		t.Errorf("ToDetail = %+v", d)
	}
}
