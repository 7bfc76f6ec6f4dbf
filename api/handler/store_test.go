package handler

import (
	"fmt"
	"testing"

	"github.com/use-agent/harvest/models"
)

func TestSessionStore_OpenSupersedesCurrent(t *testing.T) {
	store := NewSessionStore(5)

	first := store.Open("https://a.example.com", "default")
	second := store.Open("https://b.example.com", "default")

	cur, ok := store.Current()
	if !ok {
		t.Fatal("no current session after Open")
	}
	if cur != second {
		t.Error("current session should be the most recently opened")
	}
	_ = first
}

func TestSessionStore_FindBufferAcrossSessions(t *testing.T) {
	store := NewSessionStore(5)

	old := store.Open("https://a.example.com", "default")
	old.Append(&models.Asset{ID: "old-1"}, &models.AssetBuffer{ID: "old-1", Data: []byte{1}})

	store.Open("https://b.example.com", "default")

	buf, sess, ok := store.FindBuffer("old-1")
	if !ok {
		t.Fatal("buffer from superseded session should still be findable")
	}
	if sess != old {
		t.Error("owning session mismatch")
	}
	if len(buf.Data) != 1 {
		t.Errorf("buffer data length = %d", len(buf.Data))
	}

	if _, _, ok := store.FindBuffer("missing"); ok {
		t.Error("unknown ID should not resolve")
	}
}

func TestSessionStore_EvictsOldest(t *testing.T) {
	store := NewSessionStore(2)

	oldest := store.Open("https://a.example.com", "default")
	oldest.Append(&models.Asset{ID: "gone"}, &models.AssetBuffer{ID: "gone"})

	// Distinct hosts so group names never collide.
	for i := 0; i < 2; i++ {
		store.Register(models.NewSession(fmt.Sprintf("https://h%d.example.com", i), "default"))
	}

	if _, _, ok := store.FindBuffer("gone"); ok {
		t.Error("evicted session's buffers should be gone")
	}
}
