package models

import (
	"fmt"
	"net/url"
	"time"
)

// Asset is the metadata record for one successfully classified image.
// Immutable once created.
type Asset struct {
	// ID is a session-unique token assigned at classification time.
	ID string `json:"id"`

	// SourceURL is the candidate URL the bytes were retrieved from.
	SourceURL string `json:"url"`

	// Name is the display name derived from the URL's final path segment
	// (or from the ID for data: payloads).
	Name string `json:"name"`

	// Format is the sniffed binary format ("jpeg", "png", ..., "Unknown").
	Format string `json:"format"`

	// Width and Height are 0 when they could not be determined.
	Width  int `json:"width"`
	Height int `json:"height"`

	// PixelArea is Width × Height.
	PixelArea int `json:"pixel_area"`

	// ByteSize is the length of the stored buffer in bytes.
	ByteSize int `json:"byte_size"`
}

// Filename is the display filename exposed to packaging collaborators.
func (a *Asset) Filename() string {
	return a.Name + "." + a.Format
}

// AssetBuffer holds the raw bytes for one Asset, paired 1:1 by ID.
// Buffers are kept separate from Assets because they are large and only
// needed on explicit download, not on listing.
type AssetBuffer struct {
	ID     string
	Name   string
	Format string
	Data   []byte
}

// SessionState tracks the extraction session lifecycle.
type SessionState string

const (
	SessionCreated   SessionState = "created"
	SessionRunning   SessionState = "running"
	SessionCompleted SessionState = "completed"
	SessionFailed    SessionState = "failed"
)

// Session owns the asset and buffer collections produced by one extraction.
// It is superseded (and its buffers released) when a new extraction starts.
type Session struct {
	TargetURL string

	// MatchingMechanism is "default" or "original".
	MatchingMechanism string

	State SessionState

	// GroupName is the buffer group name used for archive downloads:
	// "{domain}-{epochMillis}".
	GroupName string

	Assets  []*Asset
	Buffers []*AssetBuffer
}

// NewSession creates a Session in the created state with its group name
// derived from the target URL's host.
func NewSession(targetURL, mechanism string) *Session {
	domain := targetURL
	if u, err := url.Parse(targetURL); err == nil && u.Hostname() != "" {
		domain = u.Hostname()
	}
	if mechanism == "" {
		mechanism = "default"
	}
	return &Session{
		TargetURL:         targetURL,
		MatchingMechanism: mechanism,
		State:             SessionCreated,
		GroupName:         fmt.Sprintf("%s-%d", domain, time.Now().UnixMilli()),
	}
}

// Append records a classified asset together with its paired buffer.
// Every Asset has exactly one AssetBuffer with the same ID.
func (s *Session) Append(a *Asset, b *AssetBuffer) {
	s.Assets = append(s.Assets, a)
	s.Buffers = append(s.Buffers, b)
}

// Buffer looks up the buffer for an asset ID.
func (s *Session) Buffer(id string) (*AssetBuffer, bool) {
	for _, b := range s.Buffers {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}
