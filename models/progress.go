package models

// Stage identifies a pipeline milestone for progress reporting.
type Stage string

const (
	StageSessionOpened Stage = "session_opened"
	StagePageLoaded    Stage = "page_loaded"
	StageScrolling     Stage = "scrolling"
	StageHarvesting    Stage = "harvesting"
	StageFetching      Stage = "fetching"
	StageDone          Stage = "done"
)

// stagePercent maps each milestone to its approximate completion checkpoint.
// The fetching stage advances from 50 towards 90 as batches complete.
var stagePercent = map[Stage]int{
	StageSessionOpened: 5,
	StagePageLoaded:    10,
	StageScrolling:     20,
	StageHarvesting:    40,
	StageFetching:      50,
	StageDone:          100,
}

// Percent returns the checkpoint percentage for a stage.
func (s Stage) Percent() int {
	return stagePercent[s]
}

// ProgressEvent is emitted at defined pipeline milestones.
type ProgressEvent struct {
	Stage     Stage  `json:"stage"`
	Percent   int    `json:"percent"`
	TargetURL string `json:"target_url"`

	// Detail carries stage-specific counts, e.g. candidates found or
	// batches completed.
	Detail string `json:"detail,omitempty"`
}

// ProgressSink receives progress events. The pipeline defines only the event
// sequence; transport (webhook, log, test capture) is up to the implementation.
type ProgressSink interface {
	Publish(event ProgressEvent)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Publish(ProgressEvent) {}
