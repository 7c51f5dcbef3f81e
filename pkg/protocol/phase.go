package protocol

// Phase is the pipeline phase of one exploration session. Wire `step` values
// in progress events use the same names.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseConnecting   Phase = "connecting"
	PhaseConnected    Phase = "connected"
	PhaseSegmenting   Phase = "segmenting"
	PhaseSegmented    Phase = "segmented"
	PhaseDownsampling Phase = "downsampling"
	PhaseDownsampled  Phase = "downsampled"
	PhaseEmbedding    Phase = "embedding"
	PhaseEmbedded     Phase = "embedded"
	PhaseStored       Phase = "stored"
	PhaseSegmentDone  Phase = "segment_done"
	PhaseParsingQuery Phase = "parsing_query"
	PhaseToolCall     Phase = "tool_call"
	PhaseQueryDone    Phase = "query_done"
	PhaseError        Phase = "error"
)

var segmentRunSteps = map[Phase]bool{
	PhaseSegmenting:   true,
	PhaseSegmented:    true,
	PhaseDownsampling: true,
	PhaseDownsampled:  true,
	PhaseEmbedding:    true,
	PhaseEmbedded:     true,
	PhaseStored:       true,
}

var queryRunSteps = map[Phase]bool{
	PhaseParsingQuery: true,
	PhaseToolCall:     true,
}

// IsSegmentStep reports whether a progress step belongs to the
// segmentation run.
func IsSegmentStep(p Phase) bool { return segmentRunSteps[p] }

// IsQueryStep reports whether a progress step belongs to a query run.
func IsQueryStep(p Phase) bool { return queryRunSteps[p] }

// IsResting reports whether the phase is one of the externally meaningful
// rest states. Commands that start a new run are only legal at rest.
func (p Phase) IsResting() bool {
	switch p {
	case PhaseIdle, PhaseConnected, PhaseSegmentDone, PhaseQueryDone, PhaseError:
		return true
	}
	return false
}
