package protocol

import "encoding/json"

// Message types on the session stream.
const (
	TypeConnected = "connected"
	TypeProgress  = "progress"
	TypeResult    = "result"
	TypeError     = "error"

	CmdUploadAndSegment = "upload_and_segment"
	CmdQuery            = "query"
)

// CloseAuthFailure is the websocket close code reserved for rejected
// authentication. Any other abnormal close is a generic connectivity error.
const CloseAuthFailure = 4001

// Command is a client-to-server message.
type Command struct {
	Type            string  `json:"type"`
	TargetStep      float64 `json:"target_step,omitempty"`
	DownsampleNodes int     `json:"downsample_nodes,omitempty"`
	Embed           *bool   `json:"embed,omitempty"`
	Query           string  `json:"query,omitempty"`
}

// Event is a server-to-client message. Which fields are populated depends
// on Type.
type Event struct {
	Type        string                 `json:"type"`
	SessionID   string                 `json:"session_id,omitempty"`
	Step        string                 `json:"step,omitempty"`
	Detail      map[string]interface{} `json:"detail,omitempty"`
	Explanation string                 `json:"explanation,omitempty"`
	Data        json.RawMessage        `json:"data,omitempty"`
	Message     string                 `json:"message,omitempty"`
}

// Expectation tells DecodeResult which payload shape the terminal result of
// the current run should carry.
type Expectation int

const (
	ExpectNone Expectation = iota
	ExpectSegment
	ExpectQuery
)

// DecodeResult decodes the payload of a `result` event. The wire protocol
// conflates SegmentResult and QueryResult under a single event type. A
// payload carrying a top-level `answer` field is always a QueryResult, no
// matter what the caller expected; otherwise the expectation flag picks the
// shape, defaulting to SegmentResult when no flag is set. Exactly one of
// the returns is non-nil on success.
func DecodeResult(data json.RawMessage, expecting Expectation) (*SegmentResult, *QueryResult, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, nil, err
	}

	kind := expecting
	if _, ok := probe["answer"]; ok {
		kind = ExpectQuery
	} else if kind == ExpectNone {
		kind = ExpectSegment
	}

	if kind == ExpectQuery {
		var qr QueryResult
		if err := json.Unmarshal(data, &qr); err != nil {
			return nil, nil, err
		}
		return nil, &qr, nil
	}

	var sr SegmentResult
	if err := json.Unmarshal(data, &sr); err != nil {
		return nil, nil, err
	}
	return &sr, nil, nil
}
