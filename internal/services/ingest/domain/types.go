// Package domain defines the inbound note, consumer states and the message source ports
package domain

// Note is the inbound message payload. Timestamp is unix seconds.
// Both keys must be present; an empty note or a pre-epoch timestamp is still a note
type Note struct {
	Note      *string  `json:"note" validate:"required"`
	Timestamp *float64 `json:"timestamp" validate:"required"`
}

// State is the consumer lifecycle position
type State int32

const (
	// Disconnected means no broker session is open
	Disconnected State = iota
	// Connecting means a dial is in progress or the consumer is waiting to retry one
	Connecting
	// Receiving means the consumer is waiting for the next delivery
	Receiving
	// Processing means a delivery is being redacted, extracted and appended
	Processing
	// Persisted means the last record is durable and its delivery acked
	Persisted
)

var stateNames = [...]string{
	Disconnected: "disconnected",
	Connecting:   "connecting",
	Receiving:    "receiving",
	Processing:   "processing",
	Persisted:    "persisted",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Stats are running consumer counters
type Stats struct {
	State     string `json:"state"`
	Received  int64  `json:"received"`
	Persisted int64  `json:"persisted"`
	Dropped   int64  `json:"dropped"`
	Connects  int64  `json:"connects"`
}
