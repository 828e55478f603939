package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityContribution = "contribution"

	OperationSubmit = "submit"
)

// Item represents a contribution submission that should be replayed
// once the store of record is reachable again.
type Item struct {
	ID         string          `json:"id"`
	TrackingID string          `json:"tracking_id"`
	Entity     string          `json:"entity"`
	Operation  string          `json:"operation"`
	Data       json.RawMessage `json:"data"`
	Priority   int             `json:"priority"`
	Retries    int             `json:"retries"`
	Timestamp  time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = 3
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
