package monitor

import "time"

// Status is the cached health snapshot served at /health. BufferSize
// surfaces how many submissions are waiting for replay.
type Status struct {
	PostgreSQL bool      `json:"postgresql"`
	Redis      bool      `json:"redis"`
	Buffer     bool      `json:"buffer"`
	BufferSize int       `json:"buffer_size"`
	LastCheck  time.Time `json:"last_check"`
}
