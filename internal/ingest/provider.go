// Package ingest holds what every import source reports back.
package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	SessionsReceived int `json:"sessions_received"`
	SessionsInserted int `json:"sessions_inserted"`

	SetsReceived int `json:"sets_received"`
	SetsInserted int `json:"sets_inserted"`

	RowsRejected int      `json:"rows_rejected"`
	Rejected     []string `json:"rejected,omitempty"`

	Message string `json:"message,omitempty"`
}
