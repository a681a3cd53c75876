package models

// BarEvent couples a bar with its symbol and resolution for transport between
// the stream, the message bus and storage.
type BarEvent struct {
	Symbol      string `json:"symbol"`
	Granularity string `json:"granularity"`
	Bar
}
