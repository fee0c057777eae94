package amqp

import (
	"encoding/json"
	"time"
)

// LedgerChangedMessage announces a ledger mutation so downstream
// consumers can invalidate anything derived from the transaction set.
type LedgerChangedMessage struct {
	Op        string    `json:"op"` // "insert", "delete", "credit", "payment"
	ID        int64     `json:"id"`
	Date      string    `json:"fecha"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(op string, id int64, date string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Op:        op,
		ID:        id,
		Date:      date,
		Timestamp: time.Now(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RateRefreshMessage asks the worker to fetch the external rate for a
// given day. The worker answers by upserting the daily rate row.
type RateRefreshMessage struct {
	Date      string    `json:"fecha"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRateRefreshMessage(date string) *RateRefreshMessage {
	return &RateRefreshMessage{
		Date:      date,
		Timestamp: time.Now(),
	}
}

func (m *RateRefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RateRefreshMessageFromJSON(data []byte) (*RateRefreshMessage, error) {
	var msg RateRefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
