package amqp

import (
	"encoding/json"
	"time"
)

// WarehouseRefreshMessage announces that a warehouse load finished and
// downstream caches should be flushed. Source names the loader that ran;
// Tables lists the fact tables it touched (empty means all).
type WarehouseRefreshMessage struct {
	Source    string    `json:"source"`
	Tables    []string  `json:"tables,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewWarehouseRefreshMessage(source string, tables ...string) *WarehouseRefreshMessage {
	return &WarehouseRefreshMessage{
		Source:    source,
		Tables:    tables,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *WarehouseRefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// WarehouseRefreshMessageFromJSON creates a message from JSON bytes
func WarehouseRefreshMessageFromJSON(data []byte) (*WarehouseRefreshMessage, error) {
	var msg WarehouseRefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
