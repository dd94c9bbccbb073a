package domain

import (
	"encoding/json"
	"strings"

	"github.com/fd1az/spread-analyzer/internal/apperror"
)

// Notification is the JSON form of an update announcement.
type Notification struct {
	Key string `json:"key"`
}

// ParseNotificationKey extracts the snapshot key from an update payload. A
// JSON object with a string "key" field yields that field; anything else is
// taken verbatim as the key.
func ParseNotificationKey(payload []byte) (string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err == nil {
		if raw, ok := obj["key"]; ok {
			var key string
			if err := json.Unmarshal(raw, &key); err == nil && key != "" {
				return key, nil
			}
		}
	}

	key := strings.TrimSpace(string(payload))
	if key == "" {
		return "", apperror.New(apperror.CodeInvalidNotification,
			apperror.WithMessage("empty update notification"))
	}
	return key, nil
}
