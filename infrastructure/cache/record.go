// Package cache holds helpers shared by the cache backends
package cache

import (
	"encoding/json"
	"fmt"
)

// RecordID extracts the _id field of a serialized record
func RecordID(value []byte) (string, error) {
	var head struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(value, &head); err != nil {
		return "", fmt.Errorf("failed to decode cached record: %w", err)
	}
	return head.ID, nil
}

// IndexOf returns the index of the first element whose _id is id, or -1.
// Elements that fail to decode are skipped.
func IndexOf(values [][]byte, id string) int {
	for i, v := range values {
		if got, err := RecordID(v); err == nil && got == id {
			return i
		}
	}
	return -1
}

// MarkerKey is the hydration marker stored next to a list
func MarkerKey(list string) string {
	return list + ":hydrated"
}

// LockKey is the key holding a named lock
func LockKey(name string) string {
	return "lock:" + name
}
