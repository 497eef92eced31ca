package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "iris"

// Topics builds the hub's MQTT topic names under one prefix:
//
//	<prefix>/<rtu-id>/snapshot              retained JSON RTU
//	<prefix>/<rtu-id>/lock                  retained "locked" / "unlocked"
//	<prefix>/<rtu-id>/device/<id>/state     retained device state
//	<prefix>/system/status                  online / offline, LWT
type Topics struct {
	prefix string
}

// NewTopics returns a builder for prefix. Surrounding slashes are trimmed.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// Snapshot returns the retained snapshot topic for an RTU.
//
// Example: iris/brewery-rtu/snapshot
func (t Topics) Snapshot(rtuID string) string {
	return fmt.Sprintf("%s/%s/snapshot", t.Prefix(), rtuID)
}

// Lock returns the lock state topic for an RTU.
//
// Example: iris/brewery-rtu/lock
func (t Topics) Lock(rtuID string) string {
	return fmt.Sprintf("%s/%s/lock", t.Prefix(), rtuID)
}

// DeviceState returns the per-device state topic.
//
// Example: iris/brewery-rtu/device/pump/state
func (t Topics) DeviceState(rtuID, deviceID string) string {
	return fmt.Sprintf("%s/%s/device/%s/state", t.Prefix(), rtuID, deviceID)
}

// SystemStatus returns the system status topic.
//
// Example: iris/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.Prefix())
}

// AllSnapshots returns a pattern matching every RTU snapshot.
//
// Pattern: iris/+/snapshot
func (t Topics) AllSnapshots() string {
	return fmt.Sprintf("%s/+/snapshot", t.Prefix())
}
