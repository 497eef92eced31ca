package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	topics := NewTopics("iris")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Snapshot", topics.Snapshot("brewery"), "iris/brewery/snapshot"},
		{"Lock", topics.Lock("brewery"), "iris/brewery/lock"},
		{"DeviceState", topics.DeviceState("brewery", "pump"), "iris/brewery/device/pump/state"},
		{"SystemStatus", topics.SystemStatus(), "iris/system/status"},
		{"AllSnapshots", topics.AllSnapshots(), "iris/+/snapshot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestNewTopics_Prefix(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"iris", "iris"},
		{"/plant/iris/", "plant/iris"},
		{"", DefaultTopicPrefix},
		{"///", DefaultTopicPrefix},
	}
	for _, tt := range tests {
		if got := NewTopics(tt.prefix).Prefix(); got != tt.want {
			t.Errorf("NewTopics(%q).Prefix() = %q, want %q", tt.prefix, got, tt.want)
		}
	}

	var zero Topics
	if got := zero.SystemStatus(); got != "iris/system/status" {
		t.Errorf("zero Topics SystemStatus() = %q", got)
	}
}
