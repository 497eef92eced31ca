package rtu

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *RTU)
		wantErr string
	}{
		{name: "valid", mutate: func(r *RTU) {}},
		{
			name:    "duplicate device ids",
			mutate:  func(r *RTU) { r.Devices = append(r.Devices, testDevice("pump", On())) },
			wantErr: `duplicate device id "pump"`,
		},
		{
			name:    "rtu id with whitespace",
			mutate:  func(r *RTU) { r.ID = "testing id" },
			wantErr: "rtu id",
		},
		{
			name:    "device id with whitespace",
			mutate:  func(r *RTU) { r.Devices[0].ID = "pump one" },
			wantErr: "cannot contain whitespace",
		},
		{
			name:    "empty port",
			mutate:  func(r *RTU) { r.Devices[0].Port = "" },
			wantErr: "serial port cannot be empty",
		},
		{
			name:    "port outside dev",
			mutate:  func(r *RTU) { r.Devices[0].Port = "/etc/different" },
			wantErr: "must be under /dev",
		},
		{
			name:    "unknown controller",
			mutate:  func(r *RTU) { r.Devices[0].Controller = "Relay9000" },
			wantErr: "unknown controller",
		},
		{
			name:    "stepped state on relay",
			mutate:  func(r *RTU) { r.Devices[0].State = Stepped(4) },
			wantErr: "requires On/Off state",
		},
		{
			name:    "bad ip",
			mutate:  func(r *RTU) { r.IPAddr = "fe80::1" },
			wantErr: "not an IPv4 address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRTU(testDevice("pump", Off()), testDevice("valve", On()))
			tt.mutate(r)

			err := Validate(r, nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidTopology) {
				t.Fatalf("Validate() error = %v, want ErrInvalidTopology", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_MissingPortOnlyWarns(t *testing.T) {
	r := testRTU(testDevice("pump", Off()))
	r.Devices[0].Port = "/dev/definitely-not-plugged-in"

	logger := &recordingLogger{}
	if err := Validate(r, logger); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
	if logger.warns != 1 {
		t.Errorf("warnings = %d, want 1", logger.warns)
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	r := testRTU(testDevice("bad id", Off()))
	r.Devices[0].Port = ""

	err := Validate(r, nil)
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	for _, want := range []string{"whitespace", "serial port cannot be empty"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidateDevice(t *testing.T) {
	d := testDevice("pump", On())
	if err := ValidateDevice(&d); err != nil {
		t.Errorf("ValidateDevice() error = %v", err)
	}
	d.State = Stepped(1)
	if err := ValidateDevice(&d); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("ValidateDevice(stepped relay) error = %v", err)
	}
}

type recordingLogger struct {
	warns int
}

func (l *recordingLogger) Info(string, ...any) {}
func (l *recordingLogger) Warn(string, ...any) { l.warns++ }
