package rtu

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Logger is the minimal logging surface this package needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Validate checks an RTU for structural and semantic problems.
//
// All problems are collected and reported together, wrapped in
// ErrInvalidTopology. A serial port that is well-formed but absent only
// produces a warning: cables get unplugged, and the port is not opened
// until the device is touched.
func Validate(r *RTU, logger Logger) error {
	if r == nil {
		return fmt.Errorf("%w: rtu is nil", ErrInvalidTopology)
	}
	if logger == nil {
		logger = noopLogger{}
	}

	var errs []string

	if strings.TrimSpace(r.ID) == "" {
		errs = append(errs, "rtu id is required")
	} else if hasWhitespace(r.ID) {
		errs = append(errs, fmt.Sprintf("rtu id %q cannot contain whitespace", r.ID))
	}

	if addr, err := netip.ParseAddr(r.IPAddr); err != nil || !addr.Is4() {
		errs = append(errs, fmt.Sprintf("ip_addr %q is not an IPv4 address", r.IPAddr))
	}

	seen := make(map[string]struct{}, len(r.Devices))
	for i := range r.Devices {
		d := &r.Devices[i]

		if _, dup := seen[d.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate device id %q", d.ID))
		}
		seen[d.ID] = struct{}{}

		errs = append(errs, deviceProblems(d)...)

		if d.Port != "" && strings.HasPrefix(filepath.Clean(d.Port), "/dev/") {
			if _, err := os.Stat(d.Port); errors.Is(err, fs.ErrNotExist) {
				logger.Warn("serial port does not currently exist, check cabling",
					"device_id", d.ID, "port", d.Port)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTopology, strings.Join(errs, "; "))
	}

	logger.Info("rtu passed validation", "rtu_id", r.ID, "devices", len(r.Devices))
	return nil
}

// ValidateDevice checks a single device, for example one supplied by a client.
func ValidateDevice(d *Device) error {
	if d == nil {
		return fmt.Errorf("%w: device is nil", ErrInvalidTopology)
	}
	if problems := deviceProblems(d); len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTopology, strings.Join(problems, "; "))
	}
	return nil
}

func deviceProblems(d *Device) []string {
	var errs []string

	switch {
	case strings.TrimSpace(d.ID) == "":
		errs = append(errs, "device id is required")
	case hasWhitespace(d.ID):
		errs = append(errs, fmt.Sprintf("device id %q cannot contain whitespace", d.ID))
	}

	switch {
	case d.Port == "":
		errs = append(errs, fmt.Sprintf("device %q: serial port cannot be empty", d.ID))
	case !strings.HasPrefix(filepath.Clean(d.Port), "/dev/"):
		errs = append(errs, fmt.Sprintf("device %q: port %q must be under /dev", d.ID, d.Port))
	}

	if !d.Controller.Known() {
		errs = append(errs, fmt.Sprintf("device %q: unknown controller %q", d.ID, d.Controller))
	} else if d.Controller.RequiresBinary() && !d.State.IsBinary() {
		errs = append(errs, fmt.Sprintf("device %q: controller %s requires On/Off state, found %s",
			d.ID, d.Controller, d.State))
	}

	return errs
}

func hasWhitespace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}
