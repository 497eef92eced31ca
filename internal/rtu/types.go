package rtu

// Controller identifies the hardware a device is attached through.
type Controller string

// Supported controllers.
const (
	// ControllerSTR1 is a relay board driven over a framed serial protocol.
	ControllerSTR1 Controller = "STR1"
	// ControllerWaveshare is a Modbus RTU relay board.
	ControllerWaveshare Controller = "Waveshare"
	// ControllerCN7500 is a Modbus RTU PID temperature controller.
	ControllerCN7500 Controller = "CN7500"
)

// AllControllers returns every supported controller kind.
func AllControllers() []Controller {
	return []Controller{ControllerSTR1, ControllerWaveshare, ControllerCN7500}
}

// Known reports whether c is a supported controller.
func (c Controller) Known() bool {
	for _, k := range AllControllers() {
		if c == k {
			return true
		}
	}
	return false
}

// RequiresBinary reports whether devices on this controller only accept On/Off.
func (c Controller) RequiresBinary() bool {
	switch c {
	case ControllerSTR1, ControllerWaveshare, ControllerCN7500:
		return true
	default:
		return false
	}
}

// Device is one controllable or readable hardware point.
type Device struct {
	ID             string     `json:"id" yaml:"id"`
	Name           string     `json:"name" yaml:"name"`
	Port           string     `json:"port" yaml:"port"`
	Addr           uint8      `json:"addr" yaml:"addr"`
	Controller     Controller `json:"controller" yaml:"controller"`
	ControllerAddr uint8      `json:"controller_addr" yaml:"controller_addr"`
	State          State      `json:"state" yaml:"state"`

	// PV is the process value reported by PID controllers.
	PV *float64 `json:"pv" yaml:"pv,omitempty"`
	// SV is the setpoint value for PID controllers.
	SV *float64 `json:"sv" yaml:"sv,omitempty"`
}

// DeepCopy returns an independent copy of the device.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	cpy := *d
	cpy.PV = copyFloat(d.PV)
	cpy.SV = copyFloat(d.SV)
	return &cpy
}

// RTU is the digital model of one control unit and all its devices.
type RTU struct {
	Name    string   `json:"name" yaml:"name"`
	ID      string   `json:"id" yaml:"id"`
	IPAddr  string   `json:"ip_addr" yaml:"ip_addr"`
	Devices []Device `json:"devices" yaml:"devices"`
}

// Clone returns a deep copy of the RTU. Mutating the clone's devices never
// affects the original.
func (r *RTU) Clone() *RTU {
	if r == nil {
		return nil
	}
	cpy := *r
	cpy.Devices = make([]Device, len(r.Devices))
	for i := range r.Devices {
		cpy.Devices[i] = *r.Devices[i].DeepCopy()
	}
	return &cpy
}

// Device returns a pointer to the device with the given ID.
func (r *RTU) Device(id string) (*Device, error) {
	if i := r.indexOf(id); i >= 0 {
		return &r.Devices[i], nil
	}
	return nil, ErrDeviceNotFound
}

// Merge copies each given device over the RTU's device with the same ID.
// Devices the RTU does not know are ignored. Returns how many were merged.
func (r *RTU) Merge(devices []Device) int {
	merged := 0
	for i := range devices {
		if idx := r.indexOf(devices[i].ID); idx >= 0 {
			r.Devices[idx] = *devices[i].DeepCopy()
			merged++
		}
	}
	return merged
}

func (r *RTU) indexOf(id string) int {
	for i := range r.Devices {
		if r.Devices[i].ID == id {
			return i
		}
	}
	return -1
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
