// Package driver speaks to the physical controllers behind each device.
//
// Three controllers are supported:
//   - STR1: relay board on a framed serial protocol (goburrow/serial)
//   - Waveshare: relay board on Modbus RTU coils (goburrow/modbus)
//   - CN7500: PID controller on Modbus RTU registers (goburrow/modbus)
//
// Every operation opens the serial line, acts on one device, reads the
// result back and closes the line again. The hub holds its store lock
// around every call, so no two operations ever share a port.
//
// Dispatcher implements rtu.Driver and routes each device to the right
// controller by its Controller field.
package driver
