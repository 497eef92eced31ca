// Package rtu models one remote terminal unit and the devices wired to it.
//
// An RTU is the hub's single source of truth for desired and last-known
// hardware state. It is generated once from the topology file at startup
// (see Generate) and afterwards lives only in memory, owned by the hub's
// store.
//
// This package knows nothing about serial lines or Modbus. Hardware access
// goes through the Driver interface, implemented by package driver, so the
// RTU-level Update and Enact operations can be exercised with fakes.
//
// Topology file example:
//
//	name: Main Brewhouse RTU
//	id: main-rtu
//	ip_addr: 192.168.0.34
//	devices:
//	  - id: pump
//	    name: Pump
//	    port: /dev/ttyUSB0
//	    addr: 0
//	    controller: STR1
//	    controller_addr: 254
//	    state: Off
package rtu
