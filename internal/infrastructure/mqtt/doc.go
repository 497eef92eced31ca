// Package mqtt provides the optional MQTT mirror for the Iris hub.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained publishing of RTU snapshots, per-device state and lock state
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// The mirror is one-way. Websocket clients remain the only way to command
// hardware, and a broker outage never affects them.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	mirror := mqtt.NewMirror(client, client.Topics(), byte(cfg.MQTT.QoS))
//	mirror.PublishSnapshot(snapshot)
package mqtt
