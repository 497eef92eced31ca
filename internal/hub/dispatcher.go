package hub

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/iris/internal/rtu"
)

// Dispatcher executes inbound commands against the store. It must only be
// called from inside Store.Bracket or Store.Locked.
type Dispatcher struct {
	loader rtu.Loader
	sleep  func(context.Context, time.Duration)
	logger Logger
}

// NewDispatcher creates a Dispatcher. loader regenerates the RTU on reset.
func NewDispatcher(loader rtu.Loader, logger Logger) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		loader: loader,
		sleep:  pause,
		logger: logger,
	}
}

// pause waits for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// batchResult splits a multi-device operation into what worked and what did not.
type batchResult struct {
	succeeded []rtu.Device
	failed    []rtu.Device
}

// Handle runs cmd and returns the event to broadcast.
func (d *Dispatcher) Handle(ctx context.Context, tx *Tx, cmd Command) OutboundEvent {
	d.logger.Info("handling event", "event_type", cmd.Type())

	switch c := cmd.(type) {
	case DeviceUpdate:
		return d.deviceUpdate(ctx, tx, c)
	case DeviceEnact:
		return d.deviceEnact(ctx, tx, c)
	case RTUEnact:
		return d.rtuEnact(ctx, tx, c)
	case RTUReset:
		return d.rtuReset(ctx, tx)
	default:
		return ErrorEvent(fmt.Sprintf("unsupported event %q", cmd.Type()), nil)
	}
}

func (d *Dispatcher) deviceUpdate(ctx context.Context, tx *Tx, c DeviceUpdate) OutboundEvent {
	if len(c.Devices) == 0 {
		return d.emptyBatch(EventDeviceUpdate)
	}

	res := d.run(ctx, tx, c.Devices, 0, false, tx.Driver().Update)
	return d.summarise(res, ResponseDeviceUpdateResult, "updated")
}

func (d *Dispatcher) deviceEnact(ctx context.Context, tx *Tx, c DeviceEnact) OutboundEvent {
	if len(c.Devices) == 0 {
		return d.emptyBatch(EventDeviceEnact)
	}

	res := d.run(ctx, tx, c.Devices, c.Pace, c.HaltOnError, tx.Driver().Enact)
	return d.summarise(res, ResponseDeviceEnactResult, "enacted")
}

// run applies op to each device in order. Successful devices are merged
// back into the store. pace is slept between devices, never before the
// first or after the last, and never after a halt.
func (d *Dispatcher) run(
	ctx context.Context,
	tx *Tx,
	devices []rtu.Device,
	pace time.Duration,
	halt bool,
	op func(context.Context, *rtu.Device) error,
) batchResult {
	var res batchResult

	for i := range devices {
		if i > 0 && pace > 0 {
			d.sleep(ctx, pace)
		}

		dev := devices[i].DeepCopy()
		err := rtu.ValidateDevice(dev)
		if err == nil {
			err = op(ctx, dev)
		}

		if err != nil {
			d.logger.Error("device operation failed", "device_id", devices[i].ID, "error", err)
			res.failed = append(res.failed, devices[i])
			if halt {
				d.logger.Warn("halting batch after error", "device_id", devices[i].ID,
					"skipped", len(devices)-i-1)
				break
			}
			continue
		}

		d.logger.Debug("device operation succeeded", "device_id", dev.ID)
		res.succeeded = append(res.succeeded, *dev)
	}

	if len(res.succeeded) > 0 {
		tx.Merge(res.succeeded)
	}
	return res
}

func (d *Dispatcher) summarise(res batchResult, ok ResponseType, verb string) OutboundEvent {
	if len(res.failed) > 0 {
		return ErrorEvent(
			fmt.Sprintf("%d devices encountered errors. See logs for more details.", len(res.failed)),
			DevicesPayload{Devices: res.failed},
		)
	}
	msg := fmt.Sprintf("%d devices %s successfully", len(res.succeeded), verb)
	d.logger.Info(msg)
	return ResultEvent(ok, msg, res.succeeded)
}

func (d *Dispatcher) emptyBatch(t EventType) OutboundEvent {
	msg := fmt.Sprintf("Got %s event with 0 devices", t)
	d.logger.Warn(msg)
	return ErrorEvent(msg, DevicesPayload{Devices: []rtu.Device{}})
}

// rtuEnact writes every device of the attached snapshot, stopping at the
// first failure. On success the written devices are merged into the store.
func (d *Dispatcher) rtuEnact(ctx context.Context, tx *Tx, c RTUEnact) OutboundEvent {
	if c.RTU == nil {
		return ErrorEvent("RTUEnact event requires an attached RTU", nil)
	}
	if err := rtu.Validate(c.RTU, d.logger); err != nil {
		return ErrorEvent(fmt.Sprintf("RTU enact rejected: %v", err), nil)
	}

	next := c.RTU.Clone()
	if err := next.Enact(ctx, tx.Driver()); err != nil {
		d.logger.Error("rtu enact failed", "error", err)
		return ErrorEvent(fmt.Sprintf("RTU enact failed: %v", err), nil)
	}

	tx.Merge(next.Devices)
	return ResultEvent(ResponseRTUEnactResult, "RTU enacted successfully", nil)
}

// rtuReset regenerates from configuration, ignoring in-memory drift, and
// enacts the result in full.
func (d *Dispatcher) rtuReset(ctx context.Context, tx *Tx) OutboundEvent {
	if d.loader == nil {
		return ErrorEvent("RTU reset is not configured", nil)
	}

	fresh, err := d.loader()
	if err != nil {
		d.logger.Error("rtu reset could not regenerate configuration", "error", err)
		return ErrorEvent(fmt.Sprintf("RTU reset failed: %v", err), nil)
	}

	if err := fresh.Enact(ctx, tx.Driver()); err != nil {
		d.logger.Error("rtu reset enact failed", "error", err)
		return ErrorEvent(fmt.Sprintf("RTU reset failed: %v", err), DevicesPayload{Devices: fresh.Devices})
	}

	tx.Replace(fresh)
	msg := fmt.Sprintf("%d devices enacted successfully", len(fresh.Devices))
	d.logger.Info("rtu reset to configured defaults", "devices", len(fresh.Devices))
	return ResultEvent(ResponseDeviceEnactResult, msg, tx.Snapshot().Devices)
}
