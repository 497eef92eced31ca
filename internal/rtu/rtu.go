package rtu

import (
	"context"
	"errors"
	"fmt"
)

// Driver talks to physical hardware for one device at a time.
//
// Update reads hardware into d. Enact writes d's desired state to hardware
// and then reads the result back into d. Implementations may leave d
// partially modified on error; callers that care pass a copy.
type Driver interface {
	Update(ctx context.Context, d *Device) error
	Enact(ctx context.Context, d *Device) error
}

// Update refreshes every device from hardware, in order.
//
// A device whose read fails keeps its previous values; the remaining
// devices are still refreshed. Failures are joined into the returned error.
func (r *RTU) Update(ctx context.Context, drv Driver) error {
	var errs []error
	for i := range r.Devices {
		cpy := r.Devices[i].DeepCopy()
		if err := drv.Update(ctx, cpy); err != nil {
			errs = append(errs, fmt.Errorf("updating device %q: %w", r.Devices[i].ID, err))
			continue
		}
		r.Devices[i] = *cpy
	}
	return errors.Join(errs...)
}

// Enact writes every device to hardware, in order, stopping at the first
// failure. Devices enacted before the failure keep their read-back values.
func (r *RTU) Enact(ctx context.Context, drv Driver) error {
	for i := range r.Devices {
		cpy := r.Devices[i].DeepCopy()
		if err := drv.Enact(ctx, cpy); err != nil {
			return fmt.Errorf("enacting device %q: %w", r.Devices[i].ID, err)
		}
		r.Devices[i] = *cpy
	}
	return nil
}
