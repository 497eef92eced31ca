package hub

import (
	"context"
	"fmt"

	"github.com/nerrad567/iris/internal/rtu"
)

// Plan returns the indexes of incoming devices that need a hardware write:
// those absent from current, or present with a different state.
//
// Only State is compared. A setpoint-only change (sv) is not written here;
// it is stored and reaches hardware on the device's next enact.
func Plan(incoming, current *rtu.RTU) []int {
	states := make(map[string]rtu.State, len(current.Devices))
	for i := range current.Devices {
		states[current.Devices[i].ID] = current.Devices[i].State
	}

	var marked []int
	for i := range incoming.Devices {
		st, ok := states[incoming.Devices[i].ID]
		if ok && st.Equal(incoming.Devices[i].State) {
			continue
		}
		marked = append(marked, i)
	}
	return marked
}

// Apply enacts only the devices Plan marks, in incoming's order. It stops
// at the first failure and leaves the store untouched; when every write
// succeeds the store is replaced by incoming (with read-back values).
//
// Apply must run inside Store.Bracket or Store.Locked so the diff and the
// writes see one consistent store.
func Apply(ctx context.Context, tx *Tx, incoming *rtu.RTU) (int, error) {
	next := incoming.Clone()
	marked := Plan(next, tx.Current())

	for n, i := range marked {
		dev := &next.Devices[i]
		if err := tx.Driver().Enact(ctx, dev); err != nil {
			return n, fmt.Errorf("enacting device %q: %w", dev.ID, err)
		}
	}

	tx.Replace(next)
	return len(marked), nil
}
