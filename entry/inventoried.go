package entry

import (
	"context"

	"github.com/hupe1980/entitymesh/core"
)

// Inventoried is embedded by entries that own an inventory registry.
type Inventoried struct {
	Base
}

// Inventory returns the registry owned by this entry, creating it on first use.
func (i *Inventoried) Inventory(ctx context.Context) (core.Registry, error) {
	return i.reg.SwitchRegInv(ctx, i.AsRef())
}

// OwnedItems lists every entry stored in the inventory, revived into the
// owner's operation context.
func (i *Inventoried) OwnedItems(ctx context.Context) ([]core.Entry, error) {
	inv, err := i.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.Entry
	for _, cat := range inv.Categories() {
		items, err := cat.ListLive(ctx, i.op)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}
