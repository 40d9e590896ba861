package registry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hupe1980/entitymesh/core"
	"github.com/hupe1980/entitymesh/logging"
)

// pendingNode is one hit-list entry: a source entry paired with the
// destination record created (or relinked) for it. Source entries are never
// repointed; the pairing is the only link between the two sides.
type pendingNode struct {
	typ      core.EntryType
	from     core.Ref
	to       core.Ref
	source   core.Entry
	dest     core.Registry
	destCat  core.Category
	relinked bool
}

type insinuation struct {
	hooks   core.InsinuateHooks
	visited map[refKey]*pendingNode
	nodes   []*pendingNode
	mapping *refMapping
	log     logging.Logger
}

// Insinuate copies src into dest together with every entry reachable through
// AssocEntries and, for inventoried entries, their inventory contents. Shared
// substructure is copied once; cycles are walked once per node. All
// destination records are created before any of them is finalized, and every
// embedded reference to a migrated entry is rewritten to its destination copy.
//
// The returned entry is resolved from dest into op, or a new context when op
// is nil. Insinuation is not atomic: an error part way leaves the records
// created so far in place.
func Insinuate(ctx context.Context, src core.Entry, dest core.Registry, op *core.OpCtx, hooks *core.InsinuateHooks) (core.Entry, error) {
	tracer, logger := telemetryOf(dest)
	ctx, span := tracer.Start(ctx, "registry.Insinuate", trace.WithAttributes(
		attribute.String("entitymesh.source", src.AsRef().String()),
		attribute.String("entitymesh.destination", dest.Name()),
	))
	defer span.End()

	start := time.Now()
	ins := &insinuation{
		visited: map[refKey]*pendingNode{},
		mapping: newRefMapping(),
		log:     logger,
	}
	if hooks != nil {
		ins.hooks = *hooks
	}

	result, err := ins.run(ctx, src, dest, op)

	relinked := 0
	for _, n := range ins.nodes {
		if n.relinked {
			relinked++
		}
	}
	span.SetAttributes(
		attribute.Int("entitymesh.nodes", len(ins.nodes)),
		attribute.Int("entitymesh.relinked", relinked),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if ml, ok := logger.(*logging.MeshLogger); ok {
		ml.WithOperation("insinuate").LogInsinuation(src.AsRef().String(), dest.Name(), len(ins.nodes), relinked, time.Since(start), err)
	} else if err != nil {
		logger.Error("Insinuation failed", "root", src.AsRef().String(), "destination", dest.Name(), "error", err)
	}
	return result, err
}

func (ins *insinuation) run(ctx context.Context, src core.Entry, dest core.Registry, op *core.OpCtx) (core.Entry, error) {
	fresh, ok := src.Refreshed(ctx, core.NewOpCtx())
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrDeletedEntry, src.AsRef())
	}

	if err := ins.walk(ctx, fresh, dest); err != nil {
		return nil, err
	}
	if err := ins.finalize(ctx); err != nil {
		return nil, err
	}

	if op == nil {
		op = core.NewOpCtx()
	}
	root := ins.nodes[0]
	result, ok := dest.Resolve(ctx, op, exactRef(root.to))
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrInsinuationIncomplete, root.to)
	}

	ins.notify(ctx, op)
	return result, nil
}

// walk visits n depth first. Nodes are marked before recursing so cycles and
// diamonds terminate with a single copy.
func (ins *insinuation) walk(ctx context.Context, n core.Entry, dest core.Registry) error {
	key := refKey{reg: n.Registry().Name(), id: n.RegistryID()}
	if _, seen := ins.visited[key]; seen {
		return nil
	}

	destCat, ok := dest.Category(n.EntryType())
	if !ok {
		return fmt.Errorf("insinuate into %s: %w: %s", dest.Name(), core.ErrCategoryMissing, n.EntryType())
	}
	node := &pendingNode{
		typ:     n.EntryType(),
		from:    n.AsRef(),
		source:  n,
		dest:    dest,
		destCat: destCat,
	}
	ins.visited[key] = node

	if ins.hooks.Relinker != nil {
		target, err := ins.hooks.Relinker(ctx, n, dest, destCat)
		if err != nil {
			return fmt.Errorf("relink %s: %w", node.from, err)
		}
		if target != nil {
			if target.EntryType() != n.EntryType() {
				return fmt.Errorf("relink %s: %w: got %s", node.from, core.ErrTypeMismatch, target.EntryType())
			}
			node.to = target.AsRef()
			node.relinked = true
		}
	}
	if !node.relinked {
		ref, err := destCat.CreateRaw(ctx, n.Save())
		if err != nil {
			return fmt.Errorf("insinuate %s: %w", node.from, err)
		}
		node.to = ref
	}
	ins.nodes = append(ins.nodes, node)
	ins.mapping.add(node.from, node.to)

	// Inventory first, so an entry that is both owned and associated lands in
	// the new owner's inventory rather than in dest.
	if inv, ok := n.(core.InventoriedEntry); ok && (!node.relinked || ins.hooks.IncludeRelinkedInventories) {
		if err := ins.walkInventory(ctx, inv, node); err != nil {
			return err
		}
	}

	assoc, err := n.AssocEntries(ctx)
	if err != nil {
		return fmt.Errorf("assoc entries of %s: %w", node.from, err)
	}
	for _, child := range assoc {
		if err := ins.walk(ctx, child, dest); err != nil {
			return err
		}
	}
	return nil
}

func (ins *insinuation) walkInventory(ctx context.Context, inv core.InventoriedEntry, node *pendingNode) error {
	items, err := inv.OwnedItems(ctx)
	if err != nil {
		return fmt.Errorf("owned items of %s: %w", node.from, err)
	}
	if len(items) == 0 {
		return nil
	}
	destInv, err := node.dest.SwitchRegInv(ctx, node.to)
	if err != nil {
		return fmt.Errorf("inventory of %s: %w", node.to, err)
	}
	for _, item := range items {
		if err := ins.walk(ctx, item, destInv); err != nil {
			return err
		}
	}
	return nil
}

// finalize rewrites and writes every created destination record. Relinked
// nodes are left untouched.
func (ins *insinuation) finalize(ctx context.Context) error {
	for _, n := range ins.nodes {
		if n.relinked {
			continue
		}
		mid := &core.MidInsinuation{
			Type:    n.typ,
			From:    n.from,
			To:      n.to,
			Source:  n.source,
			Pending: ins.mapping.rewriteRecord(n.source.Save(), n.from.RegName),
		}
		if ins.hooks.PreFinalWrite != nil {
			if err := ins.hooks.PreFinalWrite(ctx, mid, n.dest, n.destCat); err != nil {
				return fmt.Errorf("pre final write %s: %w", n.from, err)
			}
		}
		if h := n.dest.Hooks().PreFinalWrite; h != nil {
			if err := h(ctx, mid, n.dest, n.destCat); err != nil {
				return fmt.Errorf("pre final write %s: %w", n.from, err)
			}
		}
		written, err := n.destCat.WriteRaw(ctx, n.to.ID, mid.Pending)
		if err != nil {
			return fmt.Errorf("final write %s: %w", n.to, err)
		}
		if !written {
			ins.log.Error("Insinuated record vanished before its final write", "from", n.from.String(), "to", n.to.String())
		}
	}
	return nil
}

// notify re-resolves every migrated entry into op and fires post write hooks.
func (ins *insinuation) notify(ctx context.Context, op *core.OpCtx) {
	for _, n := range ins.nodes {
		item, ok := n.dest.Resolve(ctx, op, exactRef(n.to))
		if !ok {
			ins.log.Error("Insinuated entry could not be resolved; it was not created or was deleted during insinuation",
				"from", n.from.String(), "to", n.to.String())
			continue
		}
		rec := core.InsinuationRecord{Type: n.typ, From: n.from, NewItem: item}
		reg := item.Registry()
		cat, _ := reg.Category(n.typ)
		if ins.hooks.PostFinalWrite != nil {
			if err := ins.hooks.PostFinalWrite(ctx, rec, reg, cat); err != nil {
				ins.log.Warn("Post final write hook failed", "entry", n.to.String(), "error", err)
			}
		}
		if h := reg.Hooks().PostFinalWrite; h != nil {
			if err := h(ctx, rec, reg, cat); err != nil {
				ins.log.Warn("Registry post final write hook failed", "entry", n.to.String(), "error", err)
			}
		}
	}
}

// exactRef strips the fallback lid so a deleted record cannot silently resolve
// to a namesake.
func exactRef(r core.Ref) core.Ref {
	return core.Ref{ID: r.ID, Type: r.Type, RegName: r.RegName}
}

func telemetryOf(reg core.Registry) (trace.Tracer, logging.Logger) {
	if r, ok := reg.(*Registry); ok {
		return r.env.tracer, r.Logger()
	}
	return noop.NewTracerProvider().Tracer(tracerName), logging.NoOpLogger{}
}
