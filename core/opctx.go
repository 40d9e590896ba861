package core

// OpCtx caches the live entries revived during one logical operation (a
// resolve, a create, an insinuation). Resolving the same (registry, id) twice
// within one OpCtx yields the identical entry, which also breaks reference
// cycles during hydration.
//
// An OpCtx is not safe for concurrent use and must not be shared between
// unrelated call trees; doing so leaks identity between operations.
type OpCtx struct {
	entries map[entryKey]Entry
}

type entryKey struct {
	reg string
	id  string
}

// NewOpCtx returns an empty operation context.
func NewOpCtx() *OpCtx {
	return &OpCtx{entries: map[entryKey]Entry{}}
}

// Get returns the entry revived for (regName, id), if any.
func (c *OpCtx) Get(regName, id string) (Entry, bool) {
	e, ok := c.entries[entryKey{reg: regName, id: id}]
	return e, ok
}

// Set registers e under its registry name and id.
func (c *OpCtx) Set(e Entry) {
	c.entries[entryKey{reg: e.Registry().Name(), id: e.RegistryID()}] = e
}

// Delete evicts the entry for (regName, id).
func (c *OpCtx) Delete(regName, id string) {
	delete(c.entries, entryKey{reg: regName, id: id})
}

// Len returns the number of cached entries.
func (c *OpCtx) Len() int { return len(c.entries) }
