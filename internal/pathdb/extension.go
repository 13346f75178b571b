package pathdb

// Extension is a hook point that lets the host application augment store
// behavior. Extensions are registered on a PathStore and invoked
// synchronously, in registration order, at each named moment. Embedding
// BaseExtension gives no-op defaults so implementations only override the
// hooks they care about.
type Extension interface {
	// ExtendQuery may mutate a scoped query in place before it executes
	// (e.g. to add multi-tenant filters). includeDeleted reports whether
	// the query includes soft-deleted rows.
	ExtendQuery(q *Query, includeDeleted bool)

	// BeforeInsert may mutate the row about to be inserted.
	BeforeInsert(row Row)

	// BeforeUpdate may mutate the column values about to be written.
	BeforeUpdate(values Row)

	// PathsCacheKey may derive a new paths cache key from the given one
	// (e.g. to append a tenant discriminator). Return key unchanged to
	// leave it alone.
	PathsCacheKey(key string) string

	// AvailablePaths may supply a precomputed availability map. The first
	// extension to return a non-empty map short-circuits the store's own
	// computation; that map is authoritative. Return nil (or an empty map)
	// to defer.
	AvailablePaths() map[string]bool
}

// BaseExtension provides no-op implementations of every Extension hook.
type BaseExtension struct{}

func (BaseExtension) ExtendQuery(*Query, bool)            {}
func (BaseExtension) BeforeInsert(Row)                    {}
func (BaseExtension) BeforeUpdate(Row)                    {}
func (BaseExtension) PathsCacheKey(key string) string     { return key }
func (BaseExtension) AvailablePaths() map[string]bool     { return nil }

var _ Extension = BaseExtension{}
