package codec

import (
	"sync"

	"github.com/pgfe/pgfe/oid"
	"github.com/pgfe/pgfe/pgerr"
)

// MaxBuiltinOID bounds the direct-indexed table of well-known codecs;
// anything above it is a user-defined or introspected type that only ever
// lives in the overrides map or the shared cache.
const MaxBuiltinOID = 6000

// builtin is the process-wide, direct-indexed table of codecs for every
// OID this package knows about out of the box. It is populated once by
// init (see builtins.go) and never mutated afterwards: the built-in OID
// table is process-wide and treated as immutable after init.
var builtin [MaxBuiltinOID + 1]*Codec

func registerBuiltin(c *Codec) {
	if int(c.OID) < 0 || int(c.OID) > MaxBuiltinOID {
		panic("codec: builtin OID out of range: " + c.Name)
	}

	builtin[c.OID] = c
}

// Builtin returns the process-wide codec for a well-known OID, if any.
func Builtin(o oid.OID) (*Codec, bool) {
	if int(o) < 0 || int(o) > MaxBuiltinOID {
		return nil, false
	}

	c := builtin[o]
	return c, c != nil
}

// SessionKey identifies the shared, cross-session introspection cache a
// Registry falls back to once its local overrides are exhausted. Two
// connections to the same server and database resolve the same
// non-built-in types without repeating introspection.
type SessionKey struct {
	Address  string
	Database string
}

// SharedCache is a process-wide map of SessionKey to per-OID codec tables,
// guarded by a single mutex since concurrent mutations on one process
// need an external lock.
type SharedCache struct {
	mu sync.RWMutex
	m  map[SessionKey]map[oid.OID]*Codec
}

// NewSharedCache constructs an empty cache. Applications that open many
// connections to the same servers should construct one SharedCache and
// pass it to every NewRegistry call.
func NewSharedCache() *SharedCache {
	return &SharedCache{m: map[SessionKey]map[oid.OID]*Codec{}}
}

func (c *SharedCache) lookup(key SessionKey, o oid.OID) (*Codec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	table, ok := c.m[key]
	if !ok {
		return nil, false
	}

	codec, ok := table[o]
	return codec, ok
}

func (c *SharedCache) store(key SessionKey, o oid.OID, codec *Codec) {
	c.mu.Lock()
	defer c.mu.Unlock()

	table, ok := c.m[key]
	if !ok {
		table = map[oid.OID]*Codec{}
		c.m[key] = table
	}

	table[o] = codec
}

// Registry resolves an OID to a Codec for one connection: the built-in
// table first, then this session's user-registered overrides, then the
// shared cross-session cache of introspected types. It is the data-codec
// configuration passed to NewFrontend alongside Settings.
type Registry struct {
	key       SessionKey
	shared    *SharedCache
	overrides map[oid.OID]*Codec
}

// NewRegistry constructs a Registry for one connection. shared may be nil,
// in which case introspected (non-built-in) types are never cached across
// connections.
func NewRegistry(key SessionKey, shared *SharedCache) *Registry {
	return &Registry{key: key, shared: shared, overrides: map[oid.OID]*Codec{}}
}

// Lookup resolves o in order: built-in table, then session overrides,
// then the shared cache.
func (r *Registry) Lookup(o oid.OID) (*Codec, bool) {
	if c, ok := Builtin(o); ok {
		return c, true
	}

	if c, ok := r.overrides[o]; ok {
		return c, true
	}

	if r.shared != nil {
		if c, ok := r.shared.lookup(r.key, o); ok {
			return c, true
		}
	}

	return nil, false
}

// RegisterUser installs a session-local codec for a non-built-in OID. It
// rejects overriding a built-in OID or re-registering one already present
// in this session's overrides.
func (r *Registry) RegisterUser(c *Codec) error {
	if _, ok := Builtin(c.OID); ok {
		return pgerr.NewInterfaceError("cannot override built-in codec for OID %d", c.OID)
	}

	if _, ok := r.overrides[c.OID]; ok {
		return pgerr.NewInterfaceError("codec for OID %d is already registered", c.OID)
	}

	r.overrides[c.OID] = c
	return nil
}

// RegisterIntrospected stores a codec resolved via a catalog introspection
// query in both this session's overrides and, if configured, the shared
// cross-session cache.
func (r *Registry) RegisterIntrospected(c *Codec) {
	r.overrides[c.OID] = c

	if r.shared != nil {
		r.shared.store(r.key, c.OID, c)
	}
}

// Missing filters oids down to those Lookup cannot currently resolve,
// matching statement.InitTypes' "OIDs with no registered codec" contract.
func (r *Registry) Missing(oids []oid.OID) []oid.OID {
	var missing []oid.OID
	for _, o := range oids {
		if _, ok := r.Lookup(o); !ok {
			missing = append(missing, o)
		}
	}
	return missing
}
