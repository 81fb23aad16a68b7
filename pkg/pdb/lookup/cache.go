// Package lookup answers single symbol address queries through an external
// query engine and memoizes the answers per database.
package lookup

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/pdbsym/pkg/util"
)

type Result struct {
	RVA  uint32
	Size uint64
}

type entry struct {
	// path keeps the casing of the first lookup for the database.
	path    string
	symbols map[string]Result
	conn    *connection
}

type connection struct {
	session Session
	scope   Scope
}

// Cache is safe for concurrent use. All cache and engine access is
// serialized.
type Cache struct {
	logger  log.Logger
	metrics *metrics
	loader  EngineLoader

	mu      sync.Mutex
	engine  Engine
	entries map[string]*entry

	// connected counts the entries holding an engine connection.
	connected int
}

func NewCache(logger log.Logger, reg prometheus.Registerer, loader EngineLoader) *Cache {
	if logger == nil {
		logger = util.Logger
	}
	return &Cache{
		logger:  logger,
		metrics: newMetrics(reg),
		loader:  loader,
		entries: make(map[string]*entry),
	}
}

func normalize(s string) string {
	return strings.ToLower(s)
}

// Lookup returns the address and length of the first symbol named name in
// the database at path. Names and paths are matched case-insensitively
// against the cache. Failed lookups are not cached. An empty path never
// reaches the cache or the engine.
func (c *Cache) Lookup(name, path string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if path == "" {
		c.metrics.lookups.WithLabelValues(resultNotFound).Inc()
		return Result{}, ErrNotFound
	}

	key := normalize(path)
	e, ok := c.entries[key]
	if !ok {
		e = &entry{path: path, symbols: make(map[string]Result)}
		c.entries[key] = e
	}

	nameKey := normalize(name)
	if r, ok := e.symbols[nameKey]; ok {
		c.metrics.lookups.WithLabelValues(resultHit).Inc()
		return r, nil
	}

	r, err := c.query(e, name)
	switch {
	case err == nil:
		e.symbols[nameKey] = r
		c.metrics.lookups.WithLabelValues(resultFound).Inc()
	case errors.Is(err, ErrNotFound):
		c.metrics.lookups.WithLabelValues(resultNotFound).Inc()
	default:
		c.metrics.lookups.WithLabelValues(resultError).Inc()
		level.Warn(c.logger).Log("msg", "symbol lookup failed", "symbol", name, "path", path, "err", err)
	}
	return r, err
}

// AddressRVAFromSymbol is Lookup with every failure reported as a zero
// address and length.
func (c *Cache) AddressRVAFromSymbol(name, path string) (uint32, uint64) {
	r, err := c.Lookup(name, path)
	if err != nil {
		return 0, 0
	}
	return r.RVA, r.Size
}

// Clear drops every cached entry and closes the engine connections. The
// next lookup reloads the engine.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.conn == nil {
			continue
		}
		if err := e.conn.session.Close(); err != nil {
			level.Warn(c.logger).Log("msg", "failed to close query session", "path", e.path, "err", err)
		}
	}
	c.entries = make(map[string]*entry)
	c.engine = nil
	c.connected = 0
	c.metrics.cachedPaths.Set(0)
}

func (c *Cache) query(e *entry, name string) (Result, error) {
	conn, err := c.connect(e)
	if err != nil {
		return Result{}, err
	}

	c.metrics.engineQueries.Inc()
	children, err := conn.scope.FindChildren(name)
	if err != nil {
		return Result{}, &EngineError{Stage: StageFindChildren, Path: e.path, Err: err}
	}
	for {
		sym, ok := children.Next()
		if !ok {
			return Result{}, ErrNotFound
		}
		rva, ok := sym.RelativeVirtualAddress()
		if !ok || rva == 0 {
			continue
		}
		return Result{RVA: rva, Size: sym.Length()}, nil
	}
}

// connect returns the connection of e, establishing it on first use. A failed
// attempt leaves nothing behind so the next lookup retries.
func (c *Cache) connect(e *entry) (*connection, error) {
	if e.conn != nil {
		return e.conn, nil
	}

	conn, err := c.dial(e.path)
	if err != nil {
		c.metrics.connections.WithLabelValues(statusError).Inc()
		return nil, err
	}
	c.metrics.connections.WithLabelValues(statusSuccess).Inc()
	level.Debug(c.logger).Log("msg", "connected to query engine", "path", e.path)
	e.conn = conn
	c.connected++
	c.metrics.cachedPaths.Set(float64(c.connected))
	return conn, nil
}

func (c *Cache) dial(path string) (*connection, error) {
	if c.engine == nil {
		if c.loader == nil {
			return nil, &EngineError{Stage: StageLoadEngine, Path: path, Err: errors.New("no engine loader")}
		}
		engine, err := c.loader()
		if err != nil {
			return nil, &EngineError{Stage: StageLoadEngine, Path: path, Err: err}
		}
		c.engine = engine
	}

	source, err := c.engine.LoadDataFromPDB(path)
	if err != nil {
		return nil, &EngineError{Stage: StageLoadDatabase, Path: path, Err: err}
	}
	session, err := source.OpenSession()
	if err != nil {
		return nil, &EngineError{Stage: StageOpenSession, Path: path, Err: err}
	}
	scope, err := session.GlobalScope()
	if err != nil {
		_ = session.Close()
		return nil, &EngineError{Stage: StageGlobalScope, Path: path, Err: err}
	}
	return &connection{session: session, scope: scope}, nil
}
