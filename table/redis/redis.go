// Package redis provides a core.Backend storing each (registry, entry type)
// table as one Redis hash keyed by record id, with JSON encoded values.
package redis

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hupe1980/entitymesh/core"
)

// DefaultPrefix namespaces every hash key.
const DefaultPrefix = "entitymesh"

// Options configures the Redis connection.
type Options struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// Prefix namespaces hash keys. Defaults to DefaultPrefix.
	Prefix string

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration
}

// Backend implements core.Backend on top of go-redis/v9.
type Backend struct {
	client *goredis.Client
	prefix string
	owned  bool
}

var _ core.Backend = (*Backend)(nil)

// NewBackend connects to Redis and verifies the connection with a ping.
func NewBackend(opts Options) (*Backend, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 3 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 3 * time.Second
	}

	redisOpts, err := goredis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if opts.TLS != nil {
		redisOpts.TLSConfig = opts.TLS
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := goredis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	b := NewBackendFromClient(client, opts.Prefix)
	b.owned = true
	return b, nil
}

// NewBackendFromClient wraps an existing client. Close leaves the client open.
func NewBackendFromClient(client *goredis.Client, prefix string) *Backend {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Backend{client: client, prefix: prefix}
}

// Table returns the hash-backed table for (regName, t).
func (b *Backend) Table(_ context.Context, regName string, t core.EntryType) (core.Table, error) {
	return &Table{client: b.client, key: fmt.Sprintf("%s:%s:%s", b.prefix, regName, t)}, nil
}

// Close closes the client if the backend created it.
func (b *Backend) Close() error {
	if !b.owned {
		return nil
	}
	return b.client.Close()
}

// Table is one Redis hash. Scan order follows HSCAN and is unspecified.
type Table struct {
	client *goredis.Client
	key    string
}

var _ core.Table = (*Table)(nil)

// Key returns the hash key backing the table.
func (t *Table) Key() string { return t.key }

func (t *Table) Get(ctx context.Context, id string) (core.Record, bool, error) {
	raw, err := t.client.HGet(ctx, t.key, id).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("hget %s: %w", t.key, err)
	}
	rec, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (t *Table) Put(ctx context.Context, id string, rec core.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", id, err)
	}
	if err := t.client.HSet(ctx, t.key, id, data).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", t.key, err)
	}
	return nil
}

func (t *Table) Delete(ctx context.Context, id string) (core.Record, bool, error) {
	var get *goredis.StringCmd
	_, err := t.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		get = pipe.HGet(ctx, t.key, id)
		pipe.HDel(ctx, t.key, id)
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, false, fmt.Errorf("hdel %s: %w", t.key, err)
	}
	raw, err := get.Result()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("hdel %s: %w", t.key, err)
	}
	rec, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (t *Table) Has(ctx context.Context, id string) (bool, error) {
	ok, err := t.client.HExists(ctx, t.key, id).Result()
	if err != nil {
		return false, fmt.Errorf("hexists %s: %w", t.key, err)
	}
	return ok, nil
}

// Scan walks the hash with HSCAN. HSCAN may return a field more than once
// while the hash is rehashed; each id is yielded once.
func (t *Table) Scan(ctx context.Context, fn func(id string, rec core.Record) bool) error {
	var cursor uint64
	seen := map[string]struct{}{}
	for {
		kvs, next, err := t.client.HScan(ctx, t.key, cursor, "", 100).Result()
		if err != nil {
			return fmt.Errorf("hscan %s: %w", t.key, err)
		}
		more, err := yieldPage(kvs, seen, fn)
		if err != nil || !more {
			return err
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// yieldPage hands one HSCAN page of field/value pairs to fn, skipping ids in
// seen. It reports false once fn stops the scan.
func yieldPage(kvs []string, seen map[string]struct{}, fn func(id string, rec core.Record) bool) (bool, error) {
	for i := 0; i+1 < len(kvs); i += 2 {
		id := kvs[i]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rec, err := decode(kvs[i+1])
		if err != nil {
			return false, err
		}
		if !fn(id, rec) {
			return false, nil
		}
	}
	return true, nil
}

func decode(raw string) (core.Record, error) {
	var rec core.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	if rec == nil {
		rec = core.Record{}
	}
	return rec, nil
}
