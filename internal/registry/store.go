// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package registry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/cobblerd/internal/cache"
	"github.com/tomtom215/cobblerd/internal/logging"
	"github.com/tomtom215/cobblerd/internal/metrics"
	"github.com/tomtom215/cobblerd/internal/validation"
)

// Key prefixes for BadgerDB storage
const (
	systemKeyPrefix = "system:"
	ipKeyPrefix     = "ip:"
)

var (
	// ErrNotFound is returned when no system matches a name or address.
	ErrNotFound = errors.New("system not found")

	// ErrAddressInUse is returned when an IP address is already assigned to
	// another system.
	ErrAddressInUse = errors.New("address already assigned to another system")
)

// System is a provisioned machine known to the daemon.
type System struct {
	UID         string    `json:"uid"`
	Name        string    `json:"name" validate:"required,identity"`
	IPAddresses []string  `json:"ip_addresses,omitempty" validate:"dive,ip"`
	MACAddress  string    `json:"mac_address,omitempty" validate:"omitempty,mac"`
	Profile     string    `json:"profile,omitempty" validate:"max=255"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
}

// Options configures Open.
type Options struct {
	Path     string
	InMemory bool

	// CacheSize > 0 enables an LRU of address lookups in front of the
	// address index, each entry living for CacheTTL.
	CacheSize int
	CacheTTL  time.Duration
}

// identityEntry caches one address lookup. found is false for a cached miss.
type identityEntry struct {
	name  string
	found bool
}

// Store is a BadgerDB-backed system registry with a secondary index from IP
// address to system name.
type Store struct {
	db    *badger.DB
	owned bool
	now   func() time.Time

	// identities is nil when caching is disabled. gen is bumped on every
	// committed write so a lookup that raced a write is not cached.
	identities *cache.LRU[identityEntry]
	gen        atomic.Uint64

	// cacheMu orders remember against invalidate: a lookup is either stored
	// before a write clears the cache or rejected by the generation check.
	cacheMu sync.Mutex
}

// Open opens (or creates) the registry database.
func Open(opts Options) (*Store, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for registry: %w", err)
	}

	s := &Store{db: db, owned: true, now: time.Now}
	if opts.CacheSize > 0 {
		s.identities = cache.NewLRU[identityEntry](opts.CacheSize, opts.CacheTTL)
	}
	if n, err := s.Count(context.Background()); err == nil {
		metrics.RegistrySystems.Set(float64(n))
	}
	return s, nil
}

// New wraps an already open database. Close does not close db.
func New(db *badger.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// NormalizeIP returns the canonical text form of an address, so that
// "::ffff:10.0.0.5" and "10.0.0.5" share one index entry. Unparseable input
// is returned unchanged.
func NormalizeIP(addr string) string {
	ip := net.ParseIP(addr)
	if ip == nil {
		return addr
	}
	return ip.String()
}

// Put creates or replaces a system by name. UID and Created survive
// replacement; Modified is always refreshed.
func (s *Store) Put(ctx context.Context, sys *System) (*System, error) {
	if err := validation.ValidateStruct(sys); err != nil {
		return nil, err
	}

	stored := *sys
	stored.IPAddresses = make([]string, 0, len(sys.IPAddresses))
	seen := make(map[string]struct{}, len(sys.IPAddresses))
	for _, addr := range sys.IPAddresses {
		addr = NormalizeIP(addr)
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		stored.IPAddresses = append(stored.IPAddresses, addr)
	}

	created := false
	err := s.db.Update(func(txn *badger.Txn) error {
		prev, err := getSystem(txn, stored.Name)
		switch {
		case errors.Is(err, ErrNotFound):
			created = true
			stored.UID = uuid.New().String()
			stored.Created = s.now().UTC()
		case err != nil:
			return err
		default:
			stored.UID = prev.UID
			stored.Created = prev.Created
			for _, addr := range prev.IPAddresses {
				if err := txn.Delete([]byte(ipKeyPrefix + addr)); err != nil {
					return fmt.Errorf("delete address index: %w", err)
				}
			}
		}
		stored.Modified = s.now().UTC()

		for _, addr := range stored.IPAddresses {
			owner, err := lookupAddress(txn, addr)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			if err == nil && owner != stored.Name {
				return fmt.Errorf("%w: %s is assigned to %s", ErrAddressInUse, addr, owner)
			}
			if err := txn.Set([]byte(ipKeyPrefix+addr), []byte(stored.Name)); err != nil {
				return fmt.Errorf("set address index: %w", err)
			}
		}

		data, err := json.Marshal(&stored)
		if err != nil {
			return fmt.Errorf("marshal system: %w", err)
		}
		if err := txn.Set([]byte(systemKeyPrefix+stored.Name), data); err != nil {
			return fmt.Errorf("set system: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate()

	if created {
		metrics.RegistrySystems.Inc()
	}
	return &stored, nil
}

// Get returns a system by name.
func (s *Store) Get(ctx context.Context, name string) (*System, error) {
	var sys *System
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		sys, err = getSystem(txn, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sys, nil
}

// FindByIP returns the system that owns addr.
func (s *Store) FindByIP(ctx context.Context, addr string) (*System, error) {
	var sys *System
	err := s.db.View(func(txn *badger.Txn) error {
		name, err := lookupAddress(txn, NormalizeIP(addr))
		if err != nil {
			return err
		}
		sys, err = getSystem(txn, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sys, nil
}

// Delete removes a system and its address index entries.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		sys, err := getSystem(txn, name)
		if err != nil {
			return err
		}
		for _, addr := range sys.IPAddresses {
			if err := txn.Delete([]byte(ipKeyPrefix + addr)); err != nil {
				return fmt.Errorf("delete address index: %w", err)
			}
		}
		if err := txn.Delete([]byte(systemKeyPrefix + name)); err != nil {
			return fmt.Errorf("delete system: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate()
	metrics.RegistrySystems.Dec()
	return nil
}

// List returns every system ordered by name.
func (s *Store) List(ctx context.Context) ([]*System, error) {
	var systems []*System

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(systemKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var sys System
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sys)
			})
			if err != nil {
				return fmt.Errorf("unmarshal system: %w", err)
			}
			systems = append(systems, &sys)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list systems: %w", err)
	}

	return systems, nil
}

// Count returns the number of systems in the registry.
func (s *Store) Count(ctx context.Context) (int, error) {
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(systemKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

// ResolveIdentity maps a source address to a system name. A miss is not an
// error; storage errors are logged and reported as a miss so callers fall
// back to the raw address.
func (s *Store) ResolveIdentity(addr string) (string, bool) {
	addr = NormalizeIP(addr)
	if s.identities != nil {
		if e, ok := s.identities.Get(addr); ok {
			return e.name, e.found
		}
	}

	gen := s.gen.Load()
	var name string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		name, err = lookupAddress(txn, addr)
		return err
	})
	switch {
	case errors.Is(err, ErrNotFound):
		s.remember(gen, addr, identityEntry{})
		return "", false
	case err != nil:
		// Storage errors are not cached.
		logging.Warn().Err(err).Str("addr", addr).Msg("Registry lookup failed, using source address")
		return "", false
	}
	s.remember(gen, addr, identityEntry{name: name, found: true})
	return name, true
}

// remember caches a lookup made at generation gen unless a write has
// committed since.
func (s *Store) remember(gen uint64, addr string, e identityEntry) {
	if s.identities == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.gen.Load() != gen {
		return
	}
	s.identities.Add(addr, e)
}

func (s *Store) invalidate() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.gen.Add(1)
	if s.identities != nil {
		s.identities.Clear()
	}
}

func getSystem(txn *badger.Txn, name string) (*System, error) {
	item, err := txn.Get([]byte(systemKeyPrefix + name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get system: %w", err)
	}

	var sys System
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &sys)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal system: %w", err)
	}
	return &sys, nil
}

func lookupAddress(txn *badger.Txn, addr string) (string, error) {
	item, err := txn.Get([]byte(ipKeyPrefix + addr))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get address index: %w", err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", fmt.Errorf("read address index: %w", err)
	}
	return string(val), nil
}
