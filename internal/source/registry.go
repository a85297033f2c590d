package source

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Addressing says which Config field locates a backend's store.
type Addressing int

const (
	// ByPath backends read a database file named by Config.Path.
	ByPath Addressing = iota
	// ByDSN backends connect with Config.DSN.
	ByDSN
)

// Backend describes a registered store kind.
type Backend struct {
	Kind       string
	Addressing Addressing
	New        func(*slog.Logger) Reader
}

// CheckConfig reports the locator field cfg is missing for this backend.
// Errors name the config key so they read well from petsales.yaml.
func (b Backend) CheckConfig(cfg Config) error {
	switch b.Addressing {
	case ByDSN:
		if cfg.DSN == "" {
			return fmt.Errorf("source.dsn is required for source kind %q", b.Kind)
		}
	default:
		if cfg.Path == "" {
			return fmt.Errorf("source.path is required for source kind %q", b.Kind)
		}
	}
	return nil
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Backend)
)

// Register adds a backend. Backends call it from init().
func Register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[b.Kind] = b
}

// Lookup returns the backend registered for kind.
func Lookup(kind string) (Backend, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := registry[kind]
	return b, ok
}

// NewReader creates an unopened reader of the given kind (nil logger discards).
func NewReader(kind string, logger *slog.Logger) (Reader, error) {
	if kind == "" {
		return nil, fmt.Errorf("source kind not specified")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	b, ok := Lookup(kind)
	if !ok {
		return nil, &UnknownReaderError{Kind: kind, Available: ListKinds()}
	}
	return b.New(logger), nil
}

// ListKinds returns all registered kinds, sorted.
func ListKinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// UnknownReaderError is returned when an unknown source kind is requested.
type UnknownReaderError struct {
	Kind      string
	Available []string
}

func (e *UnknownReaderError) Error() string {
	return fmt.Sprintf("unknown source kind %q\nAvailable kinds: %v\nHint: Check source.kind in petsales.yaml", e.Kind, e.Available)
}
