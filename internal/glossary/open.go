package glossary

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open returns the store for the configured backend. An empty path selects
// the default location under the user config dir.
func Open(backend, path string) (Store, error) {
	if path == "" && backend != BackendMemory {
		def, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = def
		if backend == BackendSQLite {
			path = strings.TrimSuffix(def, filepath.Ext(def)) + ".sqlite"
		}
	}

	switch backend {
	case "", BackendJSON:
		return NewFileStore(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported glossary backend: %s", backend)
	}
}
