package store

import (
	"fmt"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendFile       = "file"
	BackendSQLite     = "sqlite"
	BackendSQLitePure = "sqlite-pure"
	BackendMemory     = "memory"
)

// Open returns the backend named by kind rooted at statePath.
func Open(kind, statePath string) (Store, error) {
	switch kind {
	case "", BackendFile:
		return OpenFile(filepath.Join(statePath, "store"))
	case BackendSQLite:
		return OpenSQLite(filepath.Join(statePath, "system", "taskly.db"), DriverCGO)
	case BackendSQLitePure:
		return OpenSQLite(filepath.Join(statePath, "system", "taskly.db"), DriverPure)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}
}
