package certcache

import (
	"fmt"

	"github.com/adamscao/skillguard/internal/config"
)

// OpenStore builds the backend selected by cfg
func OpenStore(cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Dir)
	case config.BackendLevelDB:
		return NewLevelDBStore(cfg.LevelDBPath)
	case config.BackendSQLite:
		return NewSQLStore(cfg.SQLitePath)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
