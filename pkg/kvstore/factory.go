package kvstore

import "fmt"

// Config contains configuration for creating a store
type Config struct {
	// DataDir is required for file-based stores
	DataDir string
}

// NewStore creates a store based on the persistence type
func NewStore(persistenceType string, config Config) (Store, error) {
	switch persistenceType {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		if config.DataDir == "" {
			return nil, fmt.Errorf("dataDir required for file store")
		}
		return NewFileStore(config.DataDir)
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: memory, file)", persistenceType)
	}
}
