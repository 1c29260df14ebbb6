package assetsource

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrAlreadyImported is returned when an asset is recorded twice.
var ErrAlreadyImported = errors.New("asset is already imported")

// ImportedAsset links a remote asset to its local copy.
type ImportedAsset struct {
	AssetSourceIdentifier string
	RemoteAssetIdentifier string
	LocalAssetIdentifier  string
	ImportedAt            time.Time
}

// ImportedAssetRepository looks up imported assets. FindOne returns nil and
// no error when the asset was never imported.
type ImportedAssetRepository interface {
	FindOne(ctx context.Context, assetSourceIdentifier, remoteAssetIdentifier string) (*ImportedAsset, error)
}

// ImportedAssetStore is an ImportedAssetRepository that can record imports.
type ImportedAssetStore interface {
	ImportedAssetRepository
	Add(ctx context.Context, asset ImportedAsset) error
}

type importKey struct {
	source, remote string
}

// MemoryImportedAssets keeps imported assets in memory.
type MemoryImportedAssets struct {
	mu     sync.RWMutex
	assets map[importKey]ImportedAsset
}

// NewMemoryImportedAssets returns an empty store.
func NewMemoryImportedAssets() *MemoryImportedAssets {
	return &MemoryImportedAssets{assets: make(map[importKey]ImportedAsset)}
}

func (m *MemoryImportedAssets) FindOne(_ context.Context, assetSourceIdentifier, remoteAssetIdentifier string) (*ImportedAsset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	asset, ok := m.assets[importKey{assetSourceIdentifier, remoteAssetIdentifier}]
	if !ok {
		return nil, nil
	}
	return &asset, nil
}

func (m *MemoryImportedAssets) Add(_ context.Context, asset ImportedAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.assets == nil {
		m.assets = make(map[importKey]ImportedAsset)
	}
	key := importKey{asset.AssetSourceIdentifier, asset.RemoteAssetIdentifier}
	if _, ok := m.assets[key]; ok {
		return ErrAlreadyImported
	}
	if asset.ImportedAt.IsZero() {
		asset.ImportedAt = time.Now().UTC()
	}
	m.assets[key] = asset
	return nil
}

var _ ImportedAssetStore = (*MemoryImportedAssets)(nil)
