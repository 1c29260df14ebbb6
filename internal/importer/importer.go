// Package importer copies remote assets into a local directory and records
// them as imported.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	mediawiki "github.com/eznix86/mediawiki-assetsource"
	"github.com/eznix86/mediawiki-assetsource/assetsource"
)

// ErrAlreadyImported is returned for assets that have a local copy.
var ErrAlreadyImported = assetsource.ErrAlreadyImported

// Result describes one finished import.
type Result struct {
	Asset     assetsource.ImportedAsset
	Path      string
	Bytes     int64
	MediaType string
}

// Importer stores imported files under Directory.
type Importer struct {
	Directory string
	Store     assetsource.ImportedAssetStore
	Logger    mediawiki.Logger

	newID func() string
	now   func() time.Time
}

// New returns an importer writing to dir and recording imports in store.
func New(dir string, store assetsource.ImportedAssetStore, logger mediawiki.Logger) *Importer {
	return &Importer{Directory: dir, Store: store, Logger: logger}
}

// Import fetches identifier from src and copies its original file.
func (im *Importer) Import(ctx context.Context, src *assetsource.AssetSource, identifier string) (*Result, error) {
	if im.Store == nil {
		return nil, fmt.Errorf("imported asset store is not configured")
	}
	proxy, err := src.AssetProxyRepository().GetAssetProxy(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return im.ImportProxy(ctx, proxy)
}

// ImportProxy copies the original file of proxy.
func (im *Importer) ImportProxy(ctx context.Context, proxy *assetsource.AssetProxy) (*Result, error) {
	sourceID := proxy.AssetSource().Identifier()
	existing, err := im.Store.FindOne(ctx, sourceID, proxy.Identifier())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s as %s", ErrAlreadyImported, proxy.Identifier(), existing.LocalAssetIdentifier)
	}

	if err := os.MkdirAll(im.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create import directory: %w", err)
	}

	localID := im.id()
	target := filepath.Join(im.Directory, localID+strings.ToLower(path.Ext(proxy.Filename())))

	im.logDebug("Import started",
		"asset_source", sourceID,
		"identifier", proxy.Identifier(),
		"target", target,
	)

	n, err := im.copy(ctx, proxy, target)
	if err != nil {
		return nil, err
	}

	asset := assetsource.ImportedAsset{
		AssetSourceIdentifier: sourceID,
		RemoteAssetIdentifier: proxy.Identifier(),
		LocalAssetIdentifier:  localID,
		ImportedAt:            im.clock().UTC(),
	}
	if err := im.Store.Add(ctx, asset); err != nil {
		_ = os.Remove(target)
		return nil, fmt.Errorf("record import of %s: %w", proxy.Identifier(), err)
	}

	im.logInfo("Asset imported",
		"asset_source", sourceID,
		"identifier", proxy.Identifier(),
		"local_identifier", localID,
		"bytes", n,
	)
	return &Result{Asset: asset, Path: target, Bytes: n, MediaType: proxy.MediaType()}, nil
}

// copy streams the file into a temporary file that is renamed to target
// once complete.
func (im *Importer) copy(ctx context.Context, proxy *assetsource.AssetProxy, target string) (int64, error) {
	stream, err := proxy.ImportStream(ctx)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", proxy.Identifier(), err)
	}
	defer stream.Close()

	tmp, err := os.CreateTemp(im.Directory, ".import-*")
	if err != nil {
		return 0, fmt.Errorf("create temporary file: %w", err)
	}
	n, err := io.Copy(tmp, stream)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("download %s: %w", proxy.Identifier(), err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("move %s into place: %w", proxy.Identifier(), err)
	}
	return n, nil
}

// IsAlreadyImported reports whether err means the asset was imported before.
func IsAlreadyImported(err error) bool {
	return errors.Is(err, ErrAlreadyImported)
}

func (im *Importer) id() string {
	if im.newID != nil {
		return im.newID()
	}
	return uuid.NewString()
}

func (im *Importer) clock() time.Time {
	if im.now != nil {
		return im.now()
	}
	return time.Now()
}

func (im *Importer) logDebug(msg string, args ...any) {
	if im.Logger != nil {
		im.Logger.Debug(msg, args...)
	}
}

func (im *Importer) logInfo(msg string, args ...any) {
	if im.Logger != nil {
		im.Logger.Info(msg, args...)
	}
}
