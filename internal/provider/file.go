package provider

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/batchlens/batchlens/internal/store"
	"github.com/batchlens/batchlens/pkg/domain"
)

// LoadFile reads a corpus file and decodes it by extension: .json or
// .yaml/.yml.
func LoadFile(path string) (domain.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("provider: read corpus: %w", err)
	}
	return decode(path, data)
}

// decode unmarshals corpus bytes according to the file extension.
func decode(path string, data []byte) (domain.Dataset, error) {
	var ds domain.Dataset
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &ds); err != nil {
			return domain.Dataset{}, fmt.Errorf("provider: decode %s: %w", filepath.Base(path), err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &ds); err != nil {
			return domain.Dataset{}, fmt.Errorf("provider: decode %s: %w", filepath.Base(path), err)
		}
	default:
		return domain.Dataset{}, fmt.Errorf("provider: unsupported corpus format %q", ext)
	}
	return ds, nil
}

// Watch monitors a corpus file and republishes the snapshot into st
// each time the file's content changes. onSwap, when non-nil, receives
// the new revision after every successful swap. Watch runs until ctx
// is cancelled.
//
// A reload that fails to read or decode keeps the previous snapshot
// active. A content hash suppresses republishing when the file is
// rewritten with identical bytes.
func Watch(ctx context.Context, path string, st *store.Store, onSwap func(uint64)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	var lastSum uint64
	if data, err := os.ReadFile(path); err == nil {
		lastSum = xxhash.Sum64(data)
	}

	slog.Info("provider: watching corpus", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename (atomic save), so catch
			// Create as well as Write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			data, err := os.ReadFile(path)
			if err != nil {
				slog.Error("provider: corpus read failed, keeping previous snapshot",
					"path", path, "err", err)
				continue
			}
			sum := xxhash.Sum64(data)
			if sum == lastSum {
				_ = watcher.Add(path)
				continue
			}
			lastSum = sum

			ds, err := decode(path, data)
			if err != nil {
				slog.Error("provider: corpus reload failed, keeping previous snapshot",
					"path", path, "err", err)
				continue
			}

			rev := st.Replace(ds)
			slog.Info("provider: corpus reloaded", "path", path, "revision", rev)
			if onSwap != nil {
				onSwap(rev)
			}

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("provider: watcher error", "err", err)
		}
	}
}
