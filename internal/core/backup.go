package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"siteledger/internal/blob"
	"siteledger/pkg/domain"
)

// SnapshotPrefix is the blob key prefix under which backups are written.
const SnapshotPrefix = "snapshots/"

const snapshotFormat = "siteledger-snapshot/v1"

type snapshotExporter interface {
	ExportState() Snapshot
}

type snapshotRestorer interface {
	Restore(ctx context.Context, snapshot Snapshot) (Result, error)
}

// BackupSnapshot writes the current state to store as JSON and returns the
// stored blob's info. Keys are timestamped, so backups never overwrite.
func (s *Service) BackupSnapshot(ctx context.Context, store blob.Store) (blob.Info, error) {
	ctx, span := s.tracer.Start(ctx, "backup_snapshot")
	started := time.Now()
	info, err := s.backupSnapshot(ctx, store)
	span.End(err)
	s.metrics.Observe(ctx, "backup_snapshot", err == nil, time.Since(started))
	if err != nil {
		s.logger.Error("backup failed", "driver", string(store.Driver()), "error", err)
		return blob.Info{}, err
	}
	s.logger.Info("backup written", "driver", string(store.Driver()), "key", info.Key, "bytes", info.Size)
	return info, nil
}

func (s *Service) backupSnapshot(ctx context.Context, store blob.Store) (blob.Info, error) {
	exporter, ok := s.store.(snapshotExporter)
	if !ok {
		return blob.Info{}, fmt.Errorf("store %T cannot export snapshots", s.store)
	}
	payload, err := json.Marshal(exporter.ExportState())
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode snapshot: %w", err)
	}
	key := SnapshotPrefix + s.clock.Now().Format("20060102T150405.000000000Z") + ".json"
	info, err := store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"format": snapshotFormat},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("write snapshot %s: %w", key, err)
	}
	return info, nil
}

// ListBackups returns stored snapshots ordered by key, oldest first.
func (s *Service) ListBackups(ctx context.Context, store blob.Store) ([]blob.Info, error) {
	return store.List(ctx, SnapshotPrefix)
}

// RestoreSnapshot replaces the whole state with the snapshot stored at key.
// The snapshot must satisfy every rule; otherwise the current state is kept.
func (s *Service) RestoreSnapshot(ctx context.Context, store blob.Store, key string) (Result, error) {
	ctx, span := s.tracer.Start(ctx, OpRestoreSnapshot)
	started := time.Now()
	res, err := s.restoreSnapshot(ctx, store, key)
	span.End(err)
	s.metrics.Observe(ctx, OpRestoreSnapshot, err == nil, time.Since(started))
	if err != nil {
		s.logFailure(OpRestoreSnapshot, key, err)
		return res, err
	}
	s.logWarnings(OpRestoreSnapshot, key, res)
	s.logger.Info("snapshot restored", "key", key)
	return res, nil
}

func (s *Service) restoreSnapshot(ctx context.Context, store blob.Store, key string) (Result, error) {
	restorer, ok := s.store.(snapshotRestorer)
	if !ok {
		return Result{}, fmt.Errorf("store %T cannot restore snapshots", s.store)
	}
	key, err := snapshotKey(key)
	if err != nil {
		return Result{}, err
	}
	info, body, err := store.Get(ctx, key)
	if errors.Is(err, blob.ErrInvalidKey) {
		return Result{}, fmt.Errorf("read snapshot %s: %w: %w", key, domain.ErrValidation, err)
	}
	if err != nil {
		return Result{}, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	defer body.Close()
	if format := info.Metadata["format"]; format != "" && format != snapshotFormat {
		return Result{}, fmt.Errorf("snapshot %s has unsupported format %q: %w", key, format, domain.ErrValidation)
	}
	var snapshot Snapshot
	if err := json.NewDecoder(body).Decode(&snapshot); err != nil {
		return Result{}, fmt.Errorf("decode snapshot %s: %w: %w", key, domain.ErrValidation, err)
	}
	return restorer.Restore(ctx, snapshot)
}

// snapshotKey places key under SnapshotPrefix. Empty, absolute and
// traversing keys fail with ErrValidation before any backend is consulted.
func snapshotKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("snapshot key %q: %w", key, domain.ErrValidation)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("snapshot key %q escapes %s: %w", key, SnapshotPrefix, domain.ErrValidation)
		}
	}
	if !strings.HasPrefix(key, SnapshotPrefix) {
		key = SnapshotPrefix + key
	}
	return key, nil
}
