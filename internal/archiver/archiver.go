// Package archiver produces redundant, restorable copies of the record store:
// timestamped CSV dumps on local disk, zip snapshots, and an optional upload
// to a cloud bucket. It runs out-of-band from the lifecycle engine; nothing
// here happens per-transition.
package archiver

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"meterstock/internal/lifecycle"
	"meterstock/internal/repository"

	"github.com/rs/zerolog/log"
)

// ArchiveInfo describes one dump on disk.
type ArchiveInfo struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	CreatedAt string `json:"created_at"`
	Records   int    `json:"records,omitempty"`
	Uploaded  bool   `json:"uploaded,omitempty"`
}

// Uploader pushes a finished snapshot to off-site storage. A nil Uploader
// keeps archives local-only.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) error
}

type Archiver struct {
	requestRepo repository.RequestRepository
	txManager   repository.TransactionManager
	dumpDir     string
	uploader    Uploader
}

func New(requestRepo repository.RequestRepository, txManager repository.TransactionManager, dumpDir string, uploader Uploader) *Archiver {
	return &Archiver{
		requestRepo: requestRepo,
		txManager:   txManager,
		dumpDir:     dumpDir,
		uploader:    uploader,
	}
}

// ExportCSV renders the full store as CSV for direct download.
func (a *Archiver) ExportCSV(ctx context.Context) ([]byte, error) {
	records, err := a.requestRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return MarshalCSV(records)
}

// ExportXLSX renders the full store as a workbook for direct download.
func (a *Archiver) ExportXLSX(ctx context.Context) ([]byte, error) {
	records, err := a.requestRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return MarshalXLSX(records)
}

// CreateArchive writes a timestamped CSV dump, wraps it in a zip snapshot,
// and hands the zip to the uploader if one is configured. Upload failures are
// logged, not fatal, since the local copy already exists.
func (a *Archiver) CreateArchive(ctx context.Context) (ArchiveInfo, error) {
	records, err := a.requestRepo.ListAll(ctx)
	if err != nil {
		return ArchiveInfo{}, err
	}
	data, err := MarshalCSV(records)
	if err != nil {
		return ArchiveInfo{}, err
	}

	if err := os.MkdirAll(a.dumpDir, 0o755); err != nil {
		return ArchiveInfo{}, err
	}

	stamp := time.Now().Format("20060102_150405")
	csvName := fmt.Sprintf("stock_requests_%s.csv", stamp)
	csvPath := filepath.Join(a.dumpDir, csvName)
	if err := os.WriteFile(csvPath, data, 0o644); err != nil {
		return ArchiveInfo{}, err
	}

	zipName := fmt.Sprintf("data_backup_%s.zip", stamp)
	zipData, err := zipSingleFile(csvName, data)
	if err != nil {
		return ArchiveInfo{}, err
	}
	if err := os.WriteFile(filepath.Join(a.dumpDir, zipName), zipData, 0o644); err != nil {
		return ArchiveInfo{}, err
	}

	info := ArchiveInfo{
		Name:      csvName,
		SizeBytes: int64(len(data)),
		CreatedAt: time.Now().Format(time.RFC3339),
		Records:   len(records),
	}

	if a.uploader != nil {
		if err := a.uploader.Upload(ctx, zipName, zipData); err != nil {
			log.Warn().Err(err).Str("archive", zipName).Msg("Failed to upload archive, local copy kept")
		} else {
			info.Uploaded = true
		}
	}

	log.Info().Str("archive", csvName).Int("records", len(records)).Msg("Created archive")
	return info, nil
}

// ListArchives returns the CSV dumps on disk, newest first.
func (a *Archiver) ListArchives() ([]ArchiveInfo, error) {
	entries, err := os.ReadDir(a.dumpDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ArchiveInfo{}, nil
		}
		return nil, err
	}

	archives := make([]ArchiveInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		archives = append(archives, ArchiveInfo{
			Name:      entry.Name(),
			SizeBytes: fi.Size(),
			CreatedAt: fi.ModTime().Format(time.RFC3339),
		})
	}
	sort.Slice(archives, func(i, j int) bool { return archives[i].Name > archives[j].Name })
	return archives, nil
}

// ReadArchive returns the raw bytes of one dump for download.
func (a *Archiver) ReadArchive(name string) ([]byte, error) {
	path, err := a.safePath(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Restore replaces the store contents with a dump. Every row is validated
// against the lifecycle invariants before anything is touched, and the swap
// happens inside one transaction.
func (a *Archiver) Restore(ctx context.Context, name string) (int, error) {
	path, err := a.safePath(name)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	records, err := UnmarshalCSV(data)
	if err != nil {
		return 0, fmt.Errorf("archive %s is not restorable: %w", name, err)
	}
	for _, rec := range records {
		if err := lifecycle.Validate(rec); err != nil {
			return 0, fmt.Errorf("archive %s contains invalid record %s: %w", name, rec.RequestID, err)
		}
	}

	err = a.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return a.requestRepo.ReplaceAll(txCtx, records)
	})
	if err != nil {
		return 0, err
	}

	log.Info().Str("archive", name).Int("records", len(records)).Msg("Restored store from archive")
	return len(records), nil
}

// safePath confines archive names to the dump directory.
func (a *Archiver) safePath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid archive name %q", name)
	}
	return filepath.Join(a.dumpDir, name), nil
}

func zipSingleFile(name string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunPeriodic creates an archive on every tick until the context is canceled.
func (a *Archiver) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.CreateArchive(ctx); err != nil {
				log.Error().Err(err).Msg("Periodic archive failed")
			}
		}
	}
}
