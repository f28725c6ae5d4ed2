package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"contapos/internal/model"
	"contapos/internal/repository"
	"contapos/internal/storage"

	"go.uber.org/zap"
)

const (
	backupPrefix  = "backups/"
	backupVersion = 1
)

// BackupArchive is the JSON document written to object storage
type BackupArchive struct {
	Version   int           `json:"version"`
	CreatedAt time.Time     `json:"created_at"`
	Tables    []BackupTable `json:"tables"`
}

type BackupTable struct {
	Name string                   `json:"name"`
	Rows []map[string]interface{} `json:"rows"`
}

type BackupInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type BackupService interface {
	CreateBackup(ctx context.Context, actorID string) (*BackupInfo, error)
	ListBackups(ctx context.Context) ([]BackupInfo, error)
	DownloadBackup(ctx context.Context, name string) ([]byte, error)
	RestoreBackup(ctx context.Context, actorID, name string) error
	RestoreBackupData(ctx context.Context, actorID string, data []byte) error
}

type backupService struct {
	repo      repository.BackupRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	store     storage.ObjectStore
	tables    []string
	logger    *zap.Logger
	now       func() time.Time
}

// NewBackupService dumps and restores the given tables, which must be in dependency order
func NewBackupService(
	repo repository.BackupRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	store storage.ObjectStore,
	tables []string,
	logger *zap.Logger,
) BackupService {
	return &backupService{
		repo:      repo,
		auditRepo: auditRepo,
		txManager: txManager,
		store:     store,
		tables:    tables,
		logger:    logger,
		now:       time.Now,
	}
}

func backupKey(name string) (string, error) {
	clean := path.Base(strings.TrimSpace(name))
	if clean == "." || clean == "/" || !strings.HasSuffix(clean, ".json") {
		return "", validationError("invalid backup name %q", name)
	}
	return backupPrefix + clean, nil
}

func (s *backupService) CreateBackup(ctx context.Context, actorID string) (*BackupInfo, error) {
	archive := BackupArchive{Version: backupVersion, CreatedAt: s.now().UTC()}

	// a read transaction keeps the dump consistent across tables
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, table := range s.tables {
			rows, err := s.repo.Dump(txCtx, table)
			if err != nil {
				return err
			}
			archive.Tables = append(archive.Tables, BackupTable{Name: table, Rows: rows})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	name := fmt.Sprintf("backup-%s.json", archive.CreatedAt.Format("20060102-150405"))
	if err := s.store.Put(ctx, backupPrefix+name, data, "application/json"); err != nil {
		return nil, fmt.Errorf("failed to store backup: %w", err)
	}

	if err := writeAudit(ctx, s.auditRepo, actorID, model.ActionCreateBackup, "", name, map[string]int{"tables": len(archive.Tables)}); err != nil {
		s.logger.Warn("backup created without audit entry", zap.Error(err))
	}
	s.logger.Info("backup created", zap.String("name", name), zap.Int("bytes", len(data)))

	return &BackupInfo{Name: name, Size: int64(len(data)), CreatedAt: archive.CreatedAt}, nil
}

func (s *backupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, backupPrefix)
	if err != nil {
		return nil, err
	}

	res := make([]BackupInfo, 0, len(objects))
	// newest first
	for i := len(objects) - 1; i >= 0; i-- {
		res = append(res, BackupInfo{
			Name:      path.Base(objects[i].Key),
			Size:      objects[i].Size,
			CreatedAt: objects[i].LastModified,
		})
	}
	return res, nil
}

func (s *backupService) DownloadBackup(ctx context.Context, name string) ([]byte, error) {
	key, err := backupKey(name)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("backup %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	return data, nil
}

func (s *backupService) RestoreBackup(ctx context.Context, actorID, name string) error {
	data, err := s.DownloadBackup(ctx, name)
	if err != nil {
		return err
	}
	return s.RestoreBackupData(ctx, actorID, data)
}

func decodeArchive(data []byte) (*BackupArchive, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var archive BackupArchive
	if err := dec.Decode(&archive); err != nil {
		return nil, validationError("backup file is not valid JSON")
	}
	if archive.Version != backupVersion {
		return nil, validationError("unsupported backup version %d", archive.Version)
	}

	for _, table := range archive.Tables {
		for _, row := range table.Rows {
			for col, v := range row {
				// numbers travel as text so decimals keep their precision
				if n, ok := v.(json.Number); ok {
					row[col] = n.String()
				}
			}
		}
	}
	return &archive, nil
}

// RestoreBackupData replaces the content of every known table in one transaction
func (s *backupService) RestoreBackupData(ctx context.Context, actorID string, data []byte) error {
	archive, err := decodeArchive(data)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(s.tables))
	for _, t := range s.tables {
		known[t] = true
	}
	rowsByTable := make(map[string][]map[string]interface{}, len(archive.Tables))
	for _, t := range archive.Tables {
		if !known[t.Name] {
			return validationError("backup contains unknown table %q", t.Name)
		}
		rowsByTable[t.Name] = t.Rows
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i := len(s.tables) - 1; i >= 0; i-- {
			if err := s.repo.Truncate(txCtx, s.tables[i]); err != nil {
				return fmt.Errorf("failed to clear %s: %w", s.tables[i], err)
			}
		}
		for _, table := range s.tables {
			if err := s.repo.Load(txCtx, table, rowsByTable[table]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// the acting user may not exist in the restored data
	if err := writeAudit(ctx, s.auditRepo, actorID, model.ActionRestoreBackup, "", archive.CreatedAt.Format(time.RFC3339),
		map[string]int{"tables": len(archive.Tables)}); err != nil {
		s.logger.Warn("backup restored without audit entry", zap.Error(err))
	}

	s.logger.Info("backup restored", zap.Time("created_at", archive.CreatedAt))
	return nil
}
