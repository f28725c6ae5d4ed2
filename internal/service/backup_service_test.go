package service

import (
	"context"
	"encoding/json"
	"testing"

	"contapos/internal/model"
	"contapos/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackupRepo struct {
	tables map[string][]map[string]interface{}
	calls  []string
}

func (r *fakeBackupRepo) Dump(ctx context.Context, table string) ([]map[string]interface{}, error) {
	return r.tables[table], nil
}

func (r *fakeBackupRepo) Truncate(ctx context.Context, table string) error {
	r.calls = append(r.calls, "truncate "+table)
	delete(r.tables, table)
	return nil
}

func (r *fakeBackupRepo) Load(ctx context.Context, table string, rows []map[string]interface{}) error {
	r.calls = append(r.calls, "load "+table)
	if len(rows) > 0 {
		r.tables[table] = rows
	}
	return nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, page, limit int, action, entityID string) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

type passThroughTx struct{}

func (passThroughTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

func newBackupFixture(t *testing.T) (BackupService, *fakeBackupRepo, *fakeAuditRepo) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	repo := &fakeBackupRepo{tables: map[string][]map[string]interface{}{
		"warehouses": {{"id": "w1", "code": "BOD-001"}},
		"products":   {{"id": "p1", "sku": "CAFE-500", "price1": "10000.5000"}},
	}}
	audit := &fakeAuditRepo{}
	svc := NewBackupService(repo, audit, passThroughTx{}, store, []string{"warehouses", "products"}, zap.NewNop())
	return svc, repo, audit
}

func TestBackupService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, repo, audit := newBackupFixture(t)

	info, err := svc.CreateBackup(ctx, "")
	require.NoError(t, err)
	assert.Regexp(t, `^backup-\d{8}-\d{6}\.json$`, info.Name)

	list, err := svc.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, info.Name, list[0].Name)

	repo.tables = map[string][]map[string]interface{}{}
	require.NoError(t, svc.RestoreBackup(ctx, "", info.Name))

	assert.Equal(t, []string{"truncate products", "truncate warehouses", "load warehouses", "load products"}, repo.calls)
	require.Len(t, repo.tables["products"], 1)
	assert.Equal(t, "CAFE-500", repo.tables["products"][0]["sku"])
	assert.Len(t, audit.entries, 2)
}

func TestBackupService_NumbersRestoreAsText(t *testing.T) {
	svc, repo, _ := newBackupFixture(t)

	data := []byte(`{"version":1,"created_at":"2024-03-01T10:00:00Z","tables":[{"name":"products","rows":[{"id":"p9","stock":12.25}]}]}`)
	require.NoError(t, svc.RestoreBackupData(context.Background(), "", data))

	require.Len(t, repo.tables["products"], 1)
	assert.Equal(t, "12.25", repo.tables["products"][0]["stock"])
	assert.Empty(t, repo.tables["warehouses"])
}

func TestBackupService_RejectsBadArchives(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newBackupFixture(t)

	archive := func(version int, table string) []byte {
		raw, err := json.Marshal(BackupArchive{Version: version, Tables: []BackupTable{{Name: table}}})
		require.NoError(t, err)
		return raw
	}

	err := svc.RestoreBackupData(ctx, "", archive(2, "products"))
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.RestoreBackupData(ctx, "", archive(1, "pg_authid"))
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.RestoreBackupData(ctx, "", []byte("not json"))
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, repo.calls)
}

func TestBackupService_DownloadChecksName(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newBackupFixture(t)

	_, err := svc.DownloadBackup(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.DownloadBackup(ctx, "backup-20240101-000000.json")
	assert.ErrorIs(t, err, ErrNotFound)
}
