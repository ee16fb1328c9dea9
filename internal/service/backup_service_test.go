package service

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"casetrack/internal/models"
	"casetrack/internal/repository"
)

func seedBackupData(t *testing.T) (*BackupService, *ClientService) {
	t.Helper()

	db := newTestDB(t)
	clients := NewClientService(db, nil, nil, nil)
	ctx := context.Background()

	worker := seedWorker(t, db, "worker")
	for _, age := range []int{20, 35} {
		c := seedClient(t, db, func(p *models.Profile) { p.Age = age })
		_, err := clients.CreateCaseAssignment(ctx, c.ID, worker.ID)
		require.NoError(t, err)
	}
	return NewBackupService(db, nil), clients
}

func TestBackupRoundTrip(t *testing.T) {
	src, _ := seedBackupData(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, src.ExportJSON(ctx, &buf))

	var exported BackupData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &exported))
	assert.Equal(t, backupVersion, exported.Version)
	assert.Equal(t, "sqlite3", exported.DatabaseType)
	assert.Len(t, exported.Users, 1)
	assert.Len(t, exported.Clients, 2)
	assert.Len(t, exported.Cases, 2)
	assert.NotEmpty(t, exported.Users[0].PasswordHash)

	dstDB := newTestDB(t)
	dst := NewBackupService(dstDB, nil)

	stats, err := dst.ImportJSON(ctx, bytes.NewReader(buf.Bytes()), false)
	require.NoError(t, err)
	assert.Equal(t, &ImportStats{Users: 1, Clients: 2, Cases: 2}, stats)

	restored, err := dst.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, exported.Clients, restored.Clients)
	assert.Equal(t, exported.Cases, restored.Cases)

	t.Run("import without clear collides", func(t *testing.T) {
		_, err := dst.ImportJSON(ctx, bytes.NewReader(buf.Bytes()), false)
		require.Error(t, err)

		after, err := dst.Snapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, after.Clients, 2, "failed import must roll back")
	})

	t.Run("import with clear replaces", func(t *testing.T) {
		_, err := repository.NewClientRepository(dstDB).Create(ctx, &models.Profile{Age: 50, Gender: 1, LevelOfSchooling: 1, Housing: 1, IncomeSource: 1})
		require.NoError(t, err)

		_, err = dst.ImportJSON(ctx, bytes.NewReader(buf.Bytes()), true)
		require.NoError(t, err)

		after, err := dst.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, exported.Clients, after.Clients)
	})

	t.Run("unsupported version", func(t *testing.T) {
		_, err := dst.ImportJSON(ctx, bytes.NewReader([]byte(`{"version": "0.1"}`)), false)
		assert.ErrorContains(t, err, "unsupported backup version")
	})
}

func TestExportXLSX(t *testing.T) {
	src, _ := seedBackupData(t)

	var buf bytes.Buffer
	require.NoError(t, src.ExportXLSX(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Clients", "Cases", "Users"}, f.GetSheetList())

	rows, err := f.GetRows("Clients")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "age", rows[0][1])
	assert.Equal(t, "20", rows[1][1])

	users, err := f.GetRows("Users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "username", "email", "role", "created_at"}, users[0])
}
