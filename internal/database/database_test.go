package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"hotdesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestRequest(t *testing.T, db *DB, requesterID, assigneeID int64, refNo string) *models.HotDeskRequest {
	t.Helper()
	req := &models.HotDeskRequest{
		RequesterID: requesterID,
		AssigneeID:  assigneeID,
		RefNo:       refNo,
	}
	require.NoError(t, db.CreateRequest(context.Background(), req))
	return req
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "nested", "dir", "hotdesk.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.Ping(context.Background()))
}

func TestCreateTables_Idempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "hotdesk_db")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	logger := zerolog.Nop()
	dbPath := filepath.Join(tempDir, "hotdesk.db")

	db1, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	// Re-opening the same file re-runs the schema statements.
	db2, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db2.Close()
}
