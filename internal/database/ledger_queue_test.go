package database

import (
	"context"
	"testing"
	"time"

	"hotdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerQueue(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.LedgerTask{
		TaskType: "mark_occupied",
		RefNo:    "1M 102",
		Payload:  `{"ref_no":"1M 102","occupant":"I. Petrov"}`,
		Status:   "pending",
	}
	require.NoError(t, db.CreateLedgerTask(ctx, task))
	assert.NotZero(t, task.ID)

	pending, err := db.GetPendingLedgerTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "mark_occupied", pending[0].TaskType)

	require.NoError(t, db.UpdateLedgerTaskStatus(ctx, task.ID, "completed", "", nil))

	pending, err = db.GetPendingLedgerTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLedgerQueue_Retry(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.LedgerTask{TaskType: "mark_free", RefNo: "1M 102", Payload: `{}`, Status: "pending"}
	require.NoError(t, db.CreateLedgerTask(ctx, task))

	// Retry scheduled in the future is not picked up yet.
	future := time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateLedgerTaskStatus(ctx, task.ID, "retry", "sheet unreachable", &future))

	pending, err := db.GetPendingLedgerTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Once the retry time passes the task reappears with the error recorded.
	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.UpdateLedgerTaskStatus(ctx, task.ID, "retry", "sheet unreachable", &past))

	pending, err = db.GetPendingLedgerTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "sheet unreachable", *pending[0].LastError)
	assert.Equal(t, 2, pending[0].RetryCount)
}
