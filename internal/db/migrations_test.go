package db

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/rms-service-orders/internal/model"
)

func TestMigrateIsIdempotent(t *testing.T) {
	database, err := NewInMemory(t.Name())
	require.NoError(t, err)

	require.NoError(t, Migrate(database))
	assert.True(t, database.Migrator().HasTable(&model.ServiceOrder{}))
	assert.True(t, database.Migrator().HasTable(&model.TaskTimeLog{}))

	var sequences []model.Sequence
	require.NoError(t, database.Order("name").Find(&sequences).Error)
	require.Len(t, sequences, 2)
	assert.Equal(t, model.SequenceBudget, sequences[0].Name)
	assert.Equal(t, model.SequenceServiceOrder, sequences[1].Name)
	assert.Zero(t, sequences[1].Value)
}

func TestOpenTimerIndexRejectsSecondOpenLog(t *testing.T) {
	database, err := NewInMemory(t.Name())
	require.NoError(t, err)

	taskID, workerID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	require.NoError(t, database.Create(&model.TaskTimeLog{TaskID: taskID, WorkerID: workerID, StartTime: now}).Error)

	err = database.Create(&model.TaskTimeLog{TaskID: taskID, WorkerID: workerID, StartTime: now}).Error
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	end := now.Add(time.Hour)
	require.NoError(t, database.Create(&model.TaskTimeLog{TaskID: taskID, WorkerID: workerID, StartTime: now, EndTime: &end}).Error)
}
