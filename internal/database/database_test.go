package database

import (
	"errors"
	"testing"

	"saj-gateway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpenMemoryMigrates(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	defer Close(db)

	for _, table := range []string{"saj_devices", "saj_plants", "saj_tokens", "device_sync_history", "plant_sync_history"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestUnitOfWorkRollsBack(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	defer Close(db)

	uow := NewUnitOfWork(db)
	boom := errors.New("boom")
	err = uow.Do(func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&models.Device{DeviceSn: "A1"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&models.Device{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPrepareClosesPoolWhenMigrationFails(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)

	boom := errors.New("migration failed")
	err = prepare(db, func(*gorm.DB) error { return boom })
	assert.ErrorIs(t, err, boom)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())
}

func TestPrepareKeepsPoolOnSuccess(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, prepare(db, func(*gorm.DB) error { return nil }))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())
}
