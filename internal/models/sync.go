package models

import (
	"time"
)

// SyncRun is one reconciliation invocation. Device and plant runs live in
// separate tables with this shape.
type SyncRun struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	TotalFromAPI int        `gorm:"column:total_from_api" json:"totalFromApi"`
	NewAdded     int        `json:"newAdded"`
	Updated      int        `json:"updated"`
	Failed       int        `json:"failed"`
	StartedAt    time.Time  `gorm:"index" json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt"`
	Success      bool       `json:"success"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

type DeviceSyncRun struct {
	SyncRun
}

func (DeviceSyncRun) TableName() string {
	return "device_sync_history"
}

type PlantSyncRun struct {
	SyncRun
}

func (PlantSyncRun) TableName() string {
	return "plant_sync_history"
}

// SyncKind names the record family being reconciled.
type SyncKind string

const (
	SyncKindDevices SyncKind = "devices"
	SyncKindPlants  SyncKind = "plants"
)

// SyncResult is what a reconciliation reports back to its caller.
type SyncResult struct {
	Kind           SyncKind `json:"kind"`
	RunID          uint     `json:"runId"`
	NewCount       int      `json:"newCount"`
	UpdatedCount   int      `json:"updatedCount"`
	FailedCount    int      `json:"failedCount"`
	TotalProcessed int      `json:"totalProcessed"`
	NewIDs         []uint   `json:"newIds"`
}
