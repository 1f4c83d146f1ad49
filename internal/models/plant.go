package models

import (
	"strings"
	"time"
)

// Plant is a SAJ power plant mirrored from the vendor plant listing.
type Plant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PlantID   string    `gorm:"column:plant_id;size:64;uniqueIndex;not null" json:"plantId"`
	PlantNo   *string   `json:"plantNo"`
	PlantName *string   `json:"plantName"`
	Remark    *string   `json:"remark"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Plant) TableName() string {
	return "saj_plants"
}

// PlantRecord is a plant as reported by the vendor API or posted for sync.
// Empty optional fields are stored as NULL.
type PlantRecord struct {
	PlantID   string `json:"plantId"`
	PlantNo   string `json:"plantNo"`
	PlantName string `json:"plantName"`
	Remark    string `json:"remark"`

	decodeErr error
}

func (r *PlantRecord) UnmarshalJSON(data []byte) error {
	f := newRecordFields(data)
	*r = PlantRecord{
		PlantID:   f.text("plantId"),
		PlantNo:   f.text("plantNo"),
		PlantName: f.text("plantName"),
		Remark:    f.text("remark"),
	}
	r.decodeErr = f.err
	return nil
}

func (r PlantRecord) DecodeErr() error {
	return r.decodeErr
}

func (r PlantRecord) Key() string {
	return strings.TrimSpace(r.PlantID)
}

func (r PlantRecord) ToPlant() *Plant {
	return &Plant{
		PlantID:   r.Key(),
		PlantNo:   nullable(r.PlantNo),
		PlantName: nullable(r.PlantName),
		Remark:    nullable(r.Remark),
	}
}

// PlantSummary aggregates the local plant table.
type PlantSummary struct {
	Total       int64 `json:"total"`
	Active      int64 `json:"active"`
	WithRemarks int64 `json:"withRemarks"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
