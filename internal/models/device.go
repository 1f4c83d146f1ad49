package models

import (
	"strings"
	"time"
)

// Device is a SAJ inverter mirrored from the vendor device listing.
type Device struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DeviceSn   string    `gorm:"column:device_sn;size:64;uniqueIndex;not null" json:"deviceSn"`
	DeviceType string    `json:"deviceType"`
	PlantID    string    `gorm:"index" json:"plantId"`
	PlantName  string    `json:"plantName"`
	Country    string    `json:"country"`
	IsOnline   bool      `gorm:"index" json:"isOnline"`
	IsAlarm    bool      `json:"isAlarm"`
	ClientSign string    `gorm:"size:64" json:"clientSign,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Device) TableName() string {
	return "saj_devices"
}

// DeviceRecord is a device as reported by the vendor API or posted for sync.
// A record with malformed fields still decodes; DecodeErr reports the problem.
type DeviceRecord struct {
	DeviceSn   string   `json:"deviceSn"`
	DeviceType string   `json:"deviceType"`
	PlantID    string   `json:"plantId"`
	PlantName  string   `json:"plantName"`
	Country    string   `json:"country"`
	IsOnline   FlexBool `json:"isOnline"`
	IsAlarm    FlexBool `json:"isAlarm"`

	decodeErr error
}

func (r *DeviceRecord) UnmarshalJSON(data []byte) error {
	f := newRecordFields(data)
	*r = DeviceRecord{
		DeviceSn:   f.text("deviceSn"),
		DeviceType: f.text("deviceType"),
		PlantID:    f.text("plantId"),
		PlantName:  f.text("plantName"),
		Country:    f.text("country"),
		IsOnline:   f.flag("isOnline"),
		IsAlarm:    f.flag("isAlarm"),
	}
	r.decodeErr = f.err
	return nil
}

func (r DeviceRecord) DecodeErr() error {
	return r.decodeErr
}

// Key is the trimmed serial number.
func (r DeviceRecord) Key() string {
	return strings.TrimSpace(r.DeviceSn)
}

// ToDevice builds a new row from the record.
func (r DeviceRecord) ToDevice() *Device {
	return &Device{
		DeviceSn:   r.Key(),
		DeviceType: r.DeviceType,
		PlantID:    r.PlantID,
		PlantName:  r.PlantName,
		Country:    r.Country,
		IsOnline:   r.IsOnline.Bool(),
		IsAlarm:    r.IsAlarm.Bool(),
	}
}

// DeviceSummary aggregates the local device table.
type DeviceSummary struct {
	Total   int64 `json:"total"`
	Online  int64 `json:"online"`
	Alarms  int64 `json:"alarms"`
	Offline int64 `json:"offline"`
}
