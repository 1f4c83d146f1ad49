package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexBoolUnmarshal(t *testing.T) {
	cases := map[string]bool{
		`true`:    true,
		`false`:   false,
		`1`:       true,
		`0`:       false,
		`"1"`:     true,
		`"false"`: false,
		`null`:    false,
		`2`:       true,
		`"yes"`:   true,
		`"t"`:     true,
		`"on"`:    true,
		`"off"`:   false,
		`"N"`:     false,
	}
	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			var b FlexBool
			require.NoError(t, json.Unmarshal([]byte(input), &b))
			assert.Equal(t, want, b.Bool())
		})
	}

	var b FlexBool
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &b))
}

func TestDeviceRecordDecode(t *testing.T) {
	var rec DeviceRecord
	err := json.Unmarshal([]byte(`{"deviceSn":"A1","plantId":"P1","isOnline":1,"isAlarm":"0"}`), &rec)
	require.NoError(t, err)

	dev := rec.ToDevice()
	assert.Equal(t, "A1", dev.DeviceSn)
	assert.Equal(t, "P1", dev.PlantID)
	assert.True(t, dev.IsOnline)
	assert.False(t, dev.IsAlarm)
}

func TestPlantRecordNullableFields(t *testing.T) {
	plant := PlantRecord{PlantID: "P1", PlantName: "Roof"}.ToPlant()
	assert.Nil(t, plant.PlantNo)
	assert.Nil(t, plant.Remark)
	require.NotNil(t, plant.PlantName)
	assert.Equal(t, "Roof", *plant.PlantName)
}

func TestDeviceRecordKeepsMalformedRecords(t *testing.T) {
	var batch []DeviceRecord
	err := json.Unmarshal([]byte(`[
		{"deviceSn":" A1 ","isOnline":"maybe"},
		{"deviceSn":1234,"isAlarm":"yes"},
		{"deviceSn":"A3","plantName":{"nested":true}},
		"not an object"
	]`), &batch)
	require.NoError(t, err)
	require.Len(t, batch, 4)

	assert.Error(t, batch[0].DecodeErr())
	assert.Equal(t, "A1", batch[0].Key())

	assert.NoError(t, batch[1].DecodeErr())
	assert.Equal(t, "1234", batch[1].DeviceSn)
	assert.True(t, batch[1].IsAlarm.Bool())

	assert.Error(t, batch[2].DecodeErr())
	assert.Error(t, batch[3].DecodeErr())
}

func TestPlantRecordDecode(t *testing.T) {
	var rec PlantRecord
	require.NoError(t, json.Unmarshal([]byte(`{"plantId":" P1","plantNo":42,"remark":null}`), &rec))
	assert.NoError(t, rec.DecodeErr())

	plant := rec.ToPlant()
	assert.Equal(t, "P1", plant.PlantID)
	require.NotNil(t, plant.PlantNo)
	assert.Equal(t, "42", *plant.PlantNo)
	assert.Nil(t, plant.Remark)
}

func TestAccessTokenValid(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, (&AccessToken{IsActive: true, ExpiresAt: now.Add(time.Minute)}).Valid(now))
	assert.False(t, (&AccessToken{IsActive: true, ExpiresAt: now}).Valid(now))
	assert.False(t, (&AccessToken{IsActive: false, ExpiresAt: now.Add(time.Minute)}).Valid(now))

	var missing *AccessToken
	assert.False(t, missing.Valid(now))
}
