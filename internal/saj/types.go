package saj

import (
	"encoding/json"

	"saj-gateway/internal/models"
)

// Envelope is the response wrapper shared by every vendor endpoint.
type Envelope struct {
	Code  int             `json:"code"`
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data,omitempty"`
	Rows  json.RawMessage `json:"rows,omitempty"`
	Total int             `json:"total,omitempty"`
}

// TokenData is the payload of the access_token endpoint. Expires is a
// lifetime in seconds.
type TokenData struct {
	AccessToken string `json:"access_token"`
	Expires     int64  `json:"expires"`
}

// DevicePage is one page of the developer device listing. The vendor puts
// the rows at the top level of the envelope.
type DevicePage struct {
	Envelope *Envelope
	Records  []models.DeviceRecord
	Total    int
}

// PlantPage is one page of the developer plant listing. Rows live under data.
type PlantPage struct {
	Envelope *Envelope
	Records  []models.PlantRecord
	Total    int
}

type plantPageData struct {
	Rows  []models.PlantRecord `json:"rows"`
	Total int                  `json:"total"`
}
