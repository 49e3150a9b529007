// Package upload defines the value types produced by CSV ingestion and
// persisted as upload history.
package upload

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"equipdata/domain/core"
)

// Distribution maps an equipment category to the number of rows observed for
// it in one uploaded file. Keys are unique; counts are always positive.
type Distribution map[string]int

// Value implements driver.Valuer so distributions persist as JSONB.
func (d Distribution) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for reading JSONB distributions.
func (d *Distribution) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("cannot scan %T into Distribution", src)
	}
}

// Aggregate is the computed summary derived from one uploaded file.
// It carries no identity or ownership; those are assigned when the aggregate
// is persisted as a Record.
type Aggregate struct {
	TotalRows    int
	AvgFlowRate  float64
	AvgPressure  float64
	Distribution Distribution
}

// Record is one persisted upload. Records are created exactly once per
// successful ingestion and never updated afterwards.
type Record struct {
	ID           core.UploadID  `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	OwnerID      core.UserID    `json:"-" db:"owner_id"`
	UploadedBy   string         `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt   core.Timestamp `json:"uploaded_at" db:"uploaded_at"`
	TotalRows    int            `json:"total_rows" db:"total_rows"`
	AvgFlowRate  float64        `json:"avg_flow_rate" db:"avg_flow_rate"`
	AvgPressure  float64        `json:"avg_pressure" db:"avg_pressure"`
	Distribution Distribution   `json:"equipment_distribution" db:"equipment_distribution"`
}

// Page is one slice of a user's upload history, newest first. Count is the
// total number of records for the owner independent of the slice.
type Page struct {
	Count   int      `json:"count"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
	Results []Record `json:"results"`
}
