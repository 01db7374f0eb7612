package cables

import (
	"time"

	"github.com/lib/pq"
)

// CableRecord is one uploaded feature collection, stored verbatim.
// Records are only ever appended.
type CableRecord struct {
	RecordID          string         `gorm:"primaryKey;type:uuid" json:"record_id"`
	Seq               int64          `gorm:"autoIncrement;uniqueIndex;not null" json:"-"`
	FeatureCollection string         `gorm:"type:text;not null" json:"-"`
	CableNames        pq.StringArray `gorm:"type:text[]" json:"cable_names"`
	FeatureCount      int            `json:"feature_count"`
	Source            string         `json:"source"`
	UploadedBy        string         `json:"uploaded_by"`
	CreatedAt         time.Time      `json:"created_at"`
}

func (CableRecord) TableName() string { return "atlas.cable_records" }
