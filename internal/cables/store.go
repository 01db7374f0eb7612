package cables

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/seacable/atlas-backend/internal/apperr"
	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/seacable/atlas-backend/internal/utils"
	"gorm.io/gorm"
)

// FeatureSource yields every stored feature in storage order.
type FeatureSource interface {
	Features(ctx context.Context) ([]geo.Feature, error)
}

// Appender stores one feature collection as a new record.
type Appender interface {
	Append(ctx context.Context, in NewRecord) (CableRecord, error)
}

type Repository interface {
	FeatureSource
	Appender
}

// NewRecord is the input to Append.
type NewRecord struct {
	Features   []geo.Feature
	Source     string
	UploadedBy string
}

// Prepare validates the features and builds the record row. Every feature
// needs a geometry the overlay engine can decode.
func Prepare(in NewRecord) (CableRecord, error) {
	if len(in.Features) == 0 {
		return CableRecord{}, apperr.Validation("feature collection is empty")
	}
	for i, f := range in.Features {
		if f.Geometry == nil {
			return CableRecord{}, apperr.Validation("feature %d has no geometry", i)
		}
		if _, err := f.Geometry.Decode(); err != nil {
			return CableRecord{}, apperr.Validation("feature %d: %v", i, err)
		}
	}

	raw, err := json.Marshal(geo.NewFeatureCollection(in.Features))
	if err != nil {
		return CableRecord{}, fmt.Errorf("encode feature collection: %w", err)
	}

	return CableRecord{
		RecordID:          utils.GenerateUUID(),
		FeatureCollection: string(raw),
		CableNames:        pq.StringArray(geo.CableNames(in.Features)),
		FeatureCount:      len(in.Features),
		Source:            in.Source,
		UploadedBy:        in.UploadedBy,
	}, nil
}

// Store keeps records in Postgres through gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, in NewRecord) (CableRecord, error) {
	rec, err := Prepare(in)
	if err != nil {
		return CableRecord{}, err
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return CableRecord{}, fmt.Errorf("insert cable record: %w", err)
	}
	return rec, nil
}

// Features decodes every record, oldest first.
func (s *Store) Features(ctx context.Context) ([]geo.Feature, error) {
	var records []CableRecord
	err := s.db.WithContext(ctx).
		Select("record_id", "feature_collection").
		Order("seq ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load cable records: %w", err)
	}
	return decodeRecords(records)
}

// Records lists record metadata, newest first.
func (s *Store) Records(ctx context.Context, limit int) ([]CableRecord, error) {
	var records []CableRecord
	err := s.db.WithContext(ctx).
		Omit("feature_collection").
		Order("seq DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list cable records: %w", err)
	}
	return records, nil
}

func decodeRecords(records []CableRecord) ([]geo.Feature, error) {
	var features []geo.Feature
	for _, r := range records {
		fs, err := geo.DecodeRecord([]byte(r.FeatureCollection))
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", r.RecordID, err)
		}
		features = append(features, fs...)
	}
	return features, nil
}
