package cables

import (
	"github.com/seacable/atlas-backend/internal/db"
	"gorm.io/gorm"
)

// Init creates the atlas schema and the record table.
func Init(d *gorm.DB) error {
	return db.Migrate(d, "atlas", &CableRecord{})
}
