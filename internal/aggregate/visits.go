package aggregate

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"brickfund/internal/models"
)

// RecordVisit counts one view of a property. The increment is a single upsert
// so concurrent viewers never lose updates.
func (e *Engine) RecordVisit(tx *gorm.DB, propertyID string) error {
	agg := models.PropertyAggregate{PropertyID: propertyID, VisitCount: 1}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "property_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"visit_count": gorm.Expr("property_aggregates.visit_count + 1"),
			"updated_at":  tx.NowFunc(),
		}),
	}).Create(&agg).Error
	if err != nil {
		return fmt.Errorf("failed to record visit for property %s: %w", propertyID, err)
	}
	return nil
}
