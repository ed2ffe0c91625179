package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"brickfund/internal/models"
)

// GetProperty loads a property with its aggregate and tokenomics.
func GetProperty(db *gorm.DB, id string) (*models.Property, error) {
	var property models.Property
	err := db.Preload("Aggregate").Preload("Tokenomics").Where("id = ?", id).First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// ListProperties returns properties matching the filters, newest first.
func ListProperties(db *gorm.DB, filters *models.PropertyFilters) ([]models.Property, error) {
	query := db.Model(&models.Property{}).Preload("Aggregate")
	if filters != nil {
		if filters.MinPrice != nil {
			query = query.Where("price >= ?", *filters.MinPrice)
		}
		if filters.MaxPrice != nil {
			query = query.Where("price <= ?", *filters.MaxPrice)
		}
		if filters.OwnerID != "" {
			query = query.Where("owner_id = ?", filters.OwnerID)
		}
		if len(filters.Statuses) > 0 {
			query = query.Where("status IN ?", filters.Statuses)
		}
	}

	var candidates []models.Property
	if err := query.Order("created_at DESC").Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}

	// Categories and bounds are matched in memory
	properties := make([]models.Property, 0, len(candidates))
	for i := range candidates {
		if filters.IsPropertyAllowed(&candidates[i]) {
			properties = append(properties, candidates[i])
		}
	}
	return properties, nil
}

// DeletePropertyCascade removes a property and everything it owns.
func DeletePropertyCascade(tx *gorm.DB, id string) error {
	steps := []struct {
		name  string
		model interface{}
		where string
	}{
		{"reviews", &models.Review{}, "property_id = ?"},
		{"investments", &models.Investment{}, "property_id = ?"},
		{"tokenomics", &models.Tokenomics{}, "property_id = ?"},
		{"aggregate", &models.PropertyAggregate{}, "property_id = ?"},
		{"property", &models.Property{}, "id = ?"},
	}
	for _, step := range steps {
		if err := tx.Where(step.where, id).Delete(step.model).Error; err != nil {
			return fmt.Errorf("failed to delete %s: %w", step.name, err)
		}
	}
	return nil
}

// AllPropertyIDs returns the id of every property.
func AllPropertyIDs(db *gorm.DB) ([]string, error) {
	var ids []string
	if err := db.Model(&models.Property{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list property ids: %w", err)
	}
	return ids, nil
}

// InvestmentsBetween returns investments dated in (after, until], optionally
// restricted to one investor and a set of statuses.
func InvestmentsBetween(db *gorm.DB, after, until time.Time, investorID string, statuses []models.InvestmentStatus) ([]models.Investment, error) {
	query := scopeInvestments(db.Where("date > ? AND date <= ?", after, until), investorID, statuses)

	var investments []models.Investment
	if err := query.Order("date ASC").Find(&investments).Error; err != nil {
		return nil, fmt.Errorf("failed to query investments: %w", err)
	}
	return investments, nil
}

// Columns FirstInvestmentDates can group by
const (
	GroupByInvestor = "investor_id"
	GroupByProperty = "property_id"
)

// FirstInvestmentDates returns, per distinct value of column, the date of the
// earliest qualifying investment at or before until. Only first dates after
// after are returned; the earliest date still considers the full history.
func FirstInvestmentDates(db *gorm.DB, column string, after, until time.Time, investorID string, statuses []models.InvestmentStatus) ([]time.Time, error) {
	if column != GroupByInvestor && column != GroupByProperty {
		return nil, fmt.Errorf("unsupported grouping column %q", column)
	}

	query := scopeInvestments(db.Model(&models.Investment{}).Where("date <= ?", until), investorID, statuses)
	return firstDates(query, column, "date", after)
}

// PropertiesCreatedBetween returns the creation time of properties created in (after, until].
func PropertiesCreatedBetween(db *gorm.DB, after, until time.Time) ([]time.Time, error) {
	var created []time.Time
	err := db.Model(&models.Property{}).
		Where("created_at > ? AND created_at <= ?", after, until).
		Order("created_at ASC").
		Pluck("created_at", &created).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	return created, nil
}

// FirstListingDates returns, per owner, the creation time of the owner's first
// property when it falls in (after, until].
func FirstListingDates(db *gorm.DB, after, until time.Time) ([]time.Time, error) {
	query := db.Model(&models.Property{}).Where("created_at <= ?", until)
	return firstDates(query, "owner_id", "created_at", after)
}

func scopeInvestments(query *gorm.DB, investorID string, statuses []models.InvestmentStatus) *gorm.DB {
	if investorID != "" {
		query = query.Where("investor_id = ?", investorID)
	}
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	return query
}

type firstDateRow struct {
	GroupKey string
	FirstAt  Timestamp
}

func firstDates(query *gorm.DB, groupColumn, dateColumn string, after time.Time) ([]time.Time, error) {
	var rows []firstDateRow
	err := query.
		Select(fmt.Sprintf("%s AS group_key, MIN(%s) AS first_at", groupColumn, dateColumn)).
		Group(groupColumn).
		Having(fmt.Sprintf("MIN(%s) > ?", dateColumn), after).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query first dates by %s: %w", groupColumn, err)
	}

	dates := make([]time.Time, len(rows))
	for i, row := range rows {
		dates[i] = row.FirstAt.Time
	}
	return dates, nil
}

// InvestmentsByInvestor returns every investment of one investor, oldest first.
func InvestmentsByInvestor(db *gorm.DB, investorID string) ([]models.Investment, error) {
	var investments []models.Investment
	err := db.Where("investor_id = ?", investorID).Order("date ASC").Find(&investments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query investments: %w", err)
	}
	return investments, nil
}

// PropertiesByIDs loads properties with aggregate and tokenomics keyed by id.
func PropertiesByIDs(db *gorm.DB, ids []string) (map[string]*models.Property, error) {
	result := make(map[string]*models.Property, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var properties []models.Property
	err := db.Preload("Aggregate").Preload("Tokenomics").Where("id IN ?", ids).Find(&properties).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	for i := range properties {
		result[properties[i].ID] = &properties[i]
	}
	return result, nil
}
