package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Category represents a property category the platform supports
type Category struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CategoryConfig represents the full category catalog file
type CategoryConfig struct {
	Categories []Category `json:"categories"`
}

// DefaultCategories is used until a catalog file is loaded
var DefaultCategories = []Category{
	{Name: "residential", Description: "Houses and apartments"},
	{Name: "commercial", Description: "Offices and retail units"},
	{Name: "industrial", Description: "Warehouses and logistics"},
	{Name: "hospitality", Description: "Hotels and short stay"},
	{Name: "land", Description: "Undeveloped plots"},
}

var (
	categoryConfig *CategoryConfig
	categoryLock   sync.RWMutex
	categoryPath   = "config/categories.json"
)

// LoadCategories loads the category catalog from file. A missing file keeps the defaults.
func LoadCategories(path string) error {
	categoryLock.Lock()
	defer categoryLock.Unlock()

	if path != "" {
		categoryPath = path
	}

	absPath, err := filepath.Abs(categoryPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if os.IsNotExist(err) {
		categoryConfig = &CategoryConfig{Categories: append([]Category(nil), DefaultCategories...)}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config CategoryConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	categoryConfig = &config
	return nil
}

// saveCategories writes config to file. Callers hold categoryLock.
func saveCategories(config *CategoryConfig) error {
	absPath, err := filepath.Abs(categoryPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(absPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func currentCategories() []Category {
	if categoryConfig == nil {
		return DefaultCategories
	}
	return categoryConfig.Categories
}

// GetCategories returns all configured categories
func GetCategories() []Category {
	categoryLock.RLock()
	defer categoryLock.RUnlock()

	current := currentCategories()
	categories := make([]Category, len(current))
	copy(categories, current)
	return categories
}

// GetCategoryNames returns the names of all configured categories
func GetCategoryNames() []string {
	categories := GetCategories()
	names := make([]string, len(categories))
	for i, category := range categories {
		names[i] = category.Name
	}
	return names
}

// IsSupportedCategory reports whether name is in the catalog, ignoring case
func IsSupportedCategory(name string) bool {
	categoryLock.RLock()
	defer categoryLock.RUnlock()

	for _, category := range currentCategories() {
		if strings.EqualFold(category.Name, name) {
			return true
		}
	}
	return false
}

// UpdateCategory updates or adds a category and persists the catalog. The
// in-memory catalog only changes once the file is written.
func UpdateCategory(category Category) error {
	categoryLock.Lock()
	defer categoryLock.Unlock()

	current := currentCategories()
	next := make([]Category, 0, len(current)+1)
	found := false
	for _, existing := range current {
		if strings.EqualFold(existing.Name, category.Name) {
			existing = category
			found = true
		}
		next = append(next, existing)
	}
	if !found {
		next = append(next, category)
	}

	config := &CategoryConfig{Categories: next}
	if err := saveCategories(config); err != nil {
		return err
	}
	categoryConfig = config
	return nil
}

// DeleteCategory removes a category and persists the catalog
func DeleteCategory(name string) error {
	categoryLock.Lock()
	defer categoryLock.Unlock()

	if categoryConfig == nil {
		return fmt.Errorf("no configuration loaded")
	}

	next := make([]Category, 0, len(categoryConfig.Categories))
	for _, category := range categoryConfig.Categories {
		if !strings.EqualFold(category.Name, name) {
			next = append(next, category)
		}
	}
	if len(next) == len(categoryConfig.Categories) {
		return fmt.Errorf("category not found: %s", name)
	}

	config := &CategoryConfig{Categories: next}
	if err := saveCategories(config); err != nil {
		return err
	}
	categoryConfig = config
	return nil
}
