package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"brickfund/config"
)

// CategoryHandler manages the catalog of property categories.
type CategoryHandler struct {
	logger *logrus.Logger
}

type CategoryRequest struct {
	Description string `json:"description"`
}

func NewCategoryHandler(logger *logrus.Logger) *CategoryHandler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &CategoryHandler{logger: logger}
}

// SetupCategoryRoutes adds category catalog routes to the router
func SetupCategoryRoutes(router *gin.Engine, logger *logrus.Logger) {
	handler := NewCategoryHandler(logger)

	router.GET("/api/categories", handler.ListCategories)
	router.PUT("/api/categories/:name", handler.UpdateCategory)
	router.DELETE("/api/categories/:name", handler.DeleteCategory)
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, config.GetCategories())
}

// UpdateCategory creates or replaces a category
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := config.Category{
		Name:        strings.ToLower(strings.TrimSpace(c.Param("name"))),
		Description: req.Description,
	}
	if category.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category name is required"})
		return
	}

	if err := config.UpdateCategory(category); err != nil {
		h.logger.WithError(err).WithField("category", category.Name).Error("Failed to update category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}

	h.logger.WithField("category", category.Name).Info("Category updated")
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	name := c.Param("name")
	if !config.IsSupportedCategory(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	if err := config.DeleteCategory(name); err != nil {
		h.logger.WithError(err).WithField("category", name).Error("Failed to delete category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
