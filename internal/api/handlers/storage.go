package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"demand-flex/internal/api/models"
	"demand-flex/internal/config"
)

// StorageHandler lists the storage presets usable as storage_file
type StorageHandler struct {
	storageDir string
	log        logrus.FieldLogger
}

// DefaultStorageDir returns STORAGE_DIR, else examples/storage under the
// working directory.
func DefaultStorageDir() string {
	dir := os.Getenv("STORAGE_DIR")
	if dir == "" {
		dir = filepath.Join("examples", "storage")
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir
}

func NewStorageHandler(storageDir string, log logrus.FieldLogger) *StorageHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StorageHandler{storageDir: storageDir, log: log.WithField("component", "storage")}
}

// StorageDir returns the preset directory.
func (h *StorageHandler) StorageDir() string {
	return h.storageDir
}

// ListStorage handles GET /api/v1/storage
func (h *StorageHandler) ListStorage(c *gin.Context) {
	presets := []models.StorageInfo{}

	entries, err := os.ReadDir(h.storageDir)
	if err != nil {
		h.log.Warnf("Failed to read storage directory %s: %v", h.storageDir, err)
		c.JSON(http.StatusOK, gin.H{"storage": presets})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(h.storageDir, entry.Name())
		info, err := loadStorageInfo(path, entry.Name())
		if err != nil {
			h.log.Warnf("Skipping storage file %s: %v", path, err)
			continue
		}
		presets = append(presets, *info)
	}

	c.JSON(http.StatusOK, gin.H{"storage": presets})
}

func loadStorageInfo(path, filename string) (*models.StorageInfo, error) {
	s, err := config.LoadStorageFile(path)
	if err != nil {
		return nil, err
	}

	// "home_10kwh.yaml" -> "home_10kwh"
	id := strings.TrimSuffix(filename, ".yaml")
	name := s.Name
	if name == "" {
		name = id
	}

	return &models.StorageInfo{
		ID:   id,
		Name: name,
		File: path,
		Specs: models.StorageSpecs{
			CapacityKWh:    s.CapacityKWh,
			MaxChargeKW:    s.MaxChargeKW,
			MaxDischargeKW: s.MaxDischargeKW,
		},
	}, nil
}
