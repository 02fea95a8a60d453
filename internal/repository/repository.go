package repository

import (
	"errors"
	"fmt"

	"github.com/user/fleet-dashboard-api/internal/config"
	"github.com/user/fleet-dashboard-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Repository - database access layer
type Repository struct {
	db *gorm.DB
}

// NewPostgresDB opens the PostgreSQL connection
func NewPostgresDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Model auto-migration
	if err := db.AutoMigrate(
		&models.User{},
		&models.AuditEntry{},
		&models.SelectedVesselRecord{},
	); err != nil {
		return nil, err
	}

	return db, nil
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// === Selection ===

// SaveSelectedVessel upserts the single persisted selection row
func (r *Repository) SaveSelectedVessel(v models.SelectedVessel) error {
	var rec models.SelectedVesselRecord
	err := r.db.First(&rec).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	rec.VesselID = v.ID
	rec.IMO = v.IMO
	rec.Name = v.Name
	rec.VpnIP = v.VpnIP
	return r.db.Save(&rec).Error
}

// LoadSelectedVessel returns the persisted selection, or nil when absent
func (r *Repository) LoadSelectedVessel() (*models.SelectedVessel, error) {
	var rec models.SelectedVesselRecord
	if err := r.db.First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &models.SelectedVessel{
		ID:    rec.VesselID,
		IMO:   rec.IMO,
		Name:  rec.Name,
		VpnIP: rec.VpnIP,
	}, nil
}

// ClearSelectedVessel removes the persisted selection
func (r *Repository) ClearSelectedVessel() error {
	return r.db.Where("1 = 1").Delete(&models.SelectedVesselRecord{}).Error
}

// === Audit ===

// AppendAudit records one mutating action
func (r *Repository) AppendAudit(entry *models.AuditEntry) error {
	return r.db.Create(entry).Error
}

// GetAuditEntries returns the most recent audit entries, newest first
func (r *Repository) GetAuditEntries(limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.AuditEntry
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// GetAuditEntriesForVessel returns audit entries for one vessel, newest first
func (r *Repository) GetAuditEntriesForVessel(vesselID string, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.AuditEntry
	if err := r.db.Where("vessel_id = ?", vesselID).
		Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
