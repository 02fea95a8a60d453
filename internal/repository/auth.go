package repository

import (
	"errors"

	"github.com/user/fleet-dashboard-api/internal/models"
	"gorm.io/gorm"
)

// === Users ===

// GetUserByEmail returns a user by email, nil when not found
func (r *Repository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID returns a user by primary key
func (r *Repository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new user
func (r *Repository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

// CountUsers returns the number of registered users
func (r *Repository) CountUsers() (int64, error) {
	var count int64
	if err := r.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
