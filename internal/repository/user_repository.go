package repository

import (
	"github.com/eventzx/messaging/internal/models"
	"gorm.io/gorm"
)

// UserRepository is a read-only view of the identity provider's user table.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Exists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
