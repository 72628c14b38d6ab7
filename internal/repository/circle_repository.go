package repository

import (
	"github.com/eventzx/messaging/internal/models"
	"gorm.io/gorm"
)

// CircleRepository is a read-only view of the community tables owned by the
// main EventzX application. Membership is queried fresh on every call so a
// user removed from a circle stops receiving fan-outs immediately.
type CircleRepository struct {
	db *gorm.DB
}

func NewCircleRepository(db *gorm.DB) *CircleRepository {
	return &CircleRepository{db: db}
}

func (r *CircleRepository) FindByID(id uint) (*models.Circle, error) {
	var circle models.Circle
	err := r.db.First(&circle, id).Error
	if err != nil {
		return nil, err
	}
	return &circle, nil
}

func (r *CircleRepository) IsMember(circleID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.CircleMember{}).
		Where("circle_id = ? AND user_id = ?", circleID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *CircleRepository) MemberIDs(circleID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.CircleMember{}).
		Where("circle_id = ?", circleID).
		Pluck("user_id", &ids).Error
	return ids, err
}
