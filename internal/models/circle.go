package models

import (
	"time"
)

// Circle is a read-only mirror of a community chat group owned by the main
// EventzX application. Membership is read fresh on every fan-out.
type Circle struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name   string `gorm:"size:100;not null" json:"name"`
	Avatar string `json:"avatar"`

	Members []CircleMember `gorm:"foreignKey:CircleID" json:"members,omitempty"`
}

type CircleMember struct {
	CircleID uint      `gorm:"primaryKey" json:"circle_id"`
	UserID   uint      `gorm:"primaryKey" json:"user_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}
