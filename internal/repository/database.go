package repository

import (
	"fmt"
	"os"

	"github.com/eventzx/messaging/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
	)

	// TranslateError maps driver errors (pg 23505 on idx_client_sender) onto
	// gorm.ErrDuplicatedKey, which the send path's retry-race recovery
	// depends on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Users, circles and circle_members are owned by the main EventzX app;
	// migrating them here is only for standalone/dev deployments where that
	// app has not run yet.
	if err := db.AutoMigrate(
		&models.User{},
		&models.Circle{},
		&models.CircleMember{},
		&models.Message{},
		&models.ChatReadState{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
