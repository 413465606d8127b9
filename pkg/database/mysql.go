package database

import (
	"fmt"
	"time"

	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/social-jukebox/pkg/models"
)

// MySQLDB holds the play-history archive. Queue and playback state are
// deliberately never written here; rooms rebuild from empty on restart and
// the archive is an append-only audit of what actually played.
type MySQLDB struct {
	*gorm.DB
}

func NewMySQLDB(host, port, user, password, dbname string) (*MySQLDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &MySQLDB{DB: db}, nil
}

func autoMigrate(db *gorm.DB) error {
	zlog.Info().Msg("running database migrations")
	return db.AutoMigrate(&models.PlayRecord{})
}

// RecordPlay appends one finished/started play to the archive.
func (db *MySQLDB) RecordPlay(record *models.PlayRecord) error {
	return db.Create(record).Error
}

// RecentPlays returns the newest plays for a room, newest first.
func (db *MySQLDB) RecentPlays(roomID string, limit int) ([]*models.PlayRecord, error) {
	var records []*models.PlayRecord
	if err := db.Where("room_id = ?", roomID).
		Order("played_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
