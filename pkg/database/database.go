package database

import (
	"fmt"

	"eyecare_backend/internal/config"
	"eyecare_backend/internal/model"
	"eyecare_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database without migrating it.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DBName)
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if cfg.Driver == "sqlite" {
		// one connection, sqlite has a single writer
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates every table the app owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Achievement{},
		&model.Checkin{},
		&model.TestResult{},
		&model.Reminder{},
		&model.EyeTip{},
		&model.Plate{},
	)
}

// InitDB opens the database and, when migrate is set, migrates and seeds it.
func InitDB(cfg *config.DatabaseConfig, migrate bool) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Database connection established", zap.String("driver", cfg.Driver))

	if !migrate {
		return db, nil
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := SeedTips(db); err != nil {
		return nil, fmt.Errorf("seed tips: %w", err)
	}
	logger.Log.Info("Database migration completed")

	return db, nil
}

var defaultTips = []model.EyeTip{
	{Title: "Follow the 20-20-20 rule", Category: "screen",
		Content: "Every 20 minutes, look at something 20 feet away for 20 seconds."},
	{Title: "Blink more often", Category: "screen",
		Content: "Screen work halves your blink rate. Blink fully a few times whenever you pause."},
	{Title: "Mind the distance", Category: "screen",
		Content: "Keep your monitor about an arm's length away with the top of the screen at or just below eye level."},
	{Title: "Light the room, not the screen", Category: "environment",
		Content: "Match screen brightness to the room and avoid glare from windows behind or in front of you."},
	{Title: "Wear sunglasses outdoors", Category: "protection",
		Content: "Pick lenses that block 99-100% of UVA and UVB, even on cloudy days."},
	{Title: "Eat for your eyes", Category: "nutrition",
		Content: "Leafy greens, oily fish and citrus supply lutein, omega-3 and vitamin C."},
	{Title: "Book regular eye exams", Category: "checkup",
		Content: "Self-tests are a screening aid. See an eye care professional every one to two years."},
	{Title: "Give contact lenses a rest", Category: "protection",
		Content: "Never sleep in lenses unless prescribed, and replace cases every three months."},
}

// SeedTips inserts the default tips into an empty table.
func SeedTips(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.EyeTip{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	tips := make([]model.EyeTip, len(defaultTips))
	copy(tips, defaultTips)
	return db.Create(&tips).Error
}
