package platform

import (
	"fmt"
	"log"

	"memchat/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	DB *gorm.DB
)

// InitDB opens the backing database per configuration and stores the
// handle in the package-level DB used by the model layer.
func InitDB(cfg *config.Config) {
	db, err := OpenDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
		return
	}
	DB = db
}

// OpenDB builds a gorm connection for the configured driver. The
// default is a single-file sqlite database; mysql is selected with
// DB_DRIVER=mysql plus the SQL_* connection settings.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.SQLUser, cfg.SQLPassword, cfg.SQLHost, cfg.SQLPort, cfg.SQLDBName)
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}
