package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/aihub/answerai-go/internal/config"
	"github.com/aihub/answerai-go/internal/database"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	var action = flag.String("action", "up", "Migration action: up, down, version")
	var path = flag.String("path", "./migrations", "Migration files directory")
	flag.Parse()

	// 初始化配置
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 连接数据库
	db, err := gorm.Open(postgres.Open(config.AppConfig.Database.URL), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql.DB: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// 创建日志器
	migrationLogger := logrus.New()
	migrationLogger.SetLevel(logrus.InfoLevel)

	manager, err := database.NewMigrationManager(sqlDB, *path, migrationLogger)
	if err != nil {
		log.Fatalf("Failed to create migration manager: %v", err)
	}

	switch *action {
	case "up":
		if err := manager.Up(); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
	case "down":
		if err := manager.Down(); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
	case "version":
		version, dirty, err := manager.Version()
		if err != nil {
			log.Fatalf("Failed to read migration version: %v", err)
		}
		fmt.Printf("version=%d dirty=%v\n", version, dirty)
	default:
		log.Fatalf("Unknown action: %s", *action)
	}
}
