package bootstrap

import (
	"log"

	"github.com/aihub/answerai-go/app/controllers"
	"github.com/aihub/answerai-go/internal/config"
	"github.com/aihub/answerai-go/internal/database"
	"github.com/aihub/answerai-go/internal/di"
	"github.com/aihub/answerai-go/internal/logger"
	"github.com/joho/godotenv"
	"go.uber.org/dig"
)

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	Container    *dig.Container
	cleanupTasks []func() error
}

// Init bootstraps configuration, logger, database connections and the
// dependency container required by the Beego application.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger.
	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	// Load dynamic configuration.
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}

	container, err := di.BuildContainer()
	if err != nil {
		return nil, err
	}

	app := &App{Container: container}

	// 装载控制器注册表，同时触发数据库与Redis连接建立
	if err := controllers.InitRegistry(container); err != nil {
		return nil, err
	}
	app.cleanupTasks = append(app.cleanupTasks,
		database.CloseRedis,
		database.CloseDB,
	)

	return app, nil
}

// Shutdown flushes logs and closes resources gracefully.
func (a *App) Shutdown() {
	for i := len(a.cleanupTasks) - 1; i >= 0; i-- {
		if err := a.cleanupTasks[i](); err != nil {
			log.Printf("Cleanup error: %v\n", err)
		}
	}
	logger.Sync()
}
