// @title Pythonchick 后端 API
// @version 1.0
// @description Pythonchick 少儿 Python 学习平台的后端服务。

// @host localhost:8000
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"flag"
	"log"

	"pythonchick_backend/internal/app"
	"pythonchick_backend/internal/config"
	"pythonchick_backend/pkg/logger"
)

const configDir = "configs"

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	seedCatalogue := flag.Bool("seed", false, "启动时写入内置课程、挑战和游戏（已存在的跳过）")
	flag.Parse()

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly
	cfg.Seed = *seedCatalogue

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	application.WatchConfig(ctx, configDir)

	application.Run()
}
