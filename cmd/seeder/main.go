// cmd/seeder/main.go
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"zapdispatch/internal/config"
	"zapdispatch/internal/db"
)

func main() {
	logger := logrus.New()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on OS environment variables")
	}
	cfg := config.Load()

	conn, err := db.Connect(cfg.DBDSN)
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	defer conn.Close()

	seedFiles := []string{
		"seed/schema.sql",
		"seed/demo.sql",
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			logger.WithError(err).Fatalf("failed to read %s", file)
		}
		if _, err := conn.Exec(string(content)); err != nil {
			logger.WithError(err).Fatalf("failed to execute %s", file)
		}
		logger.WithField("file", file).Info("seeded")
	}

	logger.Info("database seeding completed")
}
