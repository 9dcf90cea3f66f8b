package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"meditrack/m/internal/api"
	"meditrack/m/internal/config"
	"meditrack/m/internal/database"
	"meditrack/m/internal/migrations"
	"meditrack/m/internal/seed"
	"meditrack/m/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)
	if cfg.MedicineCSV != "" {
		seed.LoadMedicines(db, cfg.MedicineCSV)
	}

	var sessions session.Store
	switch cfg.SessionBackend {
	case "redis":
		store, err := session.NewRedisStore(cfg.RedisAddr, cfg.SessionTTL)
		if err != nil {
			logrus.Fatalf("unable to connect to redis session store: %v", err)
		}
		sessions = store
	default:
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	handler := api.New(db, sessions, cfg.SessionTTL)

	logrus.Infof("MediTrack inventory server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		logrus.Fatalf("server error: %v", err)
	}
}
