package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"insurance_platform/dashboard/auth"
	"insurance_platform/dashboard/config"
	"insurance_platform/dashboard/dataset"
	"insurance_platform/dashboard/model"
	"insurance_platform/dashboard/notify"
	"insurance_platform/dashboard/schema"
	"insurance_platform/dashboard/services"
	"insurance_platform/dashboard/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func initLogging(logFile *os.File) {
	log.SetFlags(log.Lshortfile | log.Ltime | log.Ldate)
	log.SetOutput(io.MultiWriter(logFile, os.Stderr))
	slog.Info("logging initialized", "log_file", logFile.Name())
}

func postgresDsn(databaseUri string) string {
	parts, err := url.Parse(databaseUri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func initDb(cfg config.Config) *gorm.DB {
	var dialector gorm.Dialector
	if cfg.DatabaseUri != "" {
		dialector = postgres.Open(postgresDsn(cfg.DatabaseUri))
	} else {
		path := filepath.Join(cfg.ShareDir, "dashboard.db")
		slog.Info("DATABASE_URI not set, using local sqlite database", "path", path)
		dialector = sqlite.Open(path)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	err = db.AutoMigrate(
		&schema.User{}, &schema.Dataset{}, &schema.PredictionRecord{}, &schema.EmailReport{},
	)
	if err != nil {
		log.Fatalf("error migrating db schema: %v", err)
	}

	return db
}

func ensureAdminAccount(userAuth auth.IdentityProvider, cfg config.Config) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	_, err := userAuth.CreateUser(cfg.AdminEmail, cfg.AdminPassword, true)
	if err != nil && !errors.Is(err, auth.ErrEmailAlreadyInUse) {
		log.Fatalf("error creating admin account: %v", err)
	}
}

func main() {
	envFile := flag.String("env", "", "File to load env variables from. If not specified will just load them from the environment variables already defined.")
	port := flag.Int("port", 8000, "Port to run server on")

	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	err = os.MkdirAll(filepath.Join(cfg.ShareDir, "logs/"), 0777)
	if err != nil {
		log.Fatalf("error creating log dir: %v", err)
	}

	logFile, err := os.OpenFile(filepath.Join(cfg.ShareDir, "logs/dashboard.log"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer logFile.Close()

	initLogging(logFile)

	db := initDb(cfg)

	localStorage := storage.NewLocalDisk(cfg.ShareDir)

	identityProvider, err := auth.NewBasicIdentityProvider(db, []byte(cfg.JwtSecretKey))
	if err != nil {
		log.Fatalf("error creating identity provider: %v", err)
	}
	ensureAdminAccount(identityProvider, cfg)

	datasets := dataset.NewStore(db, localStorage)
	models := model.NewManager(localStorage)
	notifier := notify.NewService(db, cfg.Mailer(localStorage), cfg.EmailTimeout)

	dashboard := services.NewDashboard(db, datasets, models, notifier, identityProvider)

	dashboard.Bootstrap()

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Mount("/", dashboard.Routes())

	slog.Info("starting server", "port", *port)
	err = http.ListenAndServe(fmt.Sprintf(":%d", *port), r)
	if err != nil {
		log.Fatalf("listen and serve returned error: %v", err.Error())
	}
}
