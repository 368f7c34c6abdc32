package tests

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"insurance_platform/dashboard/auth"
	"insurance_platform/dashboard/dataset"
	"insurance_platform/dashboard/model"
	"insurance_platform/dashboard/notify"
	"insurance_platform/dashboard/schema"
	"insurance_platform/dashboard/services"
	"insurance_platform/dashboard/storage"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	dashboard services.Dashboard
	api       chi.Router
	storage   storage.Storage
	db        *gorm.DB
}

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin123"

	userEmail    = "user@example.com"
	userPassword = "user123"
)

func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	err = db.AutoMigrate(
		&schema.User{}, &schema.Dataset{}, &schema.PredictionRecord{}, &schema.EmailReport{},
	)
	if err != nil {
		t.Fatal(err)
	}

	storagePath := filepath.Join(t.TempDir(), "storage")
	err = os.MkdirAll(storagePath, 0777)
	if err != nil {
		t.Fatalf("error creating storage directory: %v", err)
	}
	store := storage.NewLocalDisk(storagePath)

	userAuth, err := auth.NewBasicIdentityProvider(db, []byte("290zcv02ai249"))
	if err != nil {
		t.Fatal(err)
	}

	datasets := dataset.NewStore(db, store)
	models := model.NewManager(store)
	notifier := notify.NewService(db, notify.NewFileSink(store), 5*time.Second)

	dashboard := services.NewDashboard(db, datasets, models, notifier, userAuth)

	return &testEnv{dashboard: dashboard, api: dashboard.Routes(), storage: store, db: db}
}

func (e *testEnv) newClient() client {
	return client{api: e.api}
}

func (e *testEnv) loginAs(t *testing.T, email, password string) client {
	c := e.newClient()
	if err := c.login(email, password); err != nil {
		t.Fatalf("login as %v failed: %v", email, err)
	}
	return c
}

func (e *testEnv) adminClient(t *testing.T) client {
	return e.loginAs(t, adminEmail, adminPassword)
}

func (e *testEnv) userClient(t *testing.T) client {
	return e.loginAs(t, userEmail, userPassword)
}
