package study

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	domain "github.com/DodiBTW/RevisiaAPI/domain/study"
	"github.com/DodiBTW/RevisiaAPI/modules/cache"
	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	dbOpenAttempts = 3
	dbOpenBackoff  = 500 * time.Millisecond
)

// StudyModule provides courses, chapters, decks, cards, reviews and
// per-user settings.
type StudyModule struct {
	db          *gorm.DB
	service     *Service
	dbPath      string
	cacheModule *cache.CacheModule
}

// Compile-time interface checks.
var _ mono.Module = (*StudyModule)(nil)
var _ mono.HealthCheckableModule = (*StudyModule)(nil)

// NewModule creates a new StudyModule.
func NewModule() *StudyModule {
	dbPath := os.Getenv("STUDY_DB_PATH")
	if dbPath == "" {
		dbPath = "revisia_study.db"
	}
	return &StudyModule{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *StudyModule) Name() string {
	return "study"
}

// Start opens the database, migrates the schema and builds the service.
func (m *StudyModule) Start(_ context.Context) error {
	db, err := openDatabase(m.dbPath)
	if err != nil {
		return err
	}
	m.db = db

	repo := domain.NewRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var c *cache.Cache
	if m.cacheModule != nil {
		c = m.cacheModule.GetCache()
	}
	m.service = NewService(repo, c)

	log.Printf("[study] Module started (database: %s, cache: %t)", m.dbPath, c != nil)
	return nil
}

// Stop shuts down the module.
func (m *StudyModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[study] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *StudyModule) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// SetCacheModule wires the cache provider. Call before Start; the cache
// module must be registered ahead of this one so its cache exists when the
// service is built. A nil provider leaves reads going straight to the
// database.
func (m *StudyModule) SetCacheModule(cm *cache.CacheModule) {
	m.cacheModule = cm
}

// GetService returns the study service.
func (m *StudyModule) GetService() *Service {
	return m.service
}

// openDatabase opens the sqlite database with bounded retries.
func openDatabase(path string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= dbOpenAttempts; attempt++ {
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err == nil {
			return db, nil
		}
		if attempt < dbOpenAttempts {
			log.Printf("[study] database open attempt %d failed: %v", attempt, err)
			time.Sleep(time.Duration(attempt) * dbOpenBackoff)
		}
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", dbOpenAttempts, err)
}
