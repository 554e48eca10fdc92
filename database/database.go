package database

import (
	"fmt"
	"log"
	"strings"

	config "github.com/anjiri1684/mixlab_studio/configs"
	"github.com/anjiri1684/mixlab_studio/migrations"
	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open returns a gorm handle with driver errors translated, so unique
// violations surface as gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector, development bool) (*gorm.DB, error) {
	level := logger.Warn
	if development {
		level = logger.Info
	}
	return gorm.Open(dialector, &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(level),
	})
}

func ConnectDB(dsn string, development bool) {
	var err error
	DB, err = Open(postgres.Open(dsn), development)
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Badge{},
		&models.Lesson{},
		&models.Booking{},
		&models.Notification{},
		&models.GuestSession{},
		&models.GuestAccessLog{},
		&models.GameProgress{},
		&models.PasswordResetOTP{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

// RunSeedMigrations applies the versioned reference data on top of the
// AutoMigrate schema.
func RunSeedMigrations() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatalf("🔥 Failed to get sql.DB handle: %v", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("🔥 Failed to set goose dialect: %v", err)
	}
	if err := goose.Up(sqlDB, "."); err != nil {
		log.Fatalf("🔥 goose: failed to run seed migrations: %v", err)
	}
	fmt.Println("✅ Seed migrations applied")
}

func SeedAdmin() {
	adminEmail := strings.ToLower(strings.TrimSpace(config.Config("ADMIN_EMAIL")))
	adminPassword := config.Config("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️ ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed.")
		return
	}

	var count int64
	err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
		return
	}

	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
		return
	}

	username := config.Config("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	adminUser := models.User{
		Username: username,
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
		IsActive: true,
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
		return
	}

	log.Println("✅ Admin user seeded successfully")
}
