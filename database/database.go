package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/tieubaoca/studytool-be/config"
)

// StoredFile is the metadata row of an uploaded document. StoredFilename is
// unique system-wide and is the key of the payload in the blob store.
type StoredFile struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)"`
	UserID           string    `gorm:"index;not null"`
	OriginalFilename string    `gorm:"not null"`
	StoredFilename   string    `gorm:"uniqueIndex;not null"`
	FileSize         int64     `gorm:"not null"`
	UploadTime       time.Time `gorm:"index;not null"`
}

type FlashcardSet struct {
	ID        string      `gorm:"primaryKey;type:varchar(36)"`
	UserID    string      `gorm:"index;not null"`
	Source    string      `gorm:"not null"`
	CreatedAt time.Time   `gorm:"index"`
	Cards     []Flashcard `gorm:"foreignKey:SetID;constraint:OnDelete:CASCADE"`
}

type Flashcard struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	SetID     string `gorm:"index;not null"`
	Position  int    `gorm:"not null"`
	Front     string `gorm:"type:text;not null"`
	Back      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

type Quiz struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)"`
	UserID    string         `gorm:"index;not null"`
	Title     string         `gorm:"not null"`
	CreatedAt time.Time      `gorm:"index"`
	Questions []QuizQuestion `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

type QuizQuestion struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	QuizID        string `gorm:"index;not null"`
	Position      int    `gorm:"not null"`
	Question      string `gorm:"type:text;not null"`
	OptionA       string `gorm:"type:text;not null"`
	OptionB       string `gorm:"type:text;not null"`
	OptionC       string `gorm:"type:text;not null"`
	OptionD       string `gorm:"type:text;not null"`
	CorrectOption int    `gorm:"not null"`
}

type Summary struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	UserID       string    `gorm:"index;not null"`
	Summary      string    `gorm:"type:text;not null"`
	SourceLength int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"index"`
}

// Open connects to the relational metadata store selected by cfg.Driver.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("database driver %q is not a gorm driver", cfg.Driver)
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&StoredFile{},
		&FlashcardSet{},
		&Flashcard{},
		&Quiz{},
		&QuizQuestion{},
		&Summary{},
	)
}
