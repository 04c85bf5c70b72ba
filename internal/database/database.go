// Package database keeps the execution journal: which bets were placed,
// in which session, at what stake. Detected opportunities are not stored
// - they are ephemeral per-tick signals.
package database

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db *gorm.DB
}

// Models

// Session is one match's scanning window: when it ran and what it spent.
type Session struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	MatchTitle string `gorm:"index"`
	Kickoff    time.Time
	WakeupTime time.Time
	EndTime    time.Time
	BetsPlaced int
	Spent      decimal.Decimal `gorm:"type:decimal(20,6)"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Bet is one executed CLOB order.
type Bet struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	SessionID  uint   `gorm:"index"`
	TokenID    string `gorm:"index"`
	OrderID    string
	MatchTitle string
	Outcome    string
	Minute     int
	PolyProb   float64
	Edge       *float64
	Stake      decimal.Decimal `gorm:"type:decimal(20,6)"`
	Status     string          // "matched", "dry_run"
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New opens the journal. A postgres:// DSN selects PostgreSQL, anything
// else is treated as a SQLite file path.
func New(dbPath string) (*Database, error) {
	var db *gorm.DB
	var err error

	if strings.HasPrefix(dbPath, "postgres://") || strings.HasPrefix(dbPath, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Journal connected (PostgreSQL)")
	} else {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", dbPath).Msg("Journal initialized (SQLite)")
	}

	if err := db.AutoMigrate(&Session{}, &Bet{}); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

// Session operations

func (d *Database) SaveSession(session *Session) error {
	return d.db.Save(session).Error
}

// Bet operations

func (d *Database) SaveBet(bet *Bet) error {
	return d.db.Create(bet).Error
}

func (d *Database) RecentBets(limit int) ([]Bet, error) {
	var bets []Bet
	err := d.db.Order("created_at DESC").Limit(limit).Find(&bets).Error
	return bets, err
}
