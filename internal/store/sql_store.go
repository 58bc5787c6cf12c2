package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/preston-bernstein/racket-score-service/internal/domain/matches"
)

// matchRecord is the row layout; the full document lives in Document as JSON
// so the scoring state round-trips without a relational mapping of its own.
type matchRecord struct {
	TournamentID  string `gorm:"primaryKey;size:64"`
	MatchID       string `gorm:"primaryKey;size:64"`
	Status        string `gorm:"index;size:16"`
	PendingUpload bool   `gorm:"index"`
	Version       int64  `gorm:"not null"`
	Document      []byte `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (matchRecord) TableName() string { return "matches" }

// SQLStore persists match documents through gorm on a sqlite database.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLite opens (and migrates) the sqlite database at dsn.
func OpenSQLite(dsn string) (*SQLStore, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return NewSQLStore(db)
}

// NewSQLStore wraps an existing gorm handle and migrates the schema.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&matchRecord{}); err != nil {
		return nil, fmt.Errorf("migrate matches: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get loads the document at key.
func (s *SQLStore) Get(ctx context.Context, key matches.Key) (matches.Match, error) {
	var rec matchRecord
	err := s.db.WithContext(ctx).
		Where("tournament_id = ? AND match_id = ?", key.TournamentID, key.MatchID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return matches.Match{}, ErrNotFound
	}
	if err != nil {
		return matches.Match{}, err
	}
	return decodeRecord(rec)
}

// Create inserts a new document at version 1.
func (s *SQLStore) Create(ctx context.Context, m matches.Match) (matches.Match, error) {
	m = m.Clone()
	m.Version = 1
	rec, err := encodeRecord(m)
	if err != nil {
		return matches.Match{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&matchRecord{}).
			Where("tournament_id = ? AND match_id = ?", m.TournamentID, m.MatchID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrExists
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return matches.Match{}, err
	}
	return m, nil
}

// Save writes m only if the stored row still has expectedVersion.
func (s *SQLStore) Save(ctx context.Context, m matches.Match, expectedVersion int64) (matches.Match, error) {
	m = m.Clone()
	m.Version = expectedVersion + 1
	rec, err := encodeRecord(m)
	if err != nil {
		return matches.Match{}, err
	}

	res := s.db.WithContext(ctx).Model(&matchRecord{}).
		Where("tournament_id = ? AND match_id = ? AND version = ?", m.TournamentID, m.MatchID, expectedVersion).
		Updates(map[string]any{
			"status":         rec.Status,
			"pending_upload": rec.PendingUpload,
			"version":        rec.Version,
			"document":       rec.Document,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return matches.Match{}, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.Get(ctx, m.Key()); err != nil {
			return matches.Match{}, err
		}
		return matches.Match{}, ErrConflict
	}
	return m, nil
}

// Delete removes the row at key.
func (s *SQLStore) Delete(ctx context.Context, key matches.Key) error {
	res := s.db.WithContext(ctx).
		Where("tournament_id = ? AND match_id = ?", key.TournamentID, key.MatchID).
		Delete(&matchRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every match in a tournament ordered by match id.
func (s *SQLStore) List(ctx context.Context, tournamentID string) ([]matches.Match, error) {
	var recs []matchRecord
	if err := s.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("match_id").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return decodeRecords(recs)
}

// ListPendingUploads returns completed matches whose result has not been uploaded.
func (s *SQLStore) ListPendingUploads(ctx context.Context) ([]matches.Match, error) {
	var recs []matchRecord
	if err := s.db.WithContext(ctx).
		Where("pending_upload = ?", true).
		Order("tournament_id, match_id").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return decodeRecords(recs)
}

func encodeRecord(m matches.Match) (matchRecord, error) {
	doc, err := json.Marshal(m)
	if err != nil {
		return matchRecord{}, fmt.Errorf("encode match %s: %w", m.Key(), err)
	}
	return matchRecord{
		TournamentID:  m.TournamentID,
		MatchID:       m.MatchID,
		Status:        string(m.Status),
		PendingUpload: m.PendingUpload(),
		Version:       m.Version,
		Document:      doc,
	}, nil
}

func decodeRecord(rec matchRecord) (matches.Match, error) {
	var m matches.Match
	if err := json.Unmarshal(rec.Document, &m); err != nil {
		return matches.Match{}, fmt.Errorf("decode match %s/%s: %w", rec.TournamentID, rec.MatchID, err)
	}
	m.Version = rec.Version
	return m, nil
}

func decodeRecords(recs []matchRecord) ([]matches.Match, error) {
	out := make([]matches.Match, 0, len(recs))
	for _, rec := range recs {
		m, err := decodeRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
