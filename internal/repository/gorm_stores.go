package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FraudShield/internal/domain/models"

	"gorm.io/gorm"
)

// GormRegistryStore implements RegistryStore on Postgres.
type GormRegistryStore struct {
	db *gorm.DB
}

func NewGormRegistryStore(db *gorm.DB) *GormRegistryStore {
	return &GormRegistryStore{db: db}
}

// Upsert inserts or refreshes one registry row, keyed on registration
// number when present and name otherwise.
func (s *GormRegistryStore) Upsert(ctx context.Context, in *models.Intermediary) error {
	var existing models.Intermediary
	q := s.db.WithContext(ctx)
	if in.RegistrationNumber != "" {
		q = q.Where("registration_number = ?", in.RegistrationNumber)
	} else {
		q = q.Where("LOWER(name) = ?", strings.ToLower(in.Name))
	}
	err := q.First(&existing).Error
	switch {
	case err == nil:
		in.ID = existing.ID
		in.CreatedAt = existing.CreatedAt
		return s.db.WithContext(ctx).Save(in).Error
	case err == gorm.ErrRecordNotFound:
		return s.db.WithContext(ctx).Create(in).Error
	default:
		return fmt.Errorf("registry upsert lookup: %w", err)
	}
}

func (s *GormRegistryStore) Search(ctx context.Context, query string) ([]models.Intermediary, error) {
	var out []models.Intermediary
	pattern := "%" + strings.ToLower(query) + "%"
	err := s.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("registry search: %w", err)
	}
	return out, nil
}

// GormFilingStore implements FilingStore on Postgres.
type GormFilingStore struct {
	db *gorm.DB
}

func NewGormFilingStore(db *gorm.DB) *GormFilingStore {
	return &GormFilingStore{db: db}
}

func (s *GormFilingStore) Insert(ctx context.Context, f *models.Filing) error {
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("filing insert: %w", err)
	}
	return nil
}

// Search returns candidate filings for a match check. Scoping to the ticker
// keeps the candidate set small; the caller does the similarity comparison.
func (s *GormFilingStore) Search(ctx context.Context, query, ticker string) ([]models.Filing, error) {
	var out []models.Filing
	q := s.db.WithContext(ctx).Order("filing_date DESC").Limit(200)
	if ticker != "" {
		q = q.Where("UPPER(ticker) = ?", strings.ToUpper(ticker))
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("filing search: %w", err)
	}
	return out, nil
}

// GormHistoryStore implements HistoryStore on Postgres. Rows are append-only.
type GormHistoryStore struct {
	db *gorm.DB
}

func NewGormHistoryStore(db *gorm.DB) *GormHistoryStore {
	return &GormHistoryStore{db: db}
}

func (s *GormHistoryStore) Append(ctx context.Context, rec *models.VerificationRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("history append: %w", err)
	}
	return nil
}

func (s *GormHistoryStore) Recent(ctx context.Context, limit int, since time.Time) ([]models.VerificationRecord, error) {
	var out []models.VerificationRecord
	q := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("history recent: %w", err)
	}
	return out, nil
}
