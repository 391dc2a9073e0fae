package db

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/solvari/radar/pkg/domain"
)

// profileSQL represents a profile row for SQL operations
type profileSQL struct {
	ID              int64      `db:"id"`
	SourceURL       string     `db:"source_url"`
	SourceType      string     `db:"source_type"`
	Name            string     `db:"name"`
	Location        string     `db:"location"`
	Specialization  stringsSQL `db:"specialization"`
	Ring            int        `db:"ring"`
	QualityScore    float64    `db:"quality_score"`
	Confidence      float64    `db:"confidence"`
	Reasoning       string     `db:"reasoning"`
	ExtractedData   mapSQL     `db:"extracted_data"`
	RecommendedHook string     `db:"recommended_hook"`
	RawText         string     `db:"raw_text"`
	OutreachSent    bool       `db:"outreach_sent"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// stringsSQL is a JSON array of strings for SQL operations
type stringsSQL []string

// Value implements driver.Valuer for database storage
func (s stringsSQL) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for database retrieval
func (s *stringsSQL) Scan(value interface{}) error {
	if value == nil {
		*s = stringsSQL{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		*s = stringsSQL{}
		return nil
	}

	return json.Unmarshal(data, s)
}

// mapSQL is a JSON object for SQL operations
type mapSQL map[string]any

// Value implements driver.Valuer for database storage
func (m mapSQL) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for database retrieval
func (m *mapSQL) Scan(value interface{}) error {
	if value == nil {
		*m = mapSQL{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		*m = mapSQL{}
		return nil
	}

	return json.Unmarshal(data, m)
}

// CreateProfile inserts a classified profile and sets its ID
func (db *DB) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	sqlProfile := toProfileSQL(profile)

	query := `
		INSERT INTO profiles (
			source_url, source_type, name, location, specialization,
			ring, quality_score, confidence, reasoning, extracted_data,
			recommended_hook, raw_text, outreach_sent
		) VALUES (
			:source_url, :source_type, :name, :location, :specialization,
			:ring, :quality_score, :confidence, :reasoning, :extracted_data,
			:recommended_hook, :raw_text, :outreach_sent
		)
	`

	return withLockRetry(ctx, func() error {
		result, err := db.conn.NamedExecContext(ctx, query, sqlProfile)
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("get insert id: %w", err)
		}
		profile.ID = id
		return nil
	})
}

// GetProfile retrieves a profile by ID
func (db *DB) GetProfile(ctx context.Context, id int64) (*domain.Profile, error) {
	var sqlProfile profileSQL
	err := db.conn.GetContext(ctx, &sqlProfile, "SELECT * FROM profiles WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get profile %d: %w", id, err)
	}
	return toDomainProfile(&sqlProfile), nil
}

// GetProfiles retrieves recent profiles, optionally filtered by ring (0 means all)
func (db *DB) GetProfiles(ctx context.Context, ring domain.Ring, limit int) ([]domain.Profile, error) {
	if limit <= 0 {
		limit = 50
	}

	var sqlProfiles []profileSQL
	var err error
	if ring != 0 {
		err = db.conn.SelectContext(ctx, &sqlProfiles,
			"SELECT * FROM profiles WHERE ring = ? ORDER BY created_at DESC LIMIT ?", int(ring), limit)
	} else {
		err = db.conn.SelectContext(ctx, &sqlProfiles,
			"SELECT * FROM profiles ORDER BY created_at DESC LIMIT ?", limit)
	}
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}

	profiles := make([]domain.Profile, len(sqlProfiles))
	for i := range sqlProfiles {
		profiles[i] = *toDomainProfile(&sqlProfiles[i])
	}
	return profiles, nil
}

// MarkOutreachSent flags a profile as contacted
func (db *DB) MarkOutreachSent(ctx context.Context, profileID int64) error {
	return withLockRetry(ctx, func() error {
		query := "UPDATE profiles SET outreach_sent = 1, updated_at = datetime('now') WHERE id = ?"
		if _, err := db.conn.ExecContext(ctx, query, profileID); err != nil {
			return fmt.Errorf("mark outreach sent for profile %d: %w", profileID, err)
		}
		return nil
	})
}

// Stats holds dashboard statistics
type Stats struct {
	TotalProfiles       int            `json:"total_profiles"`
	ByRing              map[string]int `json:"by_ring"`
	AverageQualityScore float64        `json:"average_quality_score"`
	OutreachSent        int            `json:"outreach_sent"`
}

// GetStats computes profile statistics for the dashboard
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByRing: map[string]int{}}

	err := db.conn.GetContext(ctx, &stats.TotalProfiles, "SELECT COUNT(*) FROM profiles")
	if err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}

	var ringCounts []struct {
		Ring  int `db:"ring"`
		Count int `db:"count"`
	}
	err = db.conn.SelectContext(ctx, &ringCounts, "SELECT ring, COUNT(*) AS count FROM profiles GROUP BY ring")
	if err != nil {
		return nil, fmt.Errorf("count profiles by ring: %w", err)
	}
	for _, rc := range ringCounts {
		stats.ByRing[domain.Ring(rc.Ring).Name()] = rc.Count
	}

	if stats.TotalProfiles > 0 {
		err = db.conn.GetContext(ctx, &stats.AverageQualityScore, "SELECT AVG(quality_score) FROM profiles")
		if err != nil {
			return nil, fmt.Errorf("average quality score: %w", err)
		}
	}

	err = db.conn.GetContext(ctx, &stats.OutreachSent, "SELECT COUNT(*) FROM profiles WHERE outreach_sent = 1")
	if err != nil {
		return nil, fmt.Errorf("count outreach sent: %w", err)
	}

	return stats, nil
}

// toProfileSQL converts a domain profile to its SQL representation
func toProfileSQL(p *domain.Profile) *profileSQL {
	return &profileSQL{
		ID:              p.ID,
		SourceURL:       p.SourceURL,
		SourceType:      p.SourceType,
		Name:            p.Name,
		Location:        p.Location,
		Specialization:  stringsSQL(p.Specialization),
		Ring:            int(p.Ring),
		QualityScore:    p.QualityScore,
		Confidence:      p.Confidence,
		Reasoning:       p.Reasoning,
		ExtractedData:   mapSQL(p.ExtractedData),
		RecommendedHook: p.RecommendedHook,
		RawText:         p.RawText,
		OutreachSent:    p.OutreachSent,
	}
}

// toDomainProfile converts a SQL row to a domain profile
func toDomainProfile(p *profileSQL) *domain.Profile {
	return &domain.Profile{
		ID:              p.ID,
		SourceURL:       p.SourceURL,
		SourceType:      p.SourceType,
		Name:            p.Name,
		Location:        p.Location,
		Specialization:  p.Specialization,
		Ring:            domain.Ring(p.Ring),
		QualityScore:    p.QualityScore,
		Confidence:      p.Confidence,
		Reasoning:       p.Reasoning,
		ExtractedData:   p.ExtractedData,
		RecommendedHook: p.RecommendedHook,
		RawText:         p.RawText,
		OutreachSent:    p.OutreachSent,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
