package db

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/solvari/radar/pkg/domain"
)

// outreachSQL represents an outreach message row for SQL operations
type outreachSQL struct {
	ID           int64     `db:"id"`
	ProfileID    int64     `db:"profile_id"`
	Ring         int       `db:"ring"`
	Channel      string    `db:"channel"`
	TemplateType string    `db:"template_type"`
	Subject      string    `db:"subject"`
	Body         string    `db:"body"`
	Tokens       tokensSQL `db:"tokens"`
	CreatedAt    time.Time `db:"created_at"`
}

// tokensSQL is a JSON object of personalization tokens for SQL operations
type tokensSQL map[string]string

// Value implements driver.Valuer for database storage
func (t tokensSQL) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for database retrieval
func (t *tokensSQL) Scan(value interface{}) error {
	if value == nil {
		*t = tokensSQL{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		*t = tokensSQL{}
		return nil
	}

	return json.Unmarshal(data, t)
}

// CreateOutreach stores a generated outreach message
func (db *DB) CreateOutreach(ctx context.Context, msg *domain.OutreachMessage) (int64, error) {
	sqlMsg := &outreachSQL{
		ProfileID:    msg.ProfileID,
		Ring:         int(msg.Ring),
		Channel:      string(msg.Channel),
		TemplateType: msg.TemplateType,
		Subject:      msg.Subject,
		Body:         msg.Body,
		Tokens:       tokensSQL(msg.Tokens),
	}

	query := `
		INSERT INTO outreach (
			profile_id, ring, channel, template_type, subject, body, tokens
		) VALUES (
			:profile_id, :ring, :channel, :template_type, :subject, :body, :tokens
		)
	`

	var id int64
	err := withLockRetry(ctx, func() error {
		result, err := db.conn.NamedExecContext(ctx, query, sqlMsg)
		if err != nil {
			return fmt.Errorf("create outreach: %w", err)
		}
		insertID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("get insert id: %w", err)
		}
		id = insertID
		return nil
	})
	return id, err
}

// GetOutreachForProfile retrieves stored outreach messages for a profile
func (db *DB) GetOutreachForProfile(ctx context.Context, profileID int64) ([]domain.OutreachMessage, error) {
	var sqlMsgs []outreachSQL
	err := db.conn.SelectContext(ctx, &sqlMsgs,
		"SELECT * FROM outreach WHERE profile_id = ? ORDER BY created_at DESC", profileID)
	if err != nil {
		return nil, fmt.Errorf("get outreach for profile %d: %w", profileID, err)
	}

	msgs := make([]domain.OutreachMessage, len(sqlMsgs))
	for i, m := range sqlMsgs {
		msgs[i] = domain.OutreachMessage{
			ProfileID:    m.ProfileID,
			Ring:         domain.Ring(m.Ring),
			Channel:      domain.Channel(m.Channel),
			TemplateType: m.TemplateType,
			Subject:      m.Subject,
			Body:         m.Body,
			Tokens:       m.Tokens,
			GeneratedAt:  m.CreatedAt,
		}
	}
	return msgs, nil
}
