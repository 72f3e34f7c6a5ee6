package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/mail-agent/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// CreateNotification inserts a new notification record.
func (s *SQLiteStore) CreateNotification(
	ctx context.Context,
	n model.Notification,
) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, email_uid, rule, priority, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.EmailUID, n.Rule, n.Priority, n.Message,
		boolToInt(n.Read), n.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	return nil
}

// GetUnreadNotifications retrieves all notifications that have not been read,
// ordered by creation time descending.
func (s *SQLiteStore) GetUnreadNotifications(
	ctx context.Context,
) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, email_uid, rule, priority, message, read, created_at
		FROM notifications WHERE read = 0 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying unread notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(
	ctx context.Context,
	id string,
) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	return nil
}

// RecordProcessed appends one processing history entry.
func (s *SQLiteStore) RecordProcessed(
	ctx context.Context,
	rec model.ProcessedRecord,
) error {
	matched := rec.MatchedRules
	if matched == nil {
		matched = []string{}
	}
	matchedJSON, err := json.Marshal(matched)
	if err != nil {
		return fmt.Errorf("encoding matched rules: %w", err)
	}

	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO processed_emails (
			uid, subject, sender, category, priority, confidence,
			matched_rules, replied, marked_read, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UID, rec.Subject, rec.Sender, string(rec.Category),
		rec.Priority, rec.Confidence, string(matchedJSON),
		boolToInt(rec.Replied), boolToInt(rec.MarkedRead),
		rec.ProcessedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording processed email %s: %w", rec.UID, err)
	}

	return nil
}

// RecentProcessed returns up to limit history entries, newest first.
func (s *SQLiteStore) RecentProcessed(
	ctx context.Context,
	limit int,
) ([]model.ProcessedRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT uid, subject, sender, category, priority, confidence,
			matched_rules, replied, marked_read, processed_at
		FROM processed_emails
		ORDER BY processed_at DESC, id DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying processed emails: %w", err)
	}
	defer rows.Close()

	var records []model.ProcessedRecord
	for rows.Next() {
		rec, err := scanProcessed(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n         model.Notification
		readInt   int
		createdAt time.Time
	)

	err := rows.Scan(
		&n.ID, &n.EmailUID, &n.Rule, &n.Priority, &n.Message,
		&readInt, &createdAt,
	)
	if err != nil {
		return n, fmt.Errorf("scanning notification: %w", err)
	}

	n.Read = readInt != 0
	n.CreatedAt = createdAt
	return n, nil
}

// scanProcessed scans a processed_emails row from a sqlx.Rows result set.
func scanProcessed(rows *sqlx.Rows) (model.ProcessedRecord, error) {
	var (
		rec         model.ProcessedRecord
		category    string
		matchedJSON string
		replied     int
		markedRead  int
		processedAt time.Time
	)

	err := rows.Scan(
		&rec.UID, &rec.Subject, &rec.Sender, &category, &rec.Priority,
		&rec.Confidence, &matchedJSON, &replied, &markedRead, &processedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("scanning processed email: %w", err)
	}

	if err := json.Unmarshal([]byte(matchedJSON), &rec.MatchedRules); err != nil {
		return rec, fmt.Errorf("decoding matched rules for %s: %w", rec.UID, err)
	}

	rec.Category = model.Category(category)
	rec.Replied = replied != 0
	rec.MarkedRead = markedRead != 0
	rec.ProcessedAt = processedAt
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
