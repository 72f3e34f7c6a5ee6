package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id          TEXT PRIMARY KEY,
	email_uid   TEXT NOT NULL,
	rule        TEXT NOT NULL,
	priority    TEXT NOT NULL DEFAULT 'normal',
	message     TEXT NOT NULL,
	read        INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS processed_emails (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	uid           TEXT NOT NULL,
	subject       TEXT NOT NULL DEFAULT '',
	sender        TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT 'other',
	priority      INTEGER NOT NULL DEFAULT 3,
	confidence    REAL NOT NULL DEFAULT 0,
	matched_rules TEXT NOT NULL DEFAULT '[]',
	replied       INTEGER NOT NULL DEFAULT 0,
	marked_read   INTEGER NOT NULL DEFAULT 0,
	processed_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_processed_emails_processed_at ON processed_emails(processed_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
