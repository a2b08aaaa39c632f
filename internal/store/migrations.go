package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create users, domains and facts",
		SQL: `
			CREATE TABLE users (
				id          TEXT PRIMARY KEY,
				username    TEXT NOT NULL,
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE UNIQUE INDEX idx_users_username ON users (username);

			CREATE TABLE domains (
				id           TEXT PRIMARY KEY,
				user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				name         TEXT NOT NULL,
				status       TEXT NOT NULL DEFAULT 'inactive',
				description  TEXT NOT NULL DEFAULT '',
				keywords     TEXT NOT NULL DEFAULT '[]',
				created_at   TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_domains_user ON domains (user_id);
			CREATE INDEX idx_domains_user_status ON domains (user_id, status);

			CREATE TABLE facts (
				id          TEXT PRIMARY KEY,
				user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				domain_id   TEXT NOT NULL,
				fact_text   TEXT NOT NULL,
				source_url  TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_facts_domain ON facts (domain_id);
			CREATE INDEX idx_facts_user ON facts (user_id);
		`,
	},
	{
		Version: 2,
		Name:    "create session state",
		SQL: `
			CREATE TABLE sessions (
				id          TEXT PRIMARY KEY,
				state       TEXT NOT NULL DEFAULT '{}',
				created_at  TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
}
