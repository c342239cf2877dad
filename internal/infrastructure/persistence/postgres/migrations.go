package postgres

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_collections",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_profiles",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY,
    email         TEXT UNIQUE,
    password_hash TEXT,
    guest         BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_login_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT registered_users_have_credentials
        CHECK (guest OR (email IS NOT NULL AND password_hash IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users (email) WHERE email IS NOT NULL;
`

const migration001Down = `
DROP TABLE IF EXISTS users;
`

// One table per synced collection. The user_id column scopes every query;
// the per-user indexes back the snapshot reads that run on every change.
const migration002Up = `
CREATE TABLE IF NOT EXISTS notes (
    id         UUID PRIMARY KEY,
    user_id    UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    title      TEXT NOT NULL,
    content    TEXT NOT NULL DEFAULT '',
    color      TEXT NOT NULL DEFAULT 'default',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_user ON notes (user_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS tasks (
    id         UUID PRIMARY KEY,
    user_id    UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    title      TEXT NOT NULL,
    due_date   DATE,
    completed  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks (user_id);

CREATE TABLE IF NOT EXISTS schedule_entries (
    id         UUID PRIMARY KEY,
    user_id    UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    day        TEXT NOT NULL,
    subject    TEXT NOT NULL,
    time_range TEXT NOT NULL,
    venue      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schedule_user ON schedule_entries (user_id, day);

CREATE TABLE IF NOT EXISTS grades (
    id         UUID PRIMARY KEY,
    user_id    UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    semester   INTEGER NOT NULL CHECK (semester BETWEEN 1 AND 14),
    subject    TEXT NOT NULL,
    credits    INTEGER NOT NULL CHECK (credits > 0),
    grade      TEXT NOT NULL,
    point      DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_grades_user ON grades (user_id, semester);

CREATE TABLE IF NOT EXISTS focus_sessions (
    id               UUID PRIMARY KEY,
    user_id          UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
    completed_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_focus_user ON focus_sessions (user_id, completed_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS focus_sessions;
DROP TABLE IF EXISTS grades;
DROP TABLE IF EXISTS schedule_entries;
DROP TABLE IF EXISTS tasks;
DROP TABLE IF EXISTS notes;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS profiles (
    user_id        UUID PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
    display_name   TEXT NOT NULL DEFAULT '',
    major          TEXT NOT NULL DEFAULT '',
    current_focus  TEXT NOT NULL DEFAULT '',
    learning_style TEXT NOT NULL DEFAULT 'Casual',
    xp             INTEGER NOT NULL DEFAULT 0 CHECK (xp >= 0),
    level          INTEGER NOT NULL DEFAULT 1 CHECK (level >= 1),
    badges         TEXT[] NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL,
    updated_at     TIMESTAMPTZ NOT NULL
);
`

const migration003Down = `
DROP TABLE IF EXISTS profiles;
`
