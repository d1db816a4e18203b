package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
    name        TEXT PRIMARY KEY,
    base_url    TEXT NOT NULL,
    user_email  TEXT NOT NULL DEFAULT '',
    role        TEXT NOT NULL DEFAULT '',
    is_default  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tracked_jobs (
    job_id       INTEGER NOT NULL,
    profile      TEXT NOT NULL,
    kind         TEXT NOT NULL,
    subject      TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL DEFAULT 'pending',
    error        TEXT NOT NULL DEFAULT '',
    submitted_at DATETIME NOT NULL,
    finished_at  DATETIME,
    PRIMARY KEY (profile, job_id)
);

CREATE TABLE IF NOT EXISTS reply_cache (
    key         TEXT NOT NULL,
    profile     TEXT NOT NULL,
    text        TEXT NOT NULL,
    tone        TEXT NOT NULL DEFAULT '',
    stored_at   DATETIME NOT NULL,
    PRIMARY KEY (profile, key)
);

CREATE INDEX IF NOT EXISTS idx_tracked_jobs_status ON tracked_jobs(profile, status);
CREATE INDEX IF NOT EXISTS idx_reply_cache_stored ON reply_cache(stored_at);
`
