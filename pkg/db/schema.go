package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- Content API endpoints that have been queried
CREATE TABLE IF NOT EXISTS sources (
    source_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL UNIQUE,
    domain TEXT NOT NULL,
    path TEXT,
    report TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sources_domain ON sources(domain);

-- Every fetch attempt, successful or not
CREATE TABLE IF NOT EXISTS fetches (
    fetch_id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id INTEGER NOT NULL,
    status_code INTEGER DEFAULT 0,
    item_count INTEGER DEFAULT 0,
    error_type TEXT,
    error_message TEXT,
    from_cache BOOLEAN DEFAULT 0,
    duration_ms INTEGER DEFAULT 0,
    fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (source_id) REFERENCES sources(source_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_fetches_source ON fetches(source_id);
CREATE INDEX IF NOT EXISTS idx_fetches_fetched_at ON fetches(fetched_at);
`
