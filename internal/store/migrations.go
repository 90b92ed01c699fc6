package store

const schema = `
CREATE TABLE IF NOT EXISTS stories (
    url           TEXT PRIMARY KEY,
    title         TEXT NOT NULL,
    summary       TEXT NOT NULL DEFAULT '',
    published_at  DATETIME NOT NULL,
    source_name   TEXT NOT NULL DEFAULT '',
    source_url    TEXT NOT NULL DEFAULT '',
    kind          TEXT NOT NULL DEFAULT 'article',
    density       INTEGER NOT NULL DEFAULT 0,
    authority     INTEGER NOT NULL DEFAULT 1,
    day           TEXT NOT NULL DEFAULT '',
    brief         TEXT NOT NULL DEFAULT '',
    more_coverage TEXT NOT NULL DEFAULT '[]',
    score         TEXT NOT NULL DEFAULT '{}',
    total         INTEGER NOT NULL DEFAULT 0,
    scored        BOOLEAN NOT NULL DEFAULT 0,
    first_seen    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stories_day ON stories(day);
CREATE INDEX IF NOT EXISTS idx_stories_total ON stories(total);
CREATE INDEX IF NOT EXISTS idx_stories_published_at ON stories(published_at);

CREATE TABLE IF NOT EXISTS repos (
    url          TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    owner        TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT '',
    stars        INTEGER NOT NULL DEFAULT 0,
    forks        INTEGER NOT NULL DEFAULT 0,
    license      TEXT NOT NULL DEFAULT '',
    topics       TEXT NOT NULL DEFAULT '[]',
    created_at   DATETIME NOT NULL,
    pushed_at    DATETIME NOT NULL,
    open_issues  INTEGER NOT NULL DEFAULT 0,
    archived     BOOLEAN NOT NULL DEFAULT 0,
    rubric_score INTEGER NOT NULL DEFAULT 0,
    rubric_tier  TEXT NOT NULL DEFAULT 'skip',
    scanned_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_repos_tier ON repos(rubric_tier);
CREATE INDEX IF NOT EXISTS idx_repos_score ON repos(rubric_score);

CREATE TABLE IF NOT EXISTS events (
    url              TEXT PRIMARY KEY,
    title            TEXT NOT NULL,
    organizer        TEXT NOT NULL DEFAULT '',
    event_type       TEXT NOT NULL DEFAULT 'unknown',
    location_city    TEXT NOT NULL DEFAULT '',
    location_state   TEXT NOT NULL DEFAULT '',
    location_country TEXT NOT NULL DEFAULT '',
    start_date       TEXT NOT NULL DEFAULT '',
    end_date         TEXT NOT NULL DEFAULT '',
    description      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_date);
`
