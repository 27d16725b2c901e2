package catalog

// Schema for the local sqlite catalog. One table holds every environment's
// records; stores are bound to an environment at construction. Schema
// changes bump schemaVersion; local catalogs are disposable, so users clear
// the database to adopt a new schema.
const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS artifact_records (
    environment      TEXT NOT NULL,
    id               TEXT NOT NULL,
    created_date     TEXT NOT NULL,
    status           TEXT NOT NULL,
    promotion_status TEXT,
    promoted_at      TEXT,
    promoted_from    TEXT,
    title            TEXT,
    artist           TEXT,
    filename         TEXT,
    file_url         TEXT,
    file_size        INTEGER NOT NULL DEFAULT 0,
    duration         REAL NOT NULL DEFAULT 0,
    format           TEXT,
    genre            TEXT,
    description      TEXT,
    tags_json        TEXT,
    updated_at       TEXT NOT NULL,
    PRIMARY KEY (environment, id, created_date)
);

CREATE INDEX IF NOT EXISTS idx_artifact_records_promotable
    ON artifact_records (environment, status)
    WHERE promotion_status IS NULL;

CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);
`
