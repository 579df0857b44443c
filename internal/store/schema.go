package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS bundles (
    name                 TEXT PRIMARY KEY,
    kind                 TEXT NOT NULL,
    payload              BLOB NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS training_samples (
    seq                  INTEGER PRIMARY KEY AUTOINCREMENT,
    owner                TEXT NOT NULL REFERENCES bundles(name) ON DELETE CASCADE,
    payload              BLOB NOT NULL,
    created_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_samples_owner ON training_samples(owner, seq);
`
