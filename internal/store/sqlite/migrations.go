package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS messages (
    id         TEXT PRIMARY KEY,
    sender     TEXT NOT NULL,
    recipient  TEXT,
    subject    TEXT,
    unread     BOOLEAN NOT NULL DEFAULT TRUE,
    first_seen DATETIME NOT NULL,
    analyzed   BOOLEAN NOT NULL DEFAULT FALSE,
    category   TEXT
);

CREATE TABLE IF NOT EXISTS sender_counts (
    sender TEXT PRIMARY KEY,
    count  INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0)
);

CREATE TABLE IF NOT EXISTS important_senders (
    sender   TEXT PRIMARY KEY,
    category TEXT
);

CREATE TABLE IF NOT EXISTS metadata (
    key   TEXT PRIMARY KEY,
    value TEXT
);

CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender);
CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(unread);
`

// dropSchema removes every table so RecreateSchema can rebuild from scratch.
const dropSchema = `
DROP TABLE IF EXISTS messages;
DROP TABLE IF EXISTS sender_counts;
DROP TABLE IF EXISTS important_senders;
DROP TABLE IF EXISTS metadata;
`
