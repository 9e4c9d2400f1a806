package cache

// responses holds the newest attempt per (fingerprint, volume)
const createResponsesTable = `
CREATE TABLE IF NOT EXISTS responses (
    fingerprint TEXT NOT NULL,
    volume INTEGER NOT NULL,
    series TEXT NOT NULL DEFAULT '',
    payload TEXT NOT NULL,
    success INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (fingerprint, volume)
);
`

// api_calls is the append-only audit log of every attempt
const createAPICallsTable = `
CREATE TABLE IF NOT EXISTS api_calls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    fingerprint TEXT NOT NULL,
    volume INTEGER NOT NULL,
    series TEXT NOT NULL DEFAULT '',
    success INTEGER NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_api_calls_key ON api_calls(fingerprint, volume);
CREATE INDEX IF NOT EXISTS idx_api_calls_series ON api_calls(series, volume);
`

const createInteractionsTable = `
CREATE TABLE IF NOT EXISTS interactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    query TEXT NOT NULL,
    records_found INTEGER NOT NULL,
    created_at TEXT NOT NULL
);
`

const selectResponse = `
SELECT series, payload, success, created_at
FROM responses
WHERE fingerprint = ? AND volume = ?
`

const upsertResponse = `
INSERT OR REPLACE INTO responses (fingerprint, volume, series, payload, success, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

const insertAPICall = `
INSERT INTO api_calls (fingerprint, volume, series, success, created_at)
VALUES (?, ?, ?, ?, ?)
`

const deleteResponse = `
DELETE FROM responses WHERE fingerprint = ? AND volume = ?
`

const deleteFailedResponses = `
DELETE FROM responses WHERE success = 0
`

const selectCallTotals = `
SELECT
    COUNT(*),
    COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0)
FROM api_calls
`

const selectSlotTotals = `
SELECT
    COUNT(*),
    COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0)
FROM responses
`

const selectResolvedVolumes = `
SELECT DISTINCT series, volume
FROM api_calls
WHERE success = 1
ORDER BY series, volume
`

const insertInteraction = `
INSERT INTO interactions (query, records_found, created_at) VALUES (?, ?, ?)
`

const selectRecentInteractions = `
SELECT query, records_found, created_at
FROM interactions
ORDER BY id DESC
LIMIT ?
`

const selectInteractionTotals = `
SELECT COUNT(*), COALESCE(SUM(records_found), 0) FROM interactions
`
