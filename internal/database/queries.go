package database

const schema = `
CREATE TABLE IF NOT EXISTS history_cache (
	room_id    TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	fetched_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS room_prefs (
	room_id         TEXT PRIMARY KEY,
	last_active_tab TEXT NOT NULL DEFAULT '',
	updated_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_cache_fetched_at ON history_cache(fetched_at);
`

const (
	upsertHistoryPageQuery = `
		INSERT INTO history_cache (room_id, payload, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(room_id) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`

	selectHistoryPageQuery = `
		SELECT payload, fetched_at
		FROM history_cache
		WHERE room_id = ?
	`

	deleteHistoryPageQuery = `
		DELETE FROM history_cache WHERE room_id = ?
	`

	deleteExpiredHistoryQuery = `
		DELETE FROM history_cache WHERE fetched_at < ?
	`

	upsertRoomPrefQuery = `
		INSERT INTO room_prefs (room_id, last_active_tab, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(room_id) DO UPDATE SET
			last_active_tab = excluded.last_active_tab,
			updated_at = excluded.updated_at
	`

	selectRoomPrefQuery = `
		SELECT last_active_tab FROM room_prefs WHERE room_id = ?
	`

	deleteRoomPrefQuery = `
		DELETE FROM room_prefs WHERE room_id = ?
	`
)
