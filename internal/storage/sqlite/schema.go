package sqlite

// schema creates the tables on first use. Records are stored as JSON documents
// next to the few columns that are looked up or compared directly.
const schema = `
CREATE TABLE IF NOT EXISTS players (
	id    TEXT PRIMARY KEY,
	email TEXT NOT NULL DEFAULT '',
	data  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_players_email ON players(email);

CREATE TABLE IF NOT EXISTS registered_players (
	player_id TEXT PRIMARY KEY,
	username  TEXT NOT NULL UNIQUE,
	data      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS games (
	id      TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	data    TEXT NOT NULL
);
`
