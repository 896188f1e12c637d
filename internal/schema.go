package internal

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitSchema creates the tables if they don't exist.
func InitSchema(db *pgxpool.Pool) error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id SERIAL PRIMARY KEY,
		username VARCHAR(50) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		pass_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'player'
	);

	CREATE TABLE IF NOT EXISTS characters (
		id SERIAL PRIMARY KEY,
		name VARCHAR(50) NOT NULL,
		role_id INTEGER NOT NULL,
		class_id INTEGER NOT NULL,
		ilvl INTEGER NOT NULL,
		rio INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS belong_to (
		player_id INTEGER NOT NULL REFERENCES players(id) ON DELETE CASCADE,
		character_id INTEGER NOT NULL REFERENCES characters(id) ON DELETE CASCADE,
		UNIQUE (player_id, character_id)
	);

	CREATE TABLE IF NOT EXISTS tournament (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ NOT NULL,
		cost_to_registry INTEGER NOT NULL,
		description TEXT NOT NULL,
		deleted BOOLEAN NOT NULL DEFAULT false
	);

	CREATE TABLE IF NOT EXISTS registered (
		id SERIAL PRIMARY KEY,
		tournament_id INTEGER NOT NULL REFERENCES tournament(id),
		registration_date TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS parties (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100),
		captain_id INTEGER NOT NULL REFERENCES characters(id),
		registered_id INTEGER NOT NULL REFERENCES registered(id),
		deleted BOOLEAN NOT NULL DEFAULT false
	);

	CREATE TABLE IF NOT EXISTS compose (
		party_id INTEGER NOT NULL REFERENCES parties(id),
		character_id INTEGER NOT NULL REFERENCES characters(id),
		UNIQUE (party_id, character_id)
	);

	CREATE TABLE IF NOT EXISTS donjons (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		lvl INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS donjon_done (
		party_id INTEGER NOT NULL REFERENCES parties(id),
		donjon_id INTEGER NOT NULL REFERENCES donjons(id),
		timer INTEGER NOT NULL,
		UNIQUE (party_id, donjon_id)
	);

	CREATE TABLE IF NOT EXISTS logs (
		id BIGSERIAL PRIMARY KEY,
		actor_id INTEGER,
		action VARCHAR(50) NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_belong_to_player_id ON belong_to(player_id);
	CREATE INDEX IF NOT EXISTS idx_parties_captain_id ON parties(captain_id);
	CREATE INDEX IF NOT EXISTS idx_registered_tournament_id ON registered(tournament_id);
	CREATE INDEX IF NOT EXISTS idx_compose_party_id ON compose(party_id);
	CREATE INDEX IF NOT EXISTS idx_donjon_done_party_id ON donjon_done(party_id);
	`

	_, err := db.Exec(context.Background(), schema)
	return err
}
