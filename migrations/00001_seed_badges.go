package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upSeedBadges, downSeedBadges)
}

func upSeedBadges(tx *sql.Tx) error {
	_, err := tx.Exec(`
		INSERT INTO badges (name, description, points_required, image_url, created_at) VALUES
		('First Note', 'Completed your first lesson', 10, '/badges/first-note.png', NOW()),
		('Steady Rhythm', 'Completed five lessons', 50, '/badges/steady-rhythm.png', NOW()),
		('Practice Pro', 'Completed ten lessons', 100, '/badges/practice-pro.png', NOW()),
		('Virtuoso', 'Completed twenty five lessons', 250, '/badges/virtuoso.png', NOW())
		ON CONFLICT (name) DO NOTHING;
	`)
	return err
}

func downSeedBadges(tx *sql.Tx) error {
	_, err := tx.Exec(`
		DELETE FROM badges WHERE name IN ('First Note', 'Steady Rhythm', 'Practice Pro', 'Virtuoso');
	`)
	return err
}
