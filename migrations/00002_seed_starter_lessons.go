package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upSeedStarterLessons, downSeedStarterLessons)
}

func upSeedStarterLessons(tx *sql.Tx) error {
	_, err := tx.Exec(`
		INSERT INTO lessons (title, description, instrument, duration, available_slots, premium_only, difficulty_level, created_at, updated_at)
		SELECT v.title, v.description, v.instrument, v.duration, v.available_slots, v.premium_only, v.difficulty_level, NOW(), NOW()
		FROM (VALUES
			('Piano: Finding Middle C', 'Learn the keyboard layout and play your first notes.', 'piano', 30, 10, false, 1),
			('Guitar: First Chords', 'Strum G, C and D with a steady beat.', 'guitar', 30, 10, false, 1),
			('Piano: Two Hand Coordination', 'Simple left hand patterns under a melody.', 'piano', 45, 8, false, 2),
			('Guitar: Fingerstyle Foundations', 'Travis picking over open chords.', 'guitar', 60, 6, true, 3),
			('Drums: Rock Groove Basics', 'Kick, snare and hi-hat in a basic rock beat.', 'drums', 30, 10, false, 1)
		) AS v(title, description, instrument, duration, available_slots, premium_only, difficulty_level)
		WHERE NOT EXISTS (SELECT 1 FROM lessons l WHERE l.title = v.title);
	`)
	return err
}

func downSeedStarterLessons(tx *sql.Tx) error {
	_, err := tx.Exec(`
		DELETE FROM lessons WHERE title IN (
			'Piano: Finding Middle C',
			'Guitar: First Chords',
			'Piano: Two Hand Coordination',
			'Guitar: Fingerstyle Foundations',
			'Drums: Rock Groove Basics'
		);
	`)
	return err
}
