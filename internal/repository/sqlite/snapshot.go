package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/flipit/internal/model"
	"github.com/sakif/flipit/internal/repository"
)

var _ repository.SnapshotStore = (*DB)(nil)

// Save replaces every row with the contents of snap in one transaction.
//
// Rows are deleted children-first and inserted parents-first so the foreign
// keys hold at every statement.
func (db *DB) Save(ctx context.Context, snap *repository.Snapshot) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning snapshot transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"cards", "sets", "users"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("sqlite: clearing %s: %w", table, err)
		}
	}

	for _, u := range snap.Users {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO users (id, username, password_hash) VALUES (?, ?, ?)`,
			u.ID, u.Username, u.PasswordHash,
		); err != nil {
			return fmt.Errorf("sqlite: inserting user %s: %w", u.ID, err)
		}
	}

	for _, s := range snap.Sets {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO sets (id, user_id, title, description) VALUES (?, ?, ?, ?)`,
			s.ID, s.OwnerID, s.Title, s.Description,
		); err != nil {
			return fmt.Errorf("sqlite: inserting set %s: %w", s.ID, err)
		}
		for pos, c := range s.Cards {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO cards (set_id, id, position, front, back) VALUES (?, ?, ?, ?, ?)`,
				s.ID, c.ID, pos, c.Front, c.Back,
			); err != nil {
				return fmt.Errorf("sqlite: inserting card %s of set %s: %w", c.ID, s.ID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing snapshot: %w", err)
	}
	return nil
}

// Load reads all rows back into a snapshot. An empty database is an empty
// snapshot.
func (db *DB) Load(ctx context.Context) (*repository.Snapshot, error) {
	snap := repository.NewSnapshot()

	if err := db.loadUsers(ctx, snap); err != nil {
		return nil, err
	}
	if err := db.loadSets(ctx, snap); err != nil {
		return nil, err
	}
	if err := db.loadCards(ctx, snap); err != nil {
		return nil, err
	}

	snap.Normalize()
	return snap, nil
}

func (db *DB) loadUsers(ctx context.Context, snap *repository.Snapshot) error {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, username, password_hash FROM users`)
	if err != nil {
		return fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash); err != nil {
			return fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		snap.Users[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return nil
}

func (db *DB) loadSets(ctx context.Context, snap *repository.Snapshot) error {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, user_id, title, description FROM sets`)
	if err != nil {
		return fmt.Errorf("sqlite: listing sets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s := model.FlashcardSet{Cards: []model.Flashcard{}}
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Title, &s.Description); err != nil {
			return fmt.Errorf("sqlite: scanning set row: %w", err)
		}
		snap.Sets[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating sets: %w", err)
	}
	return nil
}

func (db *DB) loadCards(ctx context.Context, snap *repository.Snapshot) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT set_id, id, front, back FROM cards ORDER BY set_id, position`)
	if err != nil {
		return fmt.Errorf("sqlite: listing cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			setID string
			c     model.Flashcard
		)
		if err := rows.Scan(&setID, &c.ID, &c.Front, &c.Back); err != nil {
			return fmt.Errorf("sqlite: scanning card row: %w", err)
		}
		s, ok := snap.Sets[setID]
		if !ok {
			// The foreign key makes this unreachable; skip rather than invent a set.
			continue
		}
		s.Cards = append(s.Cards, c)
		snap.Sets[setID] = s
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating cards: %w", err)
	}
	return nil
}
