package repository

import (
	"context"
	"fmt"

	"captionclash/internal/domain"
	"captionclash/pkg/database"
)

// ArchivePostgresRepository records settled contests in Postgres. Live
// contest state stays in Redis; this table is a write-only audit trail of
// what was published, surviving the purge.
type ArchivePostgresRepository struct {
	db *database.PostgresDB
}

func NewArchiveRepository(db *database.PostgresDB) *ArchivePostgresRepository {
	return &ArchivePostgresRepository{db: db}
}

// RecordSettlement inserts one row per published caption.
func (r *ArchivePostgresRepository) RecordSettlement(ctx context.Context, captions []domain.SettledCaption) error {
	query := `
		INSERT INTO settlements (
			contest_id, entry_id, author_id, rank, votes,
			top_text, middle_text, bottom_text, bold, all_caps,
			post_ref, settled_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for _, c := range captions {
		_, err := r.db.Pool.Exec(ctx, query,
			c.ContestID,
			c.EntryID,
			c.AuthorID,
			c.Rank,
			c.Votes,
			c.Payload.TopText,
			c.Payload.MiddleText,
			c.Payload.BottomText,
			c.Payload.Bold,
			c.Payload.AllCaps,
			c.PostRef,
			c.SettledAt,
		)
		if err != nil {
			return fmt.Errorf("failed to archive settlement for entry %s: %w", c.EntryID, err)
		}
	}

	return nil
}
