package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/lawmind/internal/entity"
)

// DraftRepository caches drafts fetched from the API for offline listing.
type DraftRepository interface {
	UpsertMany(ctx context.Context, drafts []entity.Draft) error
	List(ctx context.Context) ([]entity.Draft, error)
}

type draftRepo struct {
	db  *DB
	log *slog.Logger
}

func NewDraftRepository(db *DB, log *slog.Logger) DraftRepository {
	if log == nil {
		log = db.log
	}
	return &draftRepo{db: db, log: log}
}

var draftColumns = []string{"id", "title", "document_type", "case_type", "content", "citations", "created_at", "updated_at"}

func (r *draftRepo) UpsertMany(ctx context.Context, drafts []entity.Draft) error {
	if len(drafts) == 0 {
		return nil
	}
	ins := r.db.builder().
		Insert("drafts").
		Columns(draftColumns...)
	for _, d := range drafts {
		citations := ""
		if len(d.Citations) > 0 {
			b, err := json.Marshal(d.Citations)
			if err != nil {
				return fmt.Errorf("encode citations for draft %d: %w", d.ID, err)
			}
			citations = string(b)
		}
		ins.Values(d.ID, d.Title, d.DocumentType, d.CaseType, d.Content, citations,
			unixMillis(d.CreatedAt.Time), unixMillis(d.UpdatedAt.Time))
	}
	q, args := ins.
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if err := r.db.exec(ctx, q, args); err != nil {
		r.log.Error("draft cache upsert failed", "count", len(drafts), "err", err)
		return fmt.Errorf("cache drafts: %w", err)
	}
	r.log.Debug("drafts cached", "count", len(drafts))
	return nil
}

// List returns cached drafts, newest first.
func (r *draftRepo) List(ctx context.Context) ([]entity.Draft, error) {
	q, args := r.db.builder().
		Select(draftColumns...).
		From(entsql.Table("drafts")).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Query()
	rows, err := r.db.query(ctx, q, args)
	if err != nil {
		r.log.Error("draft cache query failed", "err", err)
		return nil, fmt.Errorf("list cached drafts: %w", err)
	}
	defer rows.Close()

	var out []entity.Draft
	for rows.Next() {
		var (
			d                    entity.Draft
			citations            string
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&d.ID, &d.Title, &d.DocumentType, &d.CaseType, &d.Content, &citations, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		if citations != "" {
			if err := json.Unmarshal([]byte(citations), &d.Citations); err != nil {
				r.log.Warn("draft cache has bad citations", "draft_id", d.ID, "err", err)
			}
		}
		d.CreatedAt = entity.Timestamp{Time: fromMillis(createdAt)}
		d.UpdatedAt = entity.Timestamp{Time: fromMillis(updatedAt)}
		out = append(out, d)
	}
	return out, rows.Err()
}
