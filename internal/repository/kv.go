package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// KVRepository stores small named values, such as the session token.
type KVRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type kvRepo struct {
	db  *DB
	log *slog.Logger
}

func NewKVRepository(db *DB, log *slog.Logger) KVRepository {
	if log == nil {
		log = db.log
	}
	return &kvRepo{db: db, log: log}
}

func (r *kvRepo) Get(ctx context.Context, key string) (string, bool, error) {
	q, args := r.db.builder().
		Select("value").
		From(entsql.Table("kv")).
		Where(entsql.EQ("name", key)).
		Query()
	rows, err := r.db.query(ctx, q, args)
	if err != nil {
		r.log.Error("kv get failed", "key", key, "err", err)
		return "", false, fmt.Errorf("kv get %s: %w", key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return "", false, rows.Err()
	}
	var value string
	if err := rows.Scan(&value); err != nil {
		return "", false, fmt.Errorf("kv scan %s: %w", key, err)
	}
	return value, true, nil
}

func (r *kvRepo) Put(ctx context.Context, key, value string) error {
	q, args := r.db.builder().
		Insert("kv").
		Columns("name", "value", "updated_at").
		Values(key, value, time.Now().UnixMilli()).
		OnConflict(entsql.ConflictColumns("name"), entsql.ResolveWithNewValues()).
		Query()
	if err := r.db.exec(ctx, q, args); err != nil {
		r.log.Error("kv put failed", "key", key, "err", err)
		return fmt.Errorf("kv put %s: %w", key, err)
	}
	return nil
}

func (r *kvRepo) Delete(ctx context.Context, key string) error {
	q, args := r.db.builder().
		Delete("kv").
		Where(entsql.EQ("name", key)).
		Query()
	if err := r.db.exec(ctx, q, args); err != nil {
		r.log.Error("kv delete failed", "key", key, "err", err)
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}
