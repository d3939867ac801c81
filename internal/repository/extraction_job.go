package repository

import (
	"context"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/lawmind/constants"
	"github.com/joseph-ayodele/lawmind/internal/common"
	"github.com/joseph-ayodele/lawmind/internal/entity"
)

// ExtractionJobRepository records the last observed state of each watched job
// so an interrupted CLI can resume pending ones.
type ExtractionJobRepository interface {
	Upsert(ctx context.Context, job entity.ExtractionJob) error
	Get(ctx context.Context, id string) (*entity.ExtractionJob, error)
	ListActive(ctx context.Context) ([]entity.ExtractionJob, error)
	List(ctx context.Context, limit int) ([]entity.ExtractionJob, error)
}

type extractionJobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractionJobRepository(db *DB, log *slog.Logger) ExtractionJobRepository {
	if log == nil {
		log = db.log
	}
	return &extractionJobRepo{db: db, log: log}
}

var jobColumns = []string{"id", "status", "failure_kind", "reason", "attempts", "result", "source_path", "updated_at"}

func (r *extractionJobRepo) Upsert(ctx context.Context, job entity.ExtractionJob) error {
	if job.ID == "" {
		return common.NewAppError("INVALID_JOB", "job id is required", common.ErrInvalidInput)
	}
	q, args := r.db.builder().
		Insert("extraction_jobs").
		Columns(jobColumns...).
		Values(job.ID, string(job.Status), string(job.FailureKind), job.Reason,
			job.Attempts, string(job.Result), job.SourcePath, unixMillis(job.UpdatedAt)).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("status")
				u.SetExcluded("failure_kind")
				u.SetExcluded("reason")
				u.SetExcluded("attempts")
				u.SetExcluded("result")
				u.SetExcluded("updated_at")
			}),
		).
		Query()
	if err := r.db.exec(ctx, q, args); err != nil {
		r.log.Error("extraction_job upsert failed", "job_id", job.ID, "err", err)
		return fmt.Errorf("upsert job %s: %w", job.ID, err)
	}
	r.log.Debug("extraction_job recorded", "job_id", job.ID, "status", job.Status, "attempts", job.Attempts)
	return nil
}

func (r *extractionJobRepo) Get(ctx context.Context, id string) (*entity.ExtractionJob, error) {
	q, args := r.db.builder().
		Select(jobColumns...).
		From(entsql.Table("extraction_jobs")).
		Where(entsql.EQ("id", id)).
		Query()
	jobs, err := r.scan(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, common.NewAppError("NOT_FOUND", fmt.Sprintf("job %s not found", id), common.ErrNotFound)
	}
	return &jobs[0], nil
}

func (r *extractionJobRepo) ListActive(ctx context.Context) ([]entity.ExtractionJob, error) {
	q, args := r.db.builder().
		Select(jobColumns...).
		From(entsql.Table("extraction_jobs")).
		Where(entsql.EQ("status", string(constants.JobStatusPending))).
		OrderBy("updated_at").
		Query()
	return r.scan(ctx, q, args)
}

// List returns the most recently updated jobs first.
func (r *extractionJobRepo) List(ctx context.Context, limit int) ([]entity.ExtractionJob, error) {
	sel := r.db.builder().
		Select(jobColumns...).
		From(entsql.Table("extraction_jobs")).
		OrderBy(entsql.Desc("updated_at"))
	if limit > 0 {
		sel.Limit(limit)
	}
	q, args := sel.Query()
	return r.scan(ctx, q, args)
}

func (r *extractionJobRepo) scan(ctx context.Context, q string, args []any) ([]entity.ExtractionJob, error) {
	rows, err := r.db.query(ctx, q, args)
	if err != nil {
		r.log.Error("extraction_job query failed", "err", err)
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var out []entity.ExtractionJob
	for rows.Next() {
		var (
			job                  entity.ExtractionJob
			status, kind, result string
			updatedAt            int64
		)
		if err := rows.Scan(&job.ID, &status, &kind, &job.Reason, &job.Attempts, &result, &job.SourcePath, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		job.Status = constants.JobStatus(status)
		job.FailureKind = constants.FailureKind(kind)
		if result != "" {
			job.Result = []byte(result)
		}
		job.UpdatedAt = fromMillis(updatedAt)
		out = append(out, job)
	}
	return out, rows.Err()
}
