package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/entity"
)

const (
	runTable      = "extract_run"
	colID         = "id"
	colPlatform   = "platform"
	colSource     = "source"
	colFormat     = "format"
	colStatus     = "status"
	colRowCount   = "row_count"
	colMessage    = "message"
	colStartedAt  = "started_at"
	colFinishedAt = "finished_at"
)

var runColumns = []string{
	colID, colPlatform, colSource, colFormat, colStatus, colRowCount, colMessage, colStartedAt, colFinishedAt,
}

type RunRepository interface {
	Start(ctx context.Context, platform constants.Platform, source, format string) (*entity.Run, error)
	Finish(ctx context.Context, id uuid.UUID, status constants.RunStatus, rows int, message string) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Run, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.Run, error)
}

type runRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewRunRepository(db *DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &runRepo{db: db, log: log, now: time.Now}
}

func (r *runRepo) Start(ctx context.Context, platform constants.Platform, source, format string) (*entity.Run, error) {
	run := &entity.Run{
		ID:        uuid.New(),
		Platform:  platform,
		Source:    source,
		Format:    format,
		Status:    constants.RunStatusRunning,
		StartedAt: r.now().UTC().Truncate(time.Millisecond),
	}
	query, args := entsql.Dialect(r.db.dialect).
		Insert(runTable).
		Columns(colID, colPlatform, colSource, colFormat, colStatus, colRowCount, colMessage, colStartedAt).
		Values(run.ID.String(), string(platform), source, format, string(run.Status), 0, "", run.StartedAt.UnixMilli()).
		Query()
	if _, err := r.db.drv.DB().ExecContext(ctx, query, args...); err != nil {
		r.log.Error("extract_run start failed", "source", source, "err", err)
		return nil, fmt.Errorf("%w: insert run: %v", common.ErrDatabase, err)
	}
	r.log.Info("extract_run started", "run_id", run.ID, "platform", platform, "source", source)
	return run, nil
}

func (r *runRepo) Finish(ctx context.Context, id uuid.UUID, status constants.RunStatus, rows int, message string) error {
	query, args := entsql.Dialect(r.db.dialect).
		Update(runTable).
		Set(colStatus, string(status)).
		Set(colRowCount, rows).
		Set(colMessage, message).
		Set(colFinishedAt, r.now().UTC().UnixMilli()).
		Where(entsql.EQ(colID, id.String())).
		Query()
	res, err := r.db.drv.DB().ExecContext(ctx, query, args...)
	if err != nil {
		r.log.Error("extract_run finish failed", "run_id", id, "err", err)
		return fmt.Errorf("%w: update run: %v", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: run %s", common.ErrNotFound, id)
	}
	if status == constants.RunStatusFailed {
		r.log.Warn("extract_run finished", "run_id", id, "status", status, "error", message)
	} else {
		r.log.Info("extract_run finished", "run_id", id, "status", status, "rows", rows)
	}
	return nil
}

func (r *runRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	b := entsql.Dialect(r.db.dialect)
	query, args := b.Select(runColumns...).
		From(b.Table(runTable)).
		Where(entsql.EQ(colID, id.String())).
		Query()
	rows, err := r.db.drv.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: get run: %v", common.ErrDatabase, err)
	}
	defer rows.Close()
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: run %s", common.ErrNotFound, id)
	}
	return runs[0], nil
}

// ListRecent returns the latest runs, newest first.
func (r *runRepo) ListRecent(ctx context.Context, limit int) ([]*entity.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	b := entsql.Dialect(r.db.dialect)
	query, args := b.Select(runColumns...).
		From(b.Table(runTable)).
		OrderExpr(entsql.Expr(colStartedAt + " DESC")).
		Limit(limit).
		Query()
	rows, err := r.db.drv.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list runs: %v", common.ErrDatabase, err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]*entity.Run, error) {
	var out []*entity.Run
	for rows.Next() {
		var (
			run                 entity.Run
			id, platform, state string
			started             int64
			finished            sql.NullInt64
		)
		if err := rows.Scan(&id, &platform, &run.Source, &run.Format, &state, &run.RowCount, &run.Message, &started, &finished); err != nil {
			return nil, fmt.Errorf("%w: scan run: %v", common.ErrDatabase, err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("%w: run id %q: %v", common.ErrDatabase, id, err)
		}
		run.ID = parsed
		run.Platform = constants.Platform(platform)
		run.Status = constants.RunStatus(state)
		run.StartedAt = time.UnixMilli(started).UTC()
		if finished.Valid {
			t := time.UnixMilli(finished.Int64).UTC()
			run.FinishedAt = &t
		}
		out = append(out, &run)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: iterate runs: %v", common.ErrDatabase, err)
	}
	return out, nil
}
