package breakdowns

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/slate/internal/evidence"
	"github.com/JaimeStill/slate/internal/scripts"
	"github.com/JaimeStill/slate/internal/workflow"
	"github.com/JaimeStill/slate/pkg/pagination"
	"github.com/JaimeStill/slate/pkg/query"
	"github.com/JaimeStill/slate/pkg/repository"
	"github.com/JaimeStill/slate/pkg/storage"
)

type repo struct {
	db         *sql.DB
	rt         *workflow.Runtime
	scripts    scripts.System
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a breakdown repository implementing the System interface.
func New(
	db *sql.DB,
	rt *workflow.Runtime,
	scriptSys scripts.System,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		rt:         rt,
		scripts:    scriptSys,
		storage:    store,
		logger:     logger.With("system", "breakdowns"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Breakdown], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "ScriptTitle", "ReviewedBy")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanBreakdown)
	if err != nil {
		return nil, fmt.Errorf("list breakdowns: %w", err)
	}
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Breakdown, error) {
	return r.findBy(ctx, r.db, "ID", id)
}

func (r *repo) FindByScript(ctx context.Context, scriptID uuid.UUID) (*Breakdown, error) {
	return r.findBy(ctx, r.db, "ScriptID", scriptID)
}

func (r *repo) findBy(ctx context.Context, q repository.Querier, field string, id uuid.UUID) (*Breakdown, error) {
	sqlQ, args := query.NewBuilder(projection).BuildSingle(field, id)

	b, err := repository.QueryOne(ctx, q, sqlQ, args, scanBreakdown)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &b, nil
}

// Analyze marks the script failed when the workflow or persistence fails.
// The evidence export is written before the row so a stored breakdown
// always has its archive.
func (r *repo) Analyze(ctx context.Context, scriptID uuid.UUID) (*Breakdown, error) {
	sc, text, err := r.scripts.Source(ctx, scriptID)
	if err != nil {
		if errors.Is(err, scripts.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, scriptID)
		}
		return nil, err
	}

	b, err := r.analyze(ctx, sc, text)
	if err != nil {
		if statusErr := r.scripts.SetStatus(context.WithoutCancel(ctx), scriptID, scripts.StatusFailed); statusErr != nil {
			r.logger.Warn("failed to mark script failed", "script_id", scriptID, "error", statusErr)
		}
		return nil, err
	}

	r.logger.Info("script analyzed",
		"id", b.ID,
		"script_id", scriptID,
		"elements", b.ElementCount,
		"conflicts", b.ConflictCount,
		"confidence", b.OverallConfidence,
		"needs_review", b.NeedsReview,
	)
	return b, nil
}

func (r *repo) analyze(ctx context.Context, sc *scripts.Script, text string) (*Breakdown, error) {
	result, err := workflow.Execute(ctx, r.rt, workflow.Input{
		ScriptID: sc.ID,
		Filename: sc.Filename,
		Text:     text,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze script %s: %w", sc.ID, err)
	}

	exportKey := buildExportKey(sc.ID)
	export, err := json.Marshal(result.Evidence.Export)
	if err != nil {
		return nil, fmt.Errorf("marshal evidence export: %w", err)
	}
	if err := r.storage.Upload(ctx, exportKey, bytes.NewReader(export), "application/json"); err != nil {
		return nil, fmt.Errorf("upload evidence export: %w", err)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	status := scripts.StatusComplete
	if result.NeedsReview() {
		status = scripts.StatusReview
	}

	upsertQ := `
		INSERT INTO breakdowns(
			script_id, needs_review, overall_confidence, element_count,
			conflict_count, result, export_key
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (script_id) DO UPDATE SET
			needs_review = EXCLUDED.needs_review,
			overall_confidence = EXCLUDED.overall_confidence,
			element_count = EXCLUDED.element_count,
			conflict_count = EXCLUDED.conflict_count,
			result = EXCLUDED.result,
			export_key = EXCLUDED.export_key,
			analyzed_at = NOW(),
			reviewed_by = NULL,
			reviewed_at = NULL
		RETURNING id`

	upsertArgs := []any{
		sc.ID,
		result.NeedsReview(),
		result.Supervision.QualityAssessment.OverallConfidence,
		len(result.Elements()),
		len(result.Supervision.ConflictsDetected),
		resultJSON,
		exportKey,
	}

	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Breakdown, error) {
		var id uuid.UUID
		if err := tx.QueryRowContext(ctx, upsertQ, upsertArgs...).Scan(&id); err != nil {
			return nil, fmt.Errorf("upsert breakdown: %w", repository.MapError(err, ErrScriptNotFound, ErrDuplicate))
		}

		if err := repository.ExecExpectOne(
			ctx, tx,
			"UPDATE scripts SET status = $1, updated_at = NOW() WHERE id = $2",
			string(status), sc.ID,
		); err != nil {
			return nil, fmt.Errorf("update script status: %w", repository.MapError(err, ErrScriptNotFound, ErrDuplicate))
		}

		return r.findBy(ctx, tx, "ID", id)
	})
}

// Review closes a breakdown awaiting review and completes its script.
func (r *repo) Review(ctx context.Context, id uuid.UUID, cmd ReviewCommand) (*Breakdown, error) {
	if cmd.ReviewedBy == "" {
		return nil, ErrInvalidReview
	}

	b, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Breakdown, error) {
		var scriptID uuid.UUID
		err := tx.QueryRowContext(ctx, `
			UPDATE breakdowns
			SET reviewed_by = $1, reviewed_at = NOW()
			WHERE id = $2
			RETURNING script_id`,
			cmd.ReviewedBy, id,
		).Scan(&scriptID)
		if err != nil {
			return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}

		if err := repository.ExecExpectOne(
			ctx, tx,
			"UPDATE scripts SET status = 'complete', updated_at = NOW() WHERE id = $1 AND status = 'review'",
			scriptID,
		); err != nil {
			return nil, ErrAlreadyClosed
		}

		return r.findBy(ctx, tx, "ID", id)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("breakdown reviewed", "id", id, "reviewed_by", cmd.ReviewedBy)
	return b, nil
}

func (r *repo) Evidence(ctx context.Context, id uuid.UUID) (*evidence.Export, error) {
	b, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	rc, err := r.storage.Download(ctx, b.ExportKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: evidence export missing", ErrNotFound)
		}
		return nil, fmt.Errorf("download evidence export: %w", err)
	}
	defer rc.Close()

	var export evidence.Export
	if err := json.NewDecoder(rc).Decode(&export); err != nil {
		return nil, fmt.Errorf("decode evidence export: %w", err)
	}
	return &export, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	b, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, "DELETE FROM breakdowns WHERE id = $1", id)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if delErr := r.storage.Delete(ctx, b.ExportKey); delErr != nil && !errors.Is(delErr, storage.ErrNotFound) {
		r.logger.Warn("evidence export delete failed", "key", b.ExportKey, "error", delErr)
	}

	r.logger.Info("breakdown deleted", "id", id)
	return nil
}

func buildExportKey(scriptID uuid.UUID) string {
	return fmt.Sprintf("breakdowns/%s/evidence.json", scriptID)
}
