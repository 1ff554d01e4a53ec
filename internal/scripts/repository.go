package scripts

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/slate/internal/script"
	"github.com/JaimeStill/slate/pkg/pagination"
	"github.com/JaimeStill/slate/pkg/query"
	"github.com/JaimeStill/slate/pkg/repository"
	"github.com/JaimeStill/slate/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a script repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "scripts"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Script], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "Filename")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanScript)
	if err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Script, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	s, err := repository.QueryOne(ctx, r.db, q, args, scanScript)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

// Create uploads the blob first and removes it again if the row insert fails.
func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Script, error) {
	if len(cmd.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidFile)
	}

	id := uuid.New()
	key := buildStorageKey(id, sanitizeFilename(cmd.Filename))
	format := script.DetectFormat(string(cmd.Data), cmd.Filename)
	title := cmd.Title
	if title == "" {
		title = titleFromFilename(cmd.Filename)
	}

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload script blob: %w", err)
	}

	q := `
		INSERT INTO scripts(id, title, filename, content_type, format, size_bytes, page_count, storage_key, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		` + returning

	args := []any{
		id,
		title,
		cmd.Filename,
		cmd.ContentType,
		string(format),
		int64(len(cmd.Data)),
		cmd.PageCount,
		key,
		string(StatusUploaded),
	}

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Script, error) {
		return repository.QueryOne(ctx, tx, q, args, scanScript)
	})

	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("script created", "id", s.ID, "filename", s.Filename, "format", s.Format)
	return &s, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	s, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, "DELETE FROM scripts WHERE id = $1", id)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	// The breakdown row cascades with the script; its evidence export does not.
	for _, key := range []string{s.StorageKey, fmt.Sprintf("breakdowns/%s/evidence.json", id)} {
		if delErr := r.storage.Delete(ctx, key); delErr != nil && !errors.Is(delErr, storage.ErrNotFound) {
			r.logger.Warn("blob delete failed after row delete", "key", key, "error", delErr)
		}
	}

	r.logger.Info("script deleted", "id", id)
	return nil
}

func (r *repo) Source(ctx context.Context, id uuid.UUID) (*Script, string, error) {
	s, err := r.Find(ctx, id)
	if err != nil {
		return nil, "", err
	}

	rc, err := r.storage.Download(ctx, s.StorageKey)
	if err != nil {
		return nil, "", fmt.Errorf("download script %s: %w", id, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("read script %s: %w", id, err)
	}

	return s, string(data), nil
}

func (r *repo) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	err := repository.ExecExpectOne(
		ctx, r.db,
		"UPDATE scripts SET status = $1, updated_at = NOW() WHERE id = $2",
		string(status), id,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("script status updated", "id", id, "status", status)
	return nil
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("scripts/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == ".." || name == "/" || name == "" {
		name = "script"
	}
	return url.PathEscape(name)
}

func titleFromFilename(name string) string {
	base := filepath.Base(name)
	if base == "." || base == "/" {
		return "Untitled"
	}
	if title := strings.TrimSuffix(base, filepath.Ext(base)); title != "" {
		return title
	}
	return "Untitled"
}
