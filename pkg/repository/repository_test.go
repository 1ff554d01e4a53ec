package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/slate/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func TestMapError(t *testing.T) {
	other := errors.New("some other error")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), errNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, errNotFound},
		{"other pg error", &pgconn.PgError{Code: "22001"}, nil},
		{"passthrough", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errNotFound, errDuplicate)
			switch {
			case tt.want == nil && tt.err == nil:
				if got != nil {
					t.Errorf("got %v, want nil", got)
				}
			case tt.want == nil:
				if got != tt.err {
					t.Errorf("got %v, want unchanged %v", got, tt.err)
				}
			default:
				if !errors.Is(got, tt.want) {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

type result struct {
	rows int64
	err  error
}

func (r result) LastInsertId() (int64, error) { return 0, nil }
func (r result) RowsAffected() (int64, error) { return r.rows, r.err }

type executor struct {
	res   sql.Result
	err   error
	query string
	args  []any
}

func (e *executor) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	e.query = query
	e.args = args
	return e.res, e.err
}

func TestExecExpectOne(t *testing.T) {
	execErr := errors.New("connection reset")
	countErr := errors.New("rows affected unsupported")

	tests := []struct {
		name    string
		exec    *executor
		wantErr error
		anyErr  bool
	}{
		{"one row", &executor{res: result{rows: 1}}, nil, false},
		{"no rows", &executor{res: result{rows: 0}}, sql.ErrNoRows, false},
		{"many rows", &executor{res: result{rows: 3}}, nil, true},
		{"exec error", &executor{err: execErr}, execErr, false},
		{"rows affected error", &executor{res: result{err: countErr}}, countErr, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repository.ExecExpectOne(t.Context(), tt.exec, "DELETE FROM scripts WHERE id = $1", 42)
			switch {
			case tt.anyErr:
				if err == nil {
					t.Error("expected error")
				}
			case tt.wantErr == nil:
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			default:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("got %v, want %v", err, tt.wantErr)
				}
			}

			if len(tt.exec.args) != 1 || tt.exec.args[0] != 42 {
				t.Errorf("args not forwarded: %v", tt.exec.args)
			}
		})
	}
}
