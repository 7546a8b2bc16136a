package database

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/totegamma/coa/internal/accelerator"
)

var tracer = otel.Tracer("database")

// Runner executes raw statements through gorm.
type Runner struct {
	db *gorm.DB
}

func NewRunner(db *gorm.DB) *Runner {
	return &Runner{db: db}
}

func (r *Runner) Query(ctx context.Context, sql string, params []any) (*accelerator.Result, error) {
	ctx, span := tracer.Start(ctx, "Database.Runner.Query")
	defer span.End()
	span.SetAttributes(attribute.String("db.statement", sql))

	rows, err := r.db.WithContext(ctx).Raw(sql, params...).Rows()
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "read columns")
	}

	result := &accelerator.Result{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			span.RecordError(err)
			return nil, errors.Wrap(err, "scan row")
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "iterate rows")
	}

	result.RowsAffected = int64(len(result.Rows))
	span.SetAttributes(attribute.Int64("db.rows", result.RowsAffected))
	return result, nil
}

func (r *Runner) Exec(ctx context.Context, sql string, params []any) (*accelerator.Result, error) {
	ctx, span := tracer.Start(ctx, "Database.Runner.Exec")
	defer span.End()
	span.SetAttributes(attribute.String("db.statement", sql))

	tx := r.db.WithContext(ctx).Exec(sql, params...)
	if tx.Error != nil {
		span.RecordError(tx.Error)
		return nil, errors.Wrap(tx.Error, "exec")
	}

	span.SetAttributes(attribute.Int64("db.rows", tx.RowsAffected))
	return &accelerator.Result{RowsAffected: tx.RowsAffected}, nil
}

var _ accelerator.Runner = (*Runner)(nil)
