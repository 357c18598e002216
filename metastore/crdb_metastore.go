package metastore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danthegoodman1/splitread/part"
	"github.com/danthegoodman1/splitread/utils"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const partColumns = "id, alive, source, key, route, row_count, bytes, row_lengths, created_at"

type (
	CRDBMetaStore struct {
		pool       *pgxpool.Pool
		maxRuntime time.Duration
	}
)

func NewCRDBMetaStore(pool *pgxpool.Pool, maxRuntime time.Duration) *CRDBMetaStore {
	return &CRDBMetaStore{pool: pool, maxRuntime: maxRuntime}
}

// filterClause renders filters as a WHERE clause over the part id, with positional args
func filterClause(filters []FilterOption) (string, []any, error) {
	clauses := []string{"alive = true"}
	args := make([]any, 0, len(filters))
	for _, filter := range filters {
		switch filter.Operator {
		case GT, GTE, LT, LTE:
			v, ok := filter.Val.(string)
			if !ok {
				return "", nil, utils.PermError(fmt.Sprintf("filter %s needs a string value", filter.Operator))
			}
			args = append(args, v)
			clauses = append(clauses, fmt.Sprintf("id %s $%d", filter.Operator, len(args)))
		case IN:
			v, ok := filter.Val.([]string)
			if !ok {
				return "", nil, utils.PermError("filter IN needs a []string value")
			}
			args = append(args, v)
			clauses = append(clauses, fmt.Sprintf("id = ANY($%d)", len(args)))
		default:
			return "", nil, utils.PermError(fmt.Sprintf("unknown filter operator %q", filter.Operator))
		}
	}
	return "WHERE " + strings.Join(clauses, " AND "), args, nil
}

func toInt64s(s []int) []int64 {
	out := make([]int64, len(s))
	for i, v := range s {
		out[i] = int64(v)
	}
	return out
}

func scanPart(row pgx.Row) (part.Part, error) {
	var p part.Part
	var rowLengths []int64
	err := row.Scan(&p.ID, &p.Alive, &p.Source, &p.Key, &p.Route, &p.RowCount, &p.Bytes, &rowLengths, &p.CreatedAt)
	if err != nil {
		return p, err
	}
	p.RowLengths = make([]int, len(rowLengths))
	for i, v := range rowLengths {
		p.RowLengths[i] = int(v)
	}
	return p, nil
}

func (cms *CRDBMetaStore) CreatePart(ctx context.Context, p part.Part, colMarks []part.ColumnMark) error {
	return utils.ReliableExecInTx(ctx, cms.pool, cms.maxRuntime, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO parts (`+partColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			p.ID, p.Alive, p.Source, p.Key, p.Route, p.RowCount, p.Bytes, toInt64s(p.RowLengths), p.CreatedAt)
		if err != nil {
			return fmt.Errorf("error inserting part: %w", err)
		}

		batch := &pgx.Batch{}
		for _, mark := range colMarks {
			batch.Queue(`INSERT INTO column_marks (part_id, column_name, position, dtype, row_count, null_count) VALUES ($1, $2, $3, $4, $5, $6)`,
				mark.PartID, mark.ColumnName, mark.Position, mark.Dtype, mark.RowCount, mark.NullCount)
		}
		if batch.Len() == 0 {
			return nil
		}
		br := tx.SendBatch(ctx, batch)
		for range colMarks {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("error inserting column mark: %w", err)
			}
		}
		return br.Close()
	})
}

func (cms *CRDBMetaStore) GetPart(ctx context.Context, id string) (p part.Part, marks []part.ColumnMark, err error) {
	err = utils.ReliableExec(ctx, cms.pool, cms.maxRuntime, func(ctx context.Context, conn *pgxpool.Conn) error {
		p, err = scanPart(conn.QueryRow(ctx, `SELECT `+partColumns+` FROM parts WHERE id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %w", ErrPartNotFound, utils.PermError(id))
		}
		if err != nil {
			return fmt.Errorf("error selecting part: %w", err)
		}

		rows, err := conn.Query(ctx, `SELECT part_id, column_name, position, dtype, row_count, null_count FROM column_marks WHERE part_id = $1 ORDER BY position`, id)
		if err != nil {
			return fmt.Errorf("error selecting column marks: %w", err)
		}
		defer rows.Close()
		marks = marks[:0]
		for rows.Next() {
			var mark part.ColumnMark
			if err := rows.Scan(&mark.PartID, &mark.ColumnName, &mark.Position, &mark.Dtype, &mark.RowCount, &mark.NullCount); err != nil {
				return fmt.Errorf("error scanning column mark: %w", err)
			}
			marks = append(marks, mark)
		}
		return rows.Err()
	})
	return
}

func (cms *CRDBMetaStore) ListParts(ctx context.Context, filters ...FilterOption) (parts []part.Part, err error) {
	where, args, err := filterClause(filters)
	if err != nil {
		return nil, err
	}
	err = utils.ReliableExec(ctx, cms.pool, cms.maxRuntime, func(ctx context.Context, conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+partColumns+` FROM parts `+where+` ORDER BY id`, args...)
		if err != nil {
			return fmt.Errorf("error listing parts: %w", err)
		}
		defer rows.Close()
		parts = make([]part.Part, 0)
		for rows.Next() {
			p, err := scanPart(rows)
			if err != nil {
				return fmt.Errorf("error scanning part: %w", err)
			}
			parts = append(parts, p)
		}
		return rows.Err()
	})
	return
}

func (cms *CRDBMetaStore) Shutdown(_ context.Context) error {
	cms.pool.Close()
	return nil
}
