package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"klask-tracker/internal/database"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the revision statements, written with ? placeholders and
// rebound once for the connected dialect.
type Queries struct {
	db DBTX

	latestRevision string
	maxRevisionSeq string
	insertRevision string
	pruneRevisions string
	listRevisions  string
}

func NewQueries(db DBTX, dialect database.Dialect) *Queries {
	return &Queries{
		db:             db,
		latestRevision: rebind(dialect, latestRevision),
		maxRevisionSeq: rebind(dialect, maxRevisionSeq),
		insertRevision: rebind(dialect, insertRevision),
		pruneRevisions: rebind(dialect, pruneRevisions),
		listRevisions:  rebind(dialect, listRevisions),
	}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	c := *q
	c.db = tx
	return &c
}

const latestRevision = `
SELECT id, seq, document, description, created_at
FROM state_revisions
ORDER BY seq DESC
LIMIT 1`

type RevisionRow struct {
	ID          string
	Seq         int64
	Document    string
	Description string
	CreatedAt   time.Time
}

func (q *Queries) LatestRevision(ctx context.Context) (RevisionRow, error) {
	row := q.db.QueryRowContext(ctx, q.latestRevision)
	var i RevisionRow
	err := row.Scan(&i.ID, &i.Seq, &i.Document, &i.Description, &i.CreatedAt)
	return i, err
}

const maxRevisionSeq = `SELECT COALESCE(MAX(seq), 0) FROM state_revisions`

func (q *Queries) MaxRevisionSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := q.db.QueryRowContext(ctx, q.maxRevisionSeq).Scan(&seq)
	return seq, err
}

const insertRevision = `
INSERT INTO state_revisions (id, seq, document, description, created_at)
VALUES (?, ?, ?, ?, ?)`

type InsertRevisionParams struct {
	ID          string
	Seq         int64
	Document    string
	Description string
	CreatedAt   time.Time
}

func (q *Queries) InsertRevision(ctx context.Context, arg InsertRevisionParams) error {
	_, err := q.db.ExecContext(ctx, q.insertRevision,
		arg.ID,
		arg.Seq,
		arg.Document,
		arg.Description,
		arg.CreatedAt,
	)
	return err
}

const pruneRevisions = `DELETE FROM state_revisions WHERE seq <= ?`

func (q *Queries) PruneRevisions(ctx context.Context, maxSeq int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.pruneRevisions, maxSeq)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listRevisions = `
SELECT id, seq, description, created_at
FROM state_revisions
ORDER BY seq DESC
LIMIT ?`

func (q *Queries) ListRevisions(ctx context.Context, limit int) ([]RevisionRow, error) {
	rows, err := q.db.QueryContext(ctx, q.listRevisions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RevisionRow
	for rows.Next() {
		var i RevisionRow
		if err := rows.Scan(&i.ID, &i.Seq, &i.Description, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// rebind rewrites ? placeholders as $1..$n for postgres.
func rebind(dialect database.Dialect, query string) string {
	if dialect != database.DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
