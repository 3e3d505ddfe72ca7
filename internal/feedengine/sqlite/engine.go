// Package sqlite provides a persisted reference implementation of
// scrollwindow.Engine backed by SQLite. It polls rather than subscribes —
// SQLite has no native change-notification mechanism — but presents the
// same reactive-replacement contract: each Run call gets its own polling
// goroutine, and a superseded call's goroutine is torn down when its context
// is cancelled.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/aviary/feedwindow/internal/feedquery"
	"github.com/aviary/feedwindow/internal/scrollwindow"
)

// DefaultPollInterval is used when Engine is constructed with a zero
// interval.
const DefaultPollInterval = 500 * time.Millisecond

// OpenClient opens a SQLite database using the pure-Go modernc.org/sqlite
// driver, with WAL journaling, a busy timeout, and a single open connection.
func OpenClient(dbPath string) (*sql.DB, error) {
	return open("sqlite", dbPath)
}

// OpenServer opens a SQLite database using the cgo-based mattn/go-sqlite3
// driver. Intended for test harnesses that want a second, independent
// driver implementation exercising the same schema.
func OpenServer(dbPath string) (*sql.DB, error) {
	return open("sqlite3", dbPath)
}

func open(driver, dbPath string) (*sql.DB, error) {
	conn, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite feed database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	conn.Exec("PRAGMA synchronous=NORMAL")

	return conn, nil
}

// RowMapper scans one result row into a V. The column order it reads must
// match the columns slice passed to NewEngine, which is the select list.
type RowMapper[V scrollwindow.Item] func(*sql.Rows) (V, error)

// Engine is a polling, SQLite-backed scrollwindow.Engine[V].
type Engine[V scrollwindow.Item] struct {
	conn         *sql.DB
	table        string
	columns      []string
	columnOf     func(field string) string
	mapper       RowMapper[V]
	pollInterval time.Duration

	mu         sync.Mutex
	cancelPrev context.CancelFunc
}

// NewEngine constructs an Engine that selects `columns` from `table`,
// resolves predicate/timestamp field names to SQL columns via columnOf, and
// scans rows with mapper. pollInterval <= 0 uses DefaultPollInterval.
func NewEngine[V scrollwindow.Item](conn *sql.DB, table string, columns []string, columnOf func(field string) string, mapper RowMapper[V], pollInterval time.Duration) *Engine[V] {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Engine[V]{
		conn:         conn,
		table:        table,
		columns:      columns,
		columnOf:     columnOf,
		mapper:       mapper,
		pollInterval: pollInterval,
	}
}

// Run implements scrollwindow.Engine. It starts a dedicated polling
// goroutine for sel; the goroutine exits (and closes its channel) when ctx
// is cancelled or when a later Run call supersedes it.
func (e *Engine[V]) Run(ctx context.Context, sel scrollwindow.Selection) (<-chan scrollwindow.Result[V], error) {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	if e.cancelPrev != nil {
		e.cancelPrev()
	}
	e.cancelPrev = cancel
	e.mu.Unlock()

	ch := make(chan scrollwindow.Result[V], 1)
	go e.poll(ctx, sel, ch)
	return ch, nil
}

func (e *Engine[V]) poll(ctx context.Context, sel scrollwindow.Selection, ch chan<- scrollwindow.Result[V]) {
	defer close(ch)

	emit := func() {
		items, err := e.query(ctx, sel)
		res := scrollwindow.Result[V]{Items: items, Err: err}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- res:
		default:
		}
	}

	emit()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			emit()
		}
	}
}

func (e *Engine[V]) query(ctx context.Context, sel scrollwindow.Selection) ([]V, error) {
	cond, err := feedquery.ToSQL(sel.Predicate, e.columnOf)
	if err != nil {
		return nil, fmt.Errorf("compile predicate: %w", err)
	}

	tsCol := e.columnOf(sel.TSField)
	where := cond.Clause
	args := append([]interface{}{}, cond.Args...)

	if sel.Cursor != nil {
		where = fmt.Sprintf("(%s) AND %s %s ?", where, tsCol, sel.CursorOp)
		args = append(args, *sel.Cursor)
	}

	dir := "DESC"
	if sel.Order == scrollwindow.OrderAsc {
		dir = "ASC"
	}

	colList := ""
	for i, c := range e.columns {
		if i > 0 {
			colList += ", "
		}
		colList += c
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s %s LIMIT ?",
		colList, e.table, where, tsCol, dir)
	args = append(args, sel.Limit)

	rows, err := e.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feed rows: %w", err)
	}
	defer rows.Close()

	var out []V
	for rows.Next() {
		v, err := e.mapper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feed row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed rows: %w", err)
	}
	return out, nil
}
