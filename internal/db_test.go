package internal

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRow hands its values to Scan in order; nil values leave the
// destination untouched.
type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		if i >= len(r.vals) || r.vals[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

type fakeRows struct {
	rows [][]any
	i    int
}

func (r *fakeRows) Close() {}
func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error) { return nil, nil }
func (r *fakeRows) RawValues() [][]byte { return nil }
func (r *fakeRows) Conn() *pgx.Conn { return nil }

func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.i-1]
	for i, d := range dest {
		if i >= len(row) || row[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}

// fakeDB feeds canned rows to handlers in query order and records every
// statement it executes. An exhausted row queue behaves like an empty table.
type fakeDB struct {
	rows    []fakeRow
	rowSets []*fakeRows
	execs   []string
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	if len(f.rowSets) == 0 {
		return &fakeRows{}, nil
	}
	rs := f.rowSets[0]
	f.rowSets = f.rowSets[1:]
	return rs, nil
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	if len(f.rows) == 0 {
		return fakeRow{err: pgx.ErrNoRows}
	}
	r := f.rows[0]
	f.rows = f.rows[1:]
	return r
}

func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("transactions are not faked")
}

func (f *fakeDB) execCount(fragment string) int {
	n := 0
	for _, sql := range f.execs {
		if strings.Contains(sql, fragment) {
			n++
		}
	}
	return n
}

func teamRow(id, captainID, registeredID int) fakeRow {
	return fakeRow{vals: []any{id, nil, captainID, registeredID}}
}

func registrationRow(id, tournamentID int) fakeRow {
	return fakeRow{vals: []any{id, tournamentID, time.Now()}}
}

func tournamentRow(id int, end time.Time) fakeRow {
	return fakeRow{vals: []any{id, "Keystone Cup", end.Add(-48 * time.Hour), end, 50, "seasonal bracket"}}
}

func characterRow(id int) fakeRow {
	return fakeRow{vals: []any{id, "Grommash", 1, 2, 460, 2400}}
}

func donjonRow(id int) fakeRow {
	return fakeRow{vals: []any{id, "Mists of Tirna Scithe", 10}}
}
