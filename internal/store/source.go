package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
)

// RawTable is a table as read from a source, before typing.
type RawTable struct {
	Header    []string
	Rows      [][]string
	Malformed int
}

// Source provides raw tables by name.
type Source interface {
	ReadTable(ctx context.Context, table string) (RawTable, error)
	// Probe checks that a table is reachable without loading its rows.
	Probe(ctx context.Context, table string) error
	Describe() string
}

// CSVSource reads <Dir>/<table>.csv files.
type CSVSource struct {
	Dir string
}

// NewCSVSource returns a source reading CSV files from dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

// Path returns the file backing a table.
func (s *CSVSource) Path(table string) string {
	return filepath.Join(s.Dir, table+".csv")
}

// Describe implements Source.
func (s *CSVSource) Describe() string {
	return "csv:" + s.Dir
}

// Probe implements Source. It reads only the header and checks it carries
// the table's required columns.
func (s *CSVSource) Probe(ctx context.Context, table string) error {
	f, err := os.Open(s.Path(table))
	if err != nil {
		return err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("reading header of %s: %w", table, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	_, err = newRowReader(table, header, RequiredColumns(table))
	return err
}

// ReadTable implements Source. Rows the CSV reader rejects are counted in
// Malformed and skipped.
func (s *CSVSource) ReadTable(ctx context.Context, table string) (RawTable, error) {
	f, err := os.Open(s.Path(table))
	if err != nil {
		return RawTable{}, fmt.Errorf("opening %s: %w", table, err)
	}
	defer f.Close()
	return readCSV(ctx, f)
}

func readCSV(ctx context.Context, r io.Reader) (RawTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return RawTable{}, fmt.Errorf("reading header: empty file")
		}
		return RawTable{}, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	raw := RawTable{Header: header}
	for {
		if err := ctx.Err(); err != nil {
			return RawTable{}, err
		}
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				raw.Malformed++
				continue
			}
			return RawTable{}, fmt.Errorf("reading row: %w", err)
		}
		raw.Rows = append(raw.Rows, row)
	}
	return raw, nil
}

// SQLSource reads tables from a SQL database, one SELECT per table.
type SQLSource struct {
	DB *sql.DB
}

// OpenPostgres opens a PostgreSQL source from a lib/pq DSN.
func OpenPostgres(ctx context.Context, dsn string) (*SQLSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &SQLSource{DB: db}, nil
}

// Describe implements Source.
func (s *SQLSource) Describe() string {
	return "postgres"
}

// Close releases the database handle.
func (s *SQLSource) Close() error {
	return s.DB.Close()
}

// Probe implements Source.
func (s *SQLSource) Probe(ctx context.Context, table string) error {
	if !IsTable(table) {
		return fmt.Errorf("unknown table %q", table)
	}
	query := "SELECT " + strings.Join(RequiredColumns(table), ", ") + " FROM " + table + " LIMIT 1"
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	return rows.Close()
}

// ReadTable implements Source. Every value is read as text; NULL becomes "".
func (s *SQLSource) ReadTable(ctx context.Context, table string) (RawTable, error) {
	if !IsTable(table) {
		return RawTable{}, fmt.Errorf("unknown table %q", table)
	}
	rows, err := s.DB.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return RawTable{}, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return RawTable{}, fmt.Errorf("reading columns of %s: %w", table, err)
	}

	raw := RawTable{Header: cols}
	vals := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			raw.Malformed++
			continue
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			}
		}
		raw.Rows = append(raw.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return RawTable{}, fmt.Errorf("iterating %s: %w", table, err)
	}
	return raw, nil
}
