package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"filegrip/internal/domain"
	"filegrip/internal/numrange"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	path TEXT NOT NULL UNIQUE,
	size INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS file_annotations (
	file_id TEXT NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	name    TEXT NOT NULL,
	value   TEXT NOT NULL,
	PRIMARY KEY (file_id, name)
);
CREATE INDEX IF NOT EXISTS idx_file_annotations_name ON file_annotations(name, value);
`

// SQLite is a catalog backed by a SQLite database
type SQLite struct {
	db *sql.DB

	mu        sync.RWMutex
	hierarchy []string
	sortMode  SortMode
	filter    string
}

// OpenSQLite opens (and if needed creates) a catalog database at dsn
func OpenSQLite(dsn string) (*SQLite, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) SetHierarchy(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hierarchy = append([]string(nil), names...)
}

func (s *SQLite) SetSort(mode SortMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortMode = mode
}

func (s *SQLite) SetFilter(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = query
}

// Insert adds or replaces files together with their annotations
func (s *SQLite) Insert(ctx context.Context, files ...File) error {
	return s.write(ctx, false, files)
}

// Replace swaps the whole catalog contents for files
func (s *SQLite) Replace(ctx context.Context, files []File) error {
	return s.write(ctx, true, files)
}

func (s *SQLite) write(ctx context.Context, truncate bool, files []File) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin insert: %w", err)
	}
	defer tx.Rollback()

	if truncate {
		if _, err := tx.ExecContext(ctx, "DELETE FROM files"); err != nil {
			return fmt.Errorf("failed to clear catalog: %w", err)
		}
	}

	for _, f := range files {
		id := f.ID()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO files (id, name, path, size) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name, size = excluded.size`,
			id, f.Name, f.Path, f.Size); err != nil {
			return fmt.Errorf("failed to insert %s: %w", f.Path, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM file_annotations WHERE file_id = ?", id); err != nil {
			return fmt.Errorf("failed to clear annotations of %s: %w", f.Path, err)
		}
		for name, value := range f.Annotations {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO file_annotations (file_id, name, value) VALUES (?, ?, ?)",
				id, name, value); err != nil {
				return fmt.Errorf("failed to annotate %s: %w", f.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insert: %w", err)
	}
	return nil
}

// query holds the FROM/WHERE part shared by every catalog statement
type query struct {
	columns []string
	from    strings.Builder
	where   []string
	args    []any
}

func (s *SQLite) scope(group *domain.Group) *query {
	s.mu.RLock()
	hierarchy, filter := s.hierarchy, s.filter
	s.mu.RUnlock()

	q := &query{}
	q.from.WriteString("files f")
	for i, name := range hierarchy {
		alias := fmt.Sprintf("a%d", i)
		fmt.Fprintf(&q.from, " LEFT JOIN file_annotations %[1]s ON %[1]s.file_id = f.id AND %[1]s.name = ?", alias)
		q.args = append(q.args, name)
		q.columns = append(q.columns, fmt.Sprintf("COALESCE(NULLIF(%s.value, ''), '%s')", alias, NoValue))
	}

	if filter != "" {
		filter = strings.ToLower(filter)
		if name, value, ok := strings.Cut(filter, ":"); ok && name != "" {
			q.where = append(q.where, `EXISTS (SELECT 1 FROM file_annotations fa
				WHERE fa.file_id = f.id AND lower(fa.name) = ? AND instr(lower(fa.value), ?) > 0)`)
			q.args = append(q.args, name, value)
		} else {
			q.where = append(q.where, "(instr(lower(f.name), ?) > 0 OR instr(lower(f.path), ?) > 0)")
			q.args = append(q.args, filter, filter)
		}
	}

	if group != nil {
		if len(group.Path) != len(hierarchy) {
			// the group belongs to another hierarchy and matches nothing
			q.where = append(q.where, "0")
		}
		for i, value := range group.Path {
			if i >= len(q.columns) {
				break
			}
			q.where = append(q.where, q.columns[i]+" = ?")
			q.args = append(q.args, value)
		}
	}
	return q
}

func (q *query) sql(selectList, tail string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectList)
	b.WriteString(" FROM ")
	b.WriteString(q.from.String())
	if len(q.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.where, " AND "))
	}
	if tail != "" {
		b.WriteString(" ")
		b.WriteString(tail)
	}
	return b.String()
}

// Groups returns one group per distinct tuple of hierarchy values
func (s *SQLite) Groups(ctx context.Context) ([]domain.Group, error) {
	q := s.scope(nil)

	if len(q.columns) == 0 {
		var n int
		if err := s.db.QueryRowContext(ctx, q.sql("COUNT(*)", ""), q.args...).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count files: %w", err)
		}
		if n == 0 {
			return []domain.Group{}, nil
		}
		return []domain.Group{{Key: domain.KeyFor(nil), Name: groupName(nil)}}, nil
	}

	list := strings.Join(q.columns, ", ")
	rows, err := s.db.QueryContext(ctx, q.sql("DISTINCT "+list, ""), q.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var paths [][]string
	for rows.Next() {
		values := make([]string, len(q.columns))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		paths = append(paths, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	sort.Slice(paths, func(i, j int) bool { return pathLess(paths[i], paths[j]) })
	groups := make([]domain.Group, len(paths))
	for i, values := range paths {
		groups[i] = domain.Group{
			Key:       domain.KeyFor(values),
			Name:      groupName(values),
			Path:      values,
			SortOrder: i,
		}
	}
	return groups, nil
}

func (s *SQLite) Count(ctx context.Context, g domain.Group) (int, error) {
	q := s.scope(&g)
	var n int
	if err := s.db.QueryRowContext(ctx, q.sql("COUNT(*)", ""), q.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count group %s: %w", g.Key, err)
	}
	return n, nil
}

// Details returns the records at positions r.From..r.To of group g
func (s *SQLite) Details(ctx context.Context, g domain.Group, r numrange.Range) ([]domain.FileDetail, error) {
	s.mu.RLock()
	mode := s.sortMode
	s.mu.RUnlock()

	q := s.scope(&g)
	tail := "ORDER BY " + orderBy(mode) + " LIMIT ? OFFSET ?"
	args := append(q.args, r.Size(), r.From)

	rows, err := s.db.QueryContext(ctx, q.sql("f.id, f.name, f.path, f.size", tail), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s of group %s: %w", r, g.Key, err)
	}
	var out []domain.FileDetail
	index := make(map[string]int)
	for rows.Next() {
		var d domain.FileDetail
		if err := rows.Scan(&d.ID, &d.Name, &d.Path, &d.Size); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		d.Annotations = make(map[string]string)
		index[d.ID] = len(out)
		out = append(out, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load %s of group %s: %w", r, g.Key, err)
	}
	if len(out) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(out)), ", ")
	ids := make([]any, len(out))
	for i, d := range out {
		ids[i] = d.ID
	}
	arows, err := s.db.QueryContext(ctx,
		"SELECT file_id, name, value FROM file_annotations WHERE file_id IN ("+placeholders+")", ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to load annotations: %w", err)
	}
	defer arows.Close()
	for arows.Next() {
		var id, name, value string
		if err := arows.Scan(&id, &name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		out[index[id]].Annotations[name] = value
	}
	if err := arows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load annotations: %w", err)
	}
	return out, nil
}

func orderBy(mode SortMode) string {
	switch mode {
	case SortBySize:
		return "f.size DESC, lower(f.name), f.path"
	case SortByPath:
		return "f.path, lower(f.name)"
	default:
		return "lower(f.name), f.path"
	}
}
