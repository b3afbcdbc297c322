package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rocketship-ai/shortcuts/internal/shortcut"

	// Database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported driver names
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverMySQL    = "mysql"
)

// DefaultSQLiteDSN is used when no DSN is configured
const DefaultSQLiteDSN = "file:shortcuts.db?_pragma=busy_timeout(5000)"

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// SQLStore persists shortcuts and variables through database/sql.
// A shortcut is stored as a JSON definition next to its indexed columns.
type SQLStore struct {
	db     *sqlx.DB
	driver string
	logger *slog.Logger
}

type shortcutRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	Position   int64  `db:"position"`
	Definition string `db:"definition"`
	UpdatedAt  int64  `db:"updated_at"`
}

type variableRow struct {
	ID            string `db:"id"`
	Key           string `db:"var_key"`
	Value         string `db:"var_value"`
	Type          string `db:"var_type"`
	Title         string `db:"title"`
	Options       string `db:"options"`
	RememberValue bool   `db:"remember_value"`
	URLEncode     bool   `db:"url_encode"`
	Position      int64  `db:"position"`
}

// Open connects to the database, verifies the connection and applies migrations
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch driver {
	case DriverSQLite, DriverPostgres, DriverPgx, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	if dsn == "" {
		if driver != DriverSQLite {
			return nil, fmt.Errorf("store driver %s requires a dsn", driver)
		}
		dsn = DefaultSQLiteDSN
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// single writer; also keeps ":memory:" databases on one connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLStore{db: db, driver: driver, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// upsert builds an insert that replaces every column except the key and keep
func (s *SQLStore) upsert(table string, columns []string, keep ...string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	var sets []string
	for _, c := range columns[1:] {
		if slices.Contains(keep, c) {
			continue
		}
		if s.driver == DriverMySQL {
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", c, c))
		} else {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ", table, strings.Join(columns, ", "), placeholders)
	if s.driver == DriverMySQL {
		q += "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	} else {
		q += fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", columns[0], strings.Join(sets, ", "))
	}
	return s.db.Rebind(q)
}

func (s *SQLStore) GetShortcut(ctx context.Context, id string) (*shortcut.Shortcut, error) {
	var row shortcutRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT id, name, position, definition, updated_at FROM shortcuts WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("shortcut %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shortcut %s: %w", id, err)
	}
	return row.decode()
}

func (s *SQLStore) FindShortcut(ctx context.Context, idOrName string) (*shortcut.Shortcut, error) {
	sc, err := s.GetShortcut(ctx, idOrName)
	if !errors.Is(err, ErrNotFound) {
		return sc, err
	}

	var rows []shortcutRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT id, name, position, definition, updated_at FROM shortcuts WHERE name = ? ORDER BY position`), idOrName); err != nil {
		return nil, fmt.Errorf("failed to find shortcut %s: %w", idOrName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("shortcut %q: %w", idOrName, ErrNotFound)
	}
	return rows[0].decode()
}

func (s *SQLStore) ListShortcuts(ctx context.Context) ([]*shortcut.Shortcut, error) {
	var rows []shortcutRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name, position, definition, updated_at FROM shortcuts ORDER BY position, id`); err != nil {
		return nil, fmt.Errorf("failed to list shortcuts: %w", err)
	}

	out := make([]*shortcut.Shortcut, 0, len(rows))
	for _, row := range rows {
		sc, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

func (s *SQLStore) SaveShortcut(ctx context.Context, sc *shortcut.Shortcut) error {
	if err := checkSavable(sc); err != nil {
		return err
	}
	definition, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to encode shortcut %s: %w", sc.ID, err)
	}

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		position, err := s.nextPosition(ctx, tx, "shortcuts")
		if err != nil {
			return err
		}
		q := s.upsert("shortcuts", []string{"id", "name", "position", "definition", "updated_at"}, "position")
		if _, err := tx.ExecContext(ctx, q, sc.ID, sc.Name, position, string(definition), time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("failed to save shortcut %s: %w", sc.ID, err)
		}
		return nil
	})
}

func (s *SQLStore) DeleteShortcut(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "shortcuts", "shortcut", id)
}

func (s *SQLStore) Variables(ctx context.Context) (*shortcut.Snapshot, error) {
	var rows []variableRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, var_key, var_value, var_type, title, options, remember_value, url_encode, position FROM variables ORDER BY position, id`); err != nil {
		return nil, fmt.Errorf("failed to load variables: %w", err)
	}

	vars := make([]shortcut.Variable, 0, len(rows))
	for _, row := range rows {
		v := shortcut.Variable{
			ID:            row.ID,
			Key:           row.Key,
			Value:         row.Value,
			Type:          shortcut.VariableType(row.Type),
			Title:         row.Title,
			RememberValue: row.RememberValue,
			URLEncode:     row.URLEncode,
		}
		if row.Options != "" {
			if err := json.Unmarshal([]byte(row.Options), &v.Options); err != nil {
				return nil, fmt.Errorf("failed to decode options of variable %s: %w", row.ID, err)
			}
		}
		vars = append(vars, v)
	}
	return shortcut.NewSnapshot(vars), nil
}

func (s *SQLStore) SaveVariable(ctx context.Context, v shortcut.Variable) error {
	if v.Type == "" {
		v.Type = shortcut.VariableConstant
	}
	if err := v.Validate(); err != nil {
		return err
	}
	options, err := json.Marshal(v.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options of variable %s: %w", v.ID, err)
	}

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var clashes int
		if err := tx.GetContext(ctx, &clashes, s.db.Rebind(`SELECT COUNT(1) FROM variables WHERE var_key = ? AND id <> ?`), v.Key, v.ID); err != nil {
			return fmt.Errorf("failed to check variable key %s: %w", v.Key, err)
		}
		if clashes > 0 {
			return shortcut.NewConfigError("key", fmt.Sprintf("%q is already used", v.Key))
		}

		position, err := s.nextPosition(ctx, tx, "variables")
		if err != nil {
			return err
		}
		q := s.upsert("variables", []string{"id", "var_key", "var_value", "var_type", "title", "options", "remember_value", "url_encode", "position"}, "position")
		if _, err := tx.ExecContext(ctx, q, v.ID, v.Key, v.Value, string(v.Type), v.Title, string(options), v.RememberValue, v.URLEncode, position); err != nil {
			return fmt.Errorf("failed to save variable %s: %w", v.ID, err)
		}
		return nil
	})
}

func (s *SQLStore) SetVariableValue(ctx context.Context, id, value string) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		// mysql reports zero affected rows for unchanged values, so check existence first
		var count int
		if err := tx.GetContext(ctx, &count, s.db.Rebind(`SELECT COUNT(1) FROM variables WHERE id = ?`), id); err != nil {
			return fmt.Errorf("failed to look up variable %s: %w", id, err)
		}
		if count == 0 {
			return fmt.Errorf("variable %q: %w", id, ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx, s.db.Rebind(`UPDATE variables SET var_value = ? WHERE id = ?`), value, id); err != nil {
			return fmt.Errorf("failed to update variable %s: %w", id, err)
		}
		return nil
	})
}

func (s *SQLStore) DeleteVariable(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "variables", "variable", id)
}

func (s *SQLStore) deleteByID(ctx context.Context, table, kind, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table)), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) nextPosition(ctx context.Context, tx *sqlx.Tx, table string) (int64, error) {
	var highest sql.NullInt64
	if err := tx.GetContext(ctx, &highest, fmt.Sprintf(`SELECT MAX(position) FROM %s`, table)); err != nil {
		return 0, fmt.Errorf("failed to read %s positions: %w", table, err)
	}
	return highest.Int64 + 1, nil
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r shortcutRow) decode() (*shortcut.Shortcut, error) {
	var sc shortcut.Shortcut
	if err := json.Unmarshal([]byte(r.Definition), &sc); err != nil {
		return nil, fmt.Errorf("failed to decode shortcut %s: %w", r.ID, err)
	}
	sc.ID = r.ID
	sc.ApplyDefaults()
	return &sc, nil
}
