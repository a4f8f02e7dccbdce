package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/hdkg/internal/symbol"
)

// DatabaseFile is the database name inside a data directory.
const DatabaseFile = "engine.db"

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// Exists reports whether dataDir already holds a database.
func Exists(dataDir string) bool {
	_, err := os.Stat(filepath.Join(dataDir, DatabaseFile))
	return err == nil
}

// OpenDataDir opens the engine database inside dataDir, creating it if needed.
func OpenDataDir(dataDir string) (*SQLiteStorage, error) {
	return NewSQLiteStorage(filepath.Join(dataDir, DatabaseFile))
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS engine_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS symbols (
		id INTEGER PRIMARY KEY,
		vector BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS triples (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		subject INTEGER NOT NULL,
		predicate INTEGER NOT NULL,
		object INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (subject, predicate, object)
	);

	CREATE INDEX IF NOT EXISTS idx_triples_predicate ON triples(predicate);
	CREATE INDEX IF NOT EXISTS idx_triples_object ON triples(object);

	CREATE TABLE IF NOT EXISTS composites (
		subject INTEGER PRIMARY KEY,
		vector BLOB NOT NULL,
		edge_count INTEGER NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Symbols are unsigned 64-bit; SQLite integers are signed. The bit pattern
// is stored unchanged.
func toDB(s symbol.Symbol) int64   { return int64(s) }
func fromDB(v int64) symbol.Symbol { return symbol.Symbol(uint64(v)) }

// Path returns the database file path.
func (s *SQLiteStorage) Path() string { return s.path }

// GetMeta returns the value stored under key.
func (s *SQLiteStorage) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM engine_meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetMeta stores value under key, replacing any previous value.
func (s *SQLiteStorage) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO engine_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// Apply inserts the triple, any new symbols and the updated composite in one
// transaction.
func (s *SQLiteStorage) Apply(ctx context.Context, m Mutation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	symStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO symbols (id, vector, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer symStmt.Close()

	now := time.Now()
	for _, rec := range m.Symbols {
		if _, err := symStmt.ExecContext(ctx, toDB(rec.Symbol), rec.Vector, now); err != nil {
			return fmt.Errorf("insert symbol %s: %w", rec.Symbol, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO triples (subject, predicate, object, created_at) VALUES (?, ?, ?, ?)`,
		toDB(m.Triple.Subject), toDB(m.Triple.Predicate), toDB(m.Triple.Object), now,
	); err != nil {
		return fmt.Errorf("insert triple %s: %w", m.Triple, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO composites (subject, vector, edge_count, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(subject) DO UPDATE SET vector = excluded.vector,
		 edge_count = excluded.edge_count, updated_at = excluded.updated_at`,
		toDB(m.Composite.Subject), m.Composite.Vector, m.Composite.Edges, now,
	); err != nil {
		return fmt.Errorf("upsert composite %s: %w", m.Composite.Subject, err)
	}

	return tx.Commit()
}

// ForEachSymbol calls fn for every stored symbol in ascending id order.
func (s *SQLiteStorage) ForEachSymbol(ctx context.Context, fn func(SymbolRecord) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, vector FROM symbols ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var vec []byte
		if err := rows.Scan(&id, &vec); err != nil {
			return err
		}
		if err := fn(SymbolRecord{Symbol: fromDB(id), Vector: vec}); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ListTriples returns every triple in insertion order.
func (s *SQLiteStorage) ListTriples(ctx context.Context) ([]symbol.Triple, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT subject, predicate, object FROM triples ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triples []symbol.Triple
	for rows.Next() {
		var subj, pred, obj int64
		if err := rows.Scan(&subj, &pred, &obj); err != nil {
			return nil, err
		}
		triples = append(triples, symbol.Triple{Subject: fromDB(subj), Predicate: fromDB(pred), Object: fromDB(obj)})
	}
	return triples, rows.Err()
}

// ForEachComposite calls fn for every stored composite.
func (s *SQLiteStorage) ForEachComposite(ctx context.Context, fn func(CompositeRecord) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT subject, vector, edge_count FROM composites ORDER BY subject`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var subj int64
		var rec CompositeRecord
		if err := rows.Scan(&subj, &rec.Vector, &rec.Edges); err != nil {
			return err
		}
		rec.Subject = fromDB(subj)
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CountTriples returns the number of stored triples.
func (s *SQLiteStorage) CountTriples(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM triples`).Scan(&n)
	return n, err
}

// CountSymbols returns the number of stored symbols.
func (s *SQLiteStorage) CountSymbols(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM symbols`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
