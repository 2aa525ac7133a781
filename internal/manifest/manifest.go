// Package manifest persists what napigen generated: the exported functions
// of every package and a hash of the sources they were generated from.
//
// The manifest is a SQLite database. It lets the generator skip packages
// whose sources did not change and detect exported names claimed by more
// than one package, which would silently shadow each other at runtime.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// Signature is the Go signature of an exported function.
type Signature struct {
	Params []string `msgpack:"params"`
	Result string   `msgpack:"result,omitempty"`
	Error  bool     `msgpack:"error,omitempty"`
}

func (s Signature) String() string {
	var b strings.Builder
	b.WriteString("func(")
	b.WriteString(strings.Join(s.Params, ", "))
	b.WriteByte(')')
	switch {
	case s.Result != "" && s.Error:
		b.WriteString(" (" + s.Result + ", error)")
	case s.Result != "":
		b.WriteString(" " + s.Result)
	case s.Error:
		b.WriteString(" error")
	}
	return b.String()
}

// Export is one exported function.
type Export struct {
	Package   string
	Name      string
	GoName    string
	Signature Signature
	Position  string
}

// Collision is an exported name registered by several packages.
type Collision struct {
	Name     string
	Packages []string
}

// Manifest is an open manifest database.
type Manifest struct {
	db *sql.DB
}

// Open opens or creates the manifest at path. The special path ":memory:"
// opens a private in-memory database.
func Open(path string) (*Manifest, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create manifest dir: %w", err)
			}
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	// A second connection to :memory: would see a different database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping manifest: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate manifest: %w", err)
	}
	return &Manifest{db: db}, nil
}

// Close closes the database.
func (m *Manifest) Close() error {
	return m.db.Close()
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS packages (
			path         TEXT    PRIMARY KEY,
			source_hash  TEXT    NOT NULL,
			generated_at INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS exports (
			package   TEXT NOT NULL REFERENCES packages(path) ON DELETE CASCADE,
			name      TEXT NOT NULL,
			go_name   TEXT NOT NULL,
			signature BLOB NOT NULL,
			position  TEXT NOT NULL DEFAULT '',
			UNIQUE(package, name)
		);

		CREATE INDEX IF NOT EXISTS exports_name ON exports(name);
	`)
	return err
}

// SourceHash returns the source hash recorded for pkg.
func (m *Manifest) SourceHash(ctx context.Context, pkg string) (string, bool, error) {
	var hash string
	err := m.db.QueryRowContext(ctx, "SELECT source_hash FROM packages WHERE path = ?", pkg).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query source hash: %w", err)
	}
	return hash, true, nil
}

// ExportCount returns how many exports are recorded for pkg.
func (m *Manifest) ExportCount(ctx context.Context, pkg string) (int, error) {
	var n int
	if err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exports WHERE package = ?", pkg).Scan(&n); err != nil {
		return 0, fmt.Errorf("count exports of %s: %w", pkg, err)
	}
	return n, nil
}

// Packages returns the recorded package paths in order.
func (m *Manifest) Packages(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT path FROM packages ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	return out, rows.Err()
}

// Record replaces everything known about pkg with hash and exports.
func (m *Manifest) Record(ctx context.Context, pkg, hash string, exports []Export) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM exports WHERE package = ?", pkg); err != nil {
		return fmt.Errorf("clear exports of %s: %w", pkg, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO packages (path, source_hash, generated_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET source_hash = excluded.source_hash, generated_at = excluded.generated_at`,
		pkg, hash, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("record package %s: %w", pkg, err)
	}

	for _, e := range exports {
		sig, err := msgpack.Marshal(e.Signature)
		if err != nil {
			return fmt.Errorf("encode signature of %s: %w", e.GoName, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO exports (package, name, go_name, signature, position) VALUES (?, ?, ?, ?, ?)",
			pkg, e.Name, e.GoName, sig, e.Position,
		); err != nil {
			return fmt.Errorf("record export %s.%s: %w", pkg, e.Name, err)
		}
	}

	return tx.Commit()
}

// Forget removes pkg from the manifest.
func (m *Manifest) Forget(ctx context.Context, pkg string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// In-memory manifests run without foreign keys, so no cascade.
	if _, err := tx.ExecContext(ctx, "DELETE FROM exports WHERE package = ?", pkg); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM packages WHERE path = ?", pkg); err != nil {
		return err
	}
	return tx.Commit()
}

// Exports returns every recorded export, ordered by package and then by
// the order they were recorded in.
func (m *Manifest) Exports(ctx context.Context) ([]Export, error) {
	rows, err := m.db.QueryContext(ctx,
		"SELECT package, name, go_name, signature, position FROM exports ORDER BY package, rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Export
	for rows.Next() {
		var e Export
		var sig []byte
		if err := rows.Scan(&e.Package, &e.Name, &e.GoName, &sig, &e.Position); err != nil {
			return nil, err
		}
		if err := msgpack.Unmarshal(sig, &e.Signature); err != nil {
			return nil, fmt.Errorf("decode signature of %s.%s: %w", e.Package, e.Name, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Collisions returns exported names recorded by more than one package.
func (m *Manifest) Collisions(ctx context.Context) ([]Collision, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT name, group_concat(package, char(10))
		FROM (SELECT DISTINCT name, package FROM exports ORDER BY name, package)
		GROUP BY name
		HAVING COUNT(*) > 1
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Collision
	for rows.Next() {
		var c Collision
		var pkgs string
		if err := rows.Scan(&c.Name, &pkgs); err != nil {
			return nil, err
		}
		c.Packages = strings.Split(pkgs, "\n")
		out = append(out, c)
	}
	return out, rows.Err()
}
