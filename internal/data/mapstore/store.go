// Package mapstore persists mapping tables in sqlite for projects whose
// mapping sets are too large to reparse on every run. It satisfies the
// same lookup surface as the in-memory table, with a read-through cache
// in front of the prepared statements.
package mapstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	derrors "refract/internal/core/errors"
	"refract/internal/mapping"
)

const sqliteDriverName = "sqlite"

const (
	kindField  = 0
	kindMethod = 1
)

type Store struct {
	db         *sql.DB
	projectKey string
	typeStmt   *sql.Stmt
	memberStmt *sql.Stmt

	cacheMu     sync.RWMutex
	typeCache   map[string]typeHit
	memberCache map[mapping.Member]memberHit
}

type typeHit struct {
	name string
	ok   bool
}

type memberHit struct {
	member mapping.Member
	ok     bool
}

func Open(path, projectKey string, busyTimeoutMillis int) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, derrors.New(derrors.CodeValidationError, "mapping store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, derrors.AddContext(
			derrors.New(derrors.CodeValidationError, "mapping store path is a directory, expected file"),
			derrors.CtxPath, cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create mapping store directory %q: %w", dir, err)
		}
	}

	if busyTimeoutMillis <= 0 {
		busyTimeoutMillis = 5000
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cleanPath, busyTimeoutMillis)
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open mapping store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mapping store %q: %w", cleanPath, err)
	}

	if err := migrateSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	key := strings.TrimSpace(projectKey)
	if key == "" {
		key = "default"
	}

	typeStmt, err := db.Prepare(`SELECT to_name FROM types WHERE project_key = ? AND from_name = ?`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare type lookup stmt: %w", err)
	}

	memberStmt, err := db.Prepare(`SELECT to_owner, to_name, to_desc
FROM members
WHERE project_key = ? AND kind = ? AND from_owner = ? AND from_name = ? AND from_desc = ?`)
	if err != nil {
		_ = typeStmt.Close()
		_ = db.Close()
		return nil, fmt.Errorf("prepare member lookup stmt: %w", err)
	}

	return &Store{
		db:          db,
		projectKey:  key,
		typeStmt:    typeStmt,
		memberStmt:  memberStmt,
		typeCache:   make(map[string]typeHit),
		memberCache: make(map[mapping.Member]memberHit),
	}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.typeStmt != nil {
		_ = s.typeStmt.Close()
	}
	if s.memberStmt != nil {
		_ = s.memberStmt.Close()
	}
	return s.db.Close()
}

func (s *Store) clearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.typeCache = make(map[string]typeHit)
	s.memberCache = make(map[mapping.Member]memberHit)
}

// ImportTable replaces the project's persisted mappings with the
// contents of an in-memory table, in one transaction.
func (s *Store) ImportTable(t *mapping.Table) error {
	if s == nil || s.db == nil || t == nil {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin mapping import tx: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM types WHERE project_key = ?`, s.projectKey); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear type rows: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM members WHERE project_key = ?`, s.projectKey); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear member rows: %w", err)
	}

	typeInsert, err := tx.Prepare(`INSERT OR REPLACE INTO types (project_key, from_name, to_name) VALUES (?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare type insert: %w", err)
	}
	defer typeInsert.Close()

	memberInsert, err := tx.Prepare(`INSERT OR REPLACE INTO members
(project_key, kind, from_owner, from_name, from_desc, to_owner, to_name, to_desc)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare member insert: %w", err)
	}
	defer memberInsert.Close()

	var insertErr error
	t.EachType(func(from, to string) {
		if insertErr != nil {
			return
		}
		if _, err := typeInsert.Exec(s.projectKey, from, to); err != nil {
			insertErr = fmt.Errorf("insert type row %q: %w", from, err)
		}
	})
	t.EachField(func(from, to mapping.Member) {
		if insertErr != nil {
			return
		}
		if _, err := memberInsert.Exec(s.projectKey, kindField, from.Owner, from.Name, "", to.Owner, to.Name, ""); err != nil {
			insertErr = fmt.Errorf("insert field row %s/%s: %w", from.Owner, from.Name, err)
		}
	})
	t.EachMethod(func(from, to mapping.Member) {
		if insertErr != nil {
			return
		}
		if _, err := memberInsert.Exec(s.projectKey, kindMethod, from.Owner, from.Name, from.Desc, to.Owner, to.Name, to.Desc); err != nil {
			insertErr = fmt.Errorf("insert method row %s/%s: %w", from.Owner, from.Name, err)
		}
	})
	if insertErr != nil {
		_ = tx.Rollback()
		return insertErr
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mapping import tx: %w", err)
	}
	s.clearCache()
	return nil
}

// TypeName implements remapper.Lookup.
func (s *Store) TypeName(name string) (string, bool) {
	if s == nil || s.db == nil || name == "" {
		return "", false
	}

	s.cacheMu.RLock()
	if hit, ok := s.typeCache[name]; ok {
		s.cacheMu.RUnlock()
		return hit.name, hit.ok
	}
	s.cacheMu.RUnlock()

	var to string
	err := s.typeStmt.QueryRow(s.projectKey, name).Scan(&to)
	found := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		// Treat transient query failure like a miss, without poisoning
		// the cache.
		return "", false
	}

	s.cacheMu.Lock()
	s.typeCache[name] = typeHit{name: to, ok: found}
	s.cacheMu.Unlock()
	return to, found
}

// Field implements remapper.Lookup.
func (s *Store) Field(owner, name string) (mapping.Member, bool) {
	return s.member(kindField, mapping.Member{Owner: owner, Name: name})
}

// Method implements remapper.Lookup.
func (s *Store) Method(owner, name, desc string) (mapping.Member, bool) {
	return s.member(kindMethod, mapping.Member{Owner: owner, Name: name, Desc: desc})
}

func (s *Store) member(kind int, from mapping.Member) (mapping.Member, bool) {
	if s == nil || s.db == nil || from.Name == "" {
		return mapping.Member{}, false
	}

	// Field and method identities cannot collide: field keys carry an
	// empty descriptor and method keys a "(...)" one.
	s.cacheMu.RLock()
	if hit, ok := s.memberCache[from]; ok {
		s.cacheMu.RUnlock()
		return hit.member, hit.ok
	}
	s.cacheMu.RUnlock()

	var to mapping.Member
	err := s.memberStmt.QueryRow(s.projectKey, kind, from.Owner, from.Name, from.Desc).Scan(&to.Owner, &to.Name, &to.Desc)
	found := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return mapping.Member{}, false
	}

	s.cacheMu.Lock()
	s.memberCache[from] = memberHit{member: to, ok: found}
	s.cacheMu.Unlock()
	return to, found
}

// Counts returns the persisted row counts for the project, for
// diagnostics.
func (s *Store) Counts() (types, fields, methods int, err error) {
	if s == nil || s.db == nil {
		return 0, 0, 0, fmt.Errorf("store not initialized")
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM types WHERE project_key = ?`, s.projectKey).Scan(&types); err != nil {
		return 0, 0, 0, fmt.Errorf("count type rows: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM members WHERE project_key = ? AND kind = ?`, s.projectKey, kindField).Scan(&fields); err != nil {
		return 0, 0, 0, fmt.Errorf("count field rows: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM members WHERE project_key = ? AND kind = ?`, s.projectKey, kindMethod).Scan(&methods); err != nil {
		return 0, 0, 0, fmt.Errorf("count method rows: %w", err)
	}
	return types, fields, methods, nil
}

// migrateSchema creates or migrates the mapping tables to schema v1.
func migrateSchema(db *sql.DB) error {
	var version int
	_ = db.QueryRow(`PRAGMA user_version`).Scan(&version)

	if version == 0 {
		_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS types (
  project_key TEXT NOT NULL,
  from_name TEXT NOT NULL,
  to_name TEXT NOT NULL,
  PRIMARY KEY (project_key, from_name)
);

CREATE TABLE IF NOT EXISTS members (
  project_key TEXT NOT NULL,
  kind INTEGER NOT NULL,
  from_owner TEXT NOT NULL,
  from_name TEXT NOT NULL,
  from_desc TEXT NOT NULL DEFAULT '',
  to_owner TEXT NOT NULL,
  to_name TEXT NOT NULL,
  to_desc TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (project_key, kind, from_owner, from_name, from_desc)
);

PRAGMA user_version = 1;
`)
		if err != nil {
			return fmt.Errorf("create v1 schema: %w", err)
		}
	}

	return nil
}
