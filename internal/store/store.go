// Credential Store
//
// Copyright (c) 2021  Philip Kaludercic
//
// This file is part of go-kgp.
//
// go-kgp is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-kgp is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-kgp. If not, see
// <http://www.gnu.org/licenses/>

// Package store is the sqlite3-backed persistence adapter: two tables,
// profile_information and profile_authentication, and nothing that
// touches board state (DESIGN NOTES, no persistence of in-progress
// games).
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	reversi "github.com/KuramaSyu/reversi-but-modern"
)

//go:embed sql
var sqlDir embed.FS

// ErrUnknownUser is returned when a username has no information row.
var ErrUnknownUser = errors.New("store: unknown user")

// ErrUserExists is returned by CreateUser when the username is taken.
var ErrUserExists = errors.New("store: username already registered")

// Store wraps a split read/write connection pair, as the reference
// server's manageDatabase does, with the write handle restricted to a
// single open connection to avoid SQLITE_BUSY under WAL.
type Store struct {
	read, write *sql.DB
	queries     map[string]*sql.Stmt
}

// Open connects to the sqlite3 file at path, applies the reference
// server's PRAGMA set, loads ./sql/*.sql, and runs create-tables.sql.
func Open(file string) (*Store, error) {
	write, err := sql.Open("sqlite3", file+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("store: open write handle: %w", err)
	}
	write.SetMaxOpenConns(1)

	read, err := sql.Open("sqlite3", file+"?mode=ro")
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("store: open read handle: %w", err)
	}

	s := &Store{read: read, write: write, queries: make(map[string]*sql.Stmt)}

	for _, pragma := range []string{
		"journal_mode = WAL",
		"synchronous = normal",
		"foreign_keys = on",
	} {
		if _, err := write.Exec("PRAGMA " + pragma + ";"); err != nil {
			write.Close()
			read.Close()
			return nil, fmt.Errorf("store: pragma %s: %w", pragma, err)
		}
	}

	if err := s.loadQueries(); err != nil {
		write.Close()
		read.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) loadQueries() error {
	return fs.WalkDir(sqlDir, "sql", func(file string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		base := path.Base(file)
		data, err := fs.ReadFile(sqlDir, file)
		if err != nil {
			return fmt.Errorf("store: read %s: %w", file, err)
		}

		if strings.HasPrefix(base, "create-") {
			reversi.Debug.Printf("executing %s", base)
			_, err = s.write.Exec(string(data))
			return err
		}

		reversi.Debug.Printf("preparing %s", base)
		stmt, err := s.write.Prepare(string(data))
		if err != nil {
			return fmt.Errorf("store: prepare %s: %w", base, err)
		}
		s.queries[strings.TrimSuffix(base, ".sql")] = stmt
		return nil
	})
}

// Close releases both connections.
func (s *Store) Close() error {
	werr := s.write.Close()
	rerr := s.read.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// CreateUser inserts a fresh information row and its paired
// authentication row (already-hashed password), failing with
// ErrUserExists on a duplicate username.
func (s *Store) CreateUser(username string, salt, hash []byte) (int64, error) {
	res, err := s.queries["insert-user"].Exec(username)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrUserExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := s.queries["insert-auth"].Exec(id, salt, hash); err != nil {
		return 0, err
	}
	return id, nil
}

// LookupUser resolves a username to its id, salt, and stored password
// hash.
func (s *Store) LookupUser(username string) (id int64, salt, hash []byte, err error) {
	if err := s.queries["select-user-by-name"].QueryRow(username).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil, nil, ErrUnknownUser
		}
		return 0, nil, nil, err
	}

	if err := s.queries["select-auth"].QueryRow(id).Scan(&salt, &hash); err != nil {
		return 0, nil, nil, err
	}
	return id, salt, hash, nil
}
