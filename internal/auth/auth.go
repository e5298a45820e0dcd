// Credential Authentication
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

// Package auth backs /login and /register: bcrypt for password
// hashing, UUIDv4 for session tokens.
package auth

import (
	"crypto/rand"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/KuramaSyu/reversi-but-modern/internal/store"
)

// ErrBadCredentials covers both an unknown username and a wrong
// password; the two are not distinguished in the response, so a
// client cannot probe for registered usernames.
var ErrBadCredentials = errors.New("auth: bad credentials")

// Service binds a store.Store to the bcrypt/uuid credential flow.
type Service struct {
	Store *store.Store
}

// New returns a Service backed by s.
func New(s *store.Store) *Service {
	return &Service{Store: s}
}

func newSalt() ([]byte, error) {
	salt := make([]byte, 16)
	_, err := rand.Read(salt)
	return salt, err
}

// Register creates a new user, bcrypt-hashing password, and returns a
// fresh session token. It reports store.ErrUserExists unchanged.
func (s *Service) Register(username, password string) (token string, err error) {
	salt, err := newSalt()
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword(append(salt, password...), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	if _, err := s.Store.CreateUser(username, salt, hash); err != nil {
		return "", err
	}

	return uuid.NewString(), nil
}

// Login verifies username/password against the stored hash and
// returns a fresh session token on success.
func (s *Service) Login(username, password string) (token string, err error) {
	_, salt, hash, err := s.Store.LookupUser(username)
	if err != nil {
		return "", ErrBadCredentials
	}

	if err := bcrypt.CompareHashAndPassword(hash, append(salt, password...)); err != nil {
		return "", ErrBadCredentials
	}

	return uuid.NewString(), nil
}
