// Configuration Specification and Management
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

// Package serverconf decodes the TOML configuration file and runs the
// Manager lifecycle: independently-constructed subsystems register
// themselves, then Start launches all of them and blocks for SIGINT.
package serverconf

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"

	reversi "github.com/KuramaSyu/reversi-but-modern"
	"github.com/KuramaSyu/reversi-but-modern/internal/orchestrator"
)

// WebConf configures the HTTP/WebSocket listener.
type WebConf struct {
	Host string `toml:"host"`
	Port uint   `toml:"port"`
}

// DatabaseConf configures the sqlite3-backed store.
type DatabaseConf struct {
	File string `toml:"file"`
}

// Conf is the root configuration tree, decoded from TOML and
// overridable from the command line.
type Conf struct {
	Debug    bool         `toml:"debug"`
	Web      WebConf      `toml:"web"`
	Database DatabaseConf `toml:"database"`

	file     string
	managers []Manager
}

var defaultConfig = Conf{
	Debug: false,
	Web: WebConf{
		Host: "0.0.0.0",
		Port: 8080,
	},
	Database: DatabaseConf{
		File: "reversi.sql",
	},
}

// Manager is a subsystem the Conf lifecycle owns. The HTTP/WS
// listener (transport.Server) is the one implementation; the store is
// opened and closed by main outside this lifecycle.
type Manager interface {
	String() string
	Start(*orchestrator.Orchestrator) error
	Shutdown()
}

// Register adds m to the set of subsystems Start will launch.
func (c *Conf) Register(m Manager) {
	c.managers = append(c.managers, m)
}

// Load decodes name into a Conf seeded with defaultConfig; missing
// fields keep their default.
func Load(name string) (*Conf, error) {
	conf := defaultConfig
	if name == "" {
		return &conf, nil
	}

	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if _, err := toml.NewDecoder(file).Decode(&conf); err != nil {
		return nil, err
	}
	conf.file = name
	return &conf, nil
}

// Start launches every registered Manager against orc and blocks
// until SIGINT, then calls Shutdown on each in reverse registration
// order.
func (c *Conf) Start(orc *orchestrator.Orchestrator) {
	reversi.SetDebug(c.Debug)

	intr := make(chan os.Signal, 1)
	signal.Notify(intr, os.Interrupt, syscall.SIGTERM)

	for _, m := range c.managers {
		reversi.Log.Printf("starting %s", m)
		if err := m.Start(orc); err != nil {
			reversi.Log.Fatalf("%s: %v", m, err)
		}
	}

	<-intr
	reversi.Log.Print("shutting down")
	for i := len(c.managers) - 1; i >= 0; i-- {
		c.managers[i].Shutdown()
	}
}
