// Entry point
//
// Copyright (c) 2021, 2022  Philip Kaludercic
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

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	reversi "github.com/KuramaSyu/reversi-but-modern"
	"github.com/KuramaSyu/reversi-but-modern/internal/auth"
	"github.com/KuramaSyu/reversi-but-modern/internal/orchestrator"
	"github.com/KuramaSyu/reversi-but-modern/internal/serverconf"
	"github.com/KuramaSyu/reversi-but-modern/internal/store"
	"github.com/KuramaSyu/reversi-but-modern/internal/transport"
)

// Default file name for the configuration file
const defconf = "server.toml"

func main() {
	var (
		confFile = flag.String("conf", defconf, "Name of configuration file")
		host     = flag.String("host", "", "Override the configured listen host")
		port     = flag.Uint("port", 0, "Override the configured listen port")
		debug    = flag.Bool("debug", false, "Enable debug logging")
	)

	flag.Parse()
	if flag.NArg() != 0 {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Too many arguments passed to %s.\nUsage:\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	name := *confFile
	if name == defconf {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			name = ""
		}
	}

	conf, err := serverconf.Load(name)
	if err != nil {
		log.Fatal(err)
	}
	if *host != "" {
		conf.Web.Host = *host
	}
	if *port != 0 {
		conf.Web.Port = *port
	}
	if *debug {
		conf.Debug = true
	}

	db, err := store.Open(conf.Database.File)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	authSvc := auth.New(db)
	web := &transport.Server{Conf: &conf.Web, Auth: authSvc}
	conf.Register(web)

	orc := orchestrator.New()
	reversi.Log.Printf("starting reversi server on %s:%d", conf.Web.Host, conf.Web.Port)
	conf.Start(orc)
}
