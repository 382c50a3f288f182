package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Nivel de log (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: logLevel})

	m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("crear migrador")
	}
	defer func() { _ = m.Close() }()

	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil {
			err = verr
			break
		}
		fmt.Printf("versión %d (dirty=%t)\n", version, dirty)
	case "force":
		if len(args) < 2 {
			log.Fatal().Msg("uso: migrate force <versión>")
		}
		version, perr := strconv.Atoi(args[1])
		if perr != nil {
			log.Fatal().Err(perr).Msg("versión inválida")
		}
		err = m.Force(version)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("migración fallida")
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `uso: migrate [-log-level nivel] <comando>

comandos:
  up              aplica las migraciones pendientes
  down            revierte todas las migraciones
  version         muestra la versión actual
  force <versión> fija la versión sin ejecutar SQL (limpia el estado dirty)`)
}
