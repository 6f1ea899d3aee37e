// Command ukpython-loaddata loads a content tree into the database, or
// dumps the database back out to one.
//
//	ukpython-loaddata [-config file] load [dir]
//	ukpython-loaddata [-config file] dump [dir]
//
// dir defaults to the configured dump_dir.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/ukpython/ukpython/pkg/ukpython/config"
	"github.com/ukpython/ukpython/pkg/ukpython/database"
	"github.com/ukpython/ukpython/pkg/ukpython/importexport"
	"github.com/ukpython/ukpython/pkg/ukpython/logging"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-config file] load|dump [dir]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	dir := cfg.DumpDir
	if flag.NArg() == 2 {
		dir = flag.Arg(1)
	}

	db, err := database.Open(cfg.DBPath, cfg.DBDebug)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	importer := importexport.NewImporter(db, logger)

	switch cmd := flag.Arg(0); cmd {
	case "load":
		result, err := importer.Load(dir)
		if err != nil {
			logger.Fatal("load failed", zap.Error(err))
		}
		if len(result.Errors) > 0 {
			os.Exit(1)
		}
	case "dump":
		if _, err := importer.Dump(dir); err != nil {
			logger.Fatal("dump failed", zap.Error(err))
		}
	default:
		logger.Error("unknown command", zap.String("command", cmd))
		usage()
		os.Exit(2)
	}
}
