package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/services/backend"
	logsvc "github.com/trezcool/examprep/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	var h backend.Handle
	if err := h.Init(conf, logger); err != nil {
		logger.Fatal(err.Error(), err)
	}
	clt, err := h.Get()
	if err != nil {
		logger.Fatal(err.Error(), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, clt.DB.DB, clt, logger)
	stop()
	if err := h.Close(); err != nil {
		logger.Error("closing backend", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, db *sql.DB, clt *backend.Client, logger core.Logger) int {
	cli := commandLine{db: db, clt: clt, out: os.Stdout}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			logger.Error("\nerror: "+err.Error(), err)
		}
		return 1
	}
	return 0
}
