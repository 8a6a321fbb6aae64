package main

import (
	"fmt"

	echoapi "github.com/trezcool/examprep/apps/api/echo"
	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/services/backend"
	"github.com/trezcool/examprep/storage/database"
)

func startManual() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	logger := newLogger(conf, "API : ")
	dbLogger := newLogger(conf, "DB : ")

	clt, err := setUpBackend(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up backend: %v", err), err)
	}
	defer func() {
		if err = clt.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Validate:   clt.Validate,
			Translator: clt.Translator,
			UserSvc:    clt.UserSvc,
			OrderSvc:   clt.OrderSvc,
			Sessions:   clt.Sessions,
			Loader:     clt.Loader,
		},
	)
	serve(conf, logger, server)
}

func setUpBackend(conf *core.Config, logger core.Logger) (*backend.Client, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	clt, err := backend.New(conf, logger)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(clt.DB.DB, "up"); err != nil {
		_ = clt.Close()
		return nil, err
	}
	return clt, nil
}
