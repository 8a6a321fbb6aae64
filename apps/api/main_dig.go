package main

import (
	"log"

	dig_container "github.com/trezcool/examprep/apps/api/di/dig"
	echoapi "github.com/trezcool/examprep/apps/api/echo"
	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/services/backend"
)

func startWithDig() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		clt *backend.Client,
		server *echoapi.Server,
	) {
		defer func() {
			if err := clt.Close(); err != nil {
				dbLoggerParam.Logger.Fatal("Failed to close", err)
			}
		}()
		serve(conf, apiLogger, server)
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
