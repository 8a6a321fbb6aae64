package dig_container

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/examprep/apps/api/echo"
	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/services/backend"
	logsvc "github.com/trezcool/examprep/services/logger"
	"github.com/trezcool/examprep/storage/database"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newBackend(conf *core.Config, logger core.Logger, loggerParam DBLoggerParam) *backend.Client {
	setUp := func() (*backend.Client, error) {
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

	clt, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up backend: %v", err), err)
	}
	return clt
}

func newServerDeps(conf *core.Config, logger core.Logger, clt *backend.Client) echoapi.ServerDeps {
	return echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Validate:   clt.Validate,
		Translator: clt.Translator,
		UserSvc:    clt.UserSvc,
		OrderSvc:   clt.OrderSvc,
		Sessions:   clt.Sessions,
		Loader:     clt.Loader,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newBackend))
	must(c.Provide(newServerDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
