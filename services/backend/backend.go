package backend

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/access"
	"github.com/trezcool/examprep/core/exam"
	"github.com/trezcool/examprep/core/order"
	"github.com/trezcool/examprep/core/user"
	emailsvc "github.com/trezcool/examprep/services/email"
	sessionsvc "github.com/trezcool/examprep/services/session"
	"github.com/trezcool/examprep/storage/database"
	inmemdb "github.com/trezcool/examprep/storage/database/inmem"
	boiledrepos "github.com/trezcool/examprep/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/examprep/storage/database/sqlx"
)

var (
	ErrNotInitialized = errors.New("backend client not initialized")

	dbPingAttempts = 10
	redisTimeout   = 5 * time.Second

	newClientFunc = New // mockable
)

// Client gives access to every backend service. It is safe for concurrent use.
type Client struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Mail       core.EmailService

	Redis    *redis.Client
	DB       *sqlx.DB // nil with in-memory storage
	Sessions *sessionsvc.Manager

	UserRepo  user.Repository
	GrantRepo GrantRepository
	OrderRepo order.Repository
	UserSvc   user.Service
	OrderSvc  order.Service

	RoleMap access.RolePermissionMap
	Loader  access.Loader

	closeOnce sync.Once
	closeErr  error
}

type storage struct {
	db     *sqlx.DB
	users  user.Repository
	grants GrantRepository
	orders order.Repository
}

// New connects to redis & postgres and builds the services. The database must exist, see database.CreateIfNotExist.
func New(conf *core.Config, logger core.Logger) (*Client, error) {
	rdb, err := openRedis(conf)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "opening database")
	}
	if err = database.Ping(db.DB, dbPingAttempts); err != nil {
		_ = rdb.Close()
		_ = db.Close()
		return nil, err
	}

	clt, err := build(conf, logger, rdb, storage{
		db:     db,
		users:  sqlxrepos.NewUserRepository(db),
		grants: sqlxrepos.NewGrantRepository(db),
		orders: boiledrepos.NewOrderRepository(db),
	})
	if err != nil {
		_ = rdb.Close()
		_ = db.Close()
		return nil, err
	}
	return clt, nil
}

// NewInMemory builds a Client on in-memory storage and the given redis client, for tests & local development.
func NewInMemory(conf *core.Config, logger core.Logger, rdb *redis.Client) (*Client, error) {
	mem := inmemdb.Open()
	return build(conf, logger, rdb, storage{
		users:  inmemdb.NewUserRepository(mem),
		grants: inmemdb.NewGrantRepository(mem),
		orders: inmemdb.NewOrderRepository(mem),
	})
}

func openRedis(conf *core.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: conf.Redis.Addr, DB: conf.Redis.DB})
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

func build(conf *core.Config, logger core.Logger, rdb *redis.Client, st storage) (*Client, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	access.InitValidators(validate, translator)
	exam.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	roleMap, err := access.LoadRoleMap(conf.Access.RoleMapFile, validate)
	if err != nil {
		return nil, err
	}

	core.ParseEmailTemplates(logger)
	var mailSvc core.EmailService
	switch {
	case conf.TestMode:
		mailSvc = emailsvc.NewConsoleServiceMock(conf)
	case conf.Debug:
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	default:
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var txDB core.DB
	if st.db != nil {
		txDB = st.db
	}

	clt := &Client{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Mail:       mailSvc,
		Redis:      rdb,
		DB:         st.db,
		Sessions:   sessionsvc.NewManager(rdb, conf, logger),
		UserRepo:   st.users,
		GrantRepo:  st.grants,
		OrderRepo:  st.orders,
		UserSvc:    user.NewService(st.users, mailSvc, validate, conf),
		OrderSvc:   order.NewService(txDB, st.orders, st.users, mailSvc, logger),
		RoleMap:    roleMap,
	}
	clt.Loader = access.Loader{Users: clt.UserSvc, RoleMap: roleMap}
	if conf.Access.FetchGrants {
		clt.Loader.Fetcher = GrantFetcher{Users: st.users, Grants: st.grants, RoleMap: roleMap}
	}
	return clt, nil
}

// NewStore returns a Permission Store for clientID. The caller must Initialize and Close it.
func (c *Client) NewStore(clientID string) (*access.Store, *sessionsvc.Source) {
	src := c.Sessions.ForClient(clientID)
	return access.NewStore(src, c.Loader, c.Logger), src
}

// Close closes the redis & database connections. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		var errs []string
		if c.Redis != nil {
			if err := c.Redis.Close(); err != nil {
				errs = append(errs, fmt.Sprintf("closing redis: %v", err))
			}
		}
		if c.DB != nil {
			if err := c.DB.Close(); err != nil {
				errs = append(errs, fmt.Sprintf("closing database: %v", err))
			}
		}
		if len(errs) > 0 {
			c.closeErr = errors.New(strings.Join(errs, "; "))
		}
	})
	return c.closeErr
}

// Handle holds the process wide Client once initialized.
type Handle struct {
	mu     sync.RWMutex
	client *Client
}

// Init creates the Client. Calling Init on an initialized Handle does nothing.
func (h *Handle) Init(conf *core.Config, logger core.Logger) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client != nil {
		return nil
	}
	clt, err := newClientFunc(conf, logger)
	if err != nil {
		return errors.Wrap(err, "initializing backend client")
	}
	h.client = clt
	return nil
}

// Get returns the Client, or ErrNotInitialized before Init succeeded.
func (h *Handle) Get() (*Client, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.client == nil {
		return nil, ErrNotInitialized
	}
	return h.client, nil
}

// Close closes the Client; the Handle can then be initialized again.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client == nil {
		return nil
	}
	err := h.client.Close()
	h.client = nil
	return err
}
