package inmemdb

import (
	"sync"

	"github.com/trezcool/examprep/core/access"
	"github.com/trezcool/examprep/core/order"
	"github.com/trezcool/examprep/core/user"
)

type (
	// DB is an in-memory database, for tests & local development.
	DB struct {
		user  *userTable
		grant *grantTable
		order *orderTable
	}

	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	grantTable struct {
		mutex sync.RWMutex
		table map[string]access.PermissionSet // {userID: perms}
	}

	orderTable struct {
		mutex sync.RWMutex
		table map[string]*order.Order
	}
)

func Open() *DB {
	return &DB{
		user:  &userTable{table: make(map[string]*user.User)},
		grant: &grantTable{table: make(map[string]access.PermissionSet)},
		order: &orderTable{table: make(map[string]*order.Order)},
	}
}
