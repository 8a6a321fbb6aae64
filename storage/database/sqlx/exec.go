package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trezcool/examprep/core"
)

// getExec returns the executor to run queries with: the caller's (eg: a transaction) if any, db otherwise.
func getExec(db *sqlx.DB, exec []core.DBExecutor) sqlx.ExtContext {
	if len(exec) > 0 {
		switch e := exec[0].(type) {
		case sqlx.ExtContext:
			return e
		case *sql.Tx:
			return &sqlx.Tx{Tx: e, Mapper: db.Mapper}
		}
	}
	return db
}

func stringArray(vals []string) driver.Valuer {
	return pq.StringArray(vals)
}
