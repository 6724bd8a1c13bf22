package manifeststore

import "fmt"

// Open dispatches to the configured backend driver ("sqlite" or
// "postgres"). dsn is a filesystem path for sqlite, a connection string
// for postgres.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		return OpenSQLite(dsn)
	case "postgres":
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("manifeststore: unknown driver %q", driver)
	}
}
