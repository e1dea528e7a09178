package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/timexkit/internal/profile"
	"github.com/hrygo/timexkit/store"
	"github.com/hrygo/timexkit/store/db/postgres"
	"github.com/hrygo/timexkit/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile.DSN)
	case "postgres":
		driver, err = postgres.NewDB(profile.DSN)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
