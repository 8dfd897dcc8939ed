// Package keyring keeps dosekeep's PostgreSQL DSN in the operating system's
// secret store under the app name.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/dosekeep/internal/constants"
)

var (
	ErrNotFound    = errors.New("no dosekeep DSN in the keyring")
	ErrUnavailable = errors.New("keyring unavailable")
)

// availabilityUser is looked up, never written, to see whether the backend answers.
const availabilityUser = "availability-check"

// translate maps backend errors onto this package's sentinels.
func translate(action string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keyring.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%s DSN: %w: %w", action, ErrUnavailable, err)
	}
}

// DSN returns the stored connection string.
func DSN() (string, error) {
	dsn, err := keyring.Get(constants.AppName, constants.DefaultKeyringUser)
	return dsn, translate("read", err)
}

func StoreDSN(dsn string) error {
	if dsn == "" {
		return errors.New("refusing to store an empty DSN")
	}
	return translate("store", keyring.Set(constants.AppName, constants.DefaultKeyringUser, dsn))
}

// ForgetDSN removes the stored connection string. It reports ErrNotFound when
// there was none.
func ForgetDSN() error {
	return translate("remove", keyring.Delete(constants.AppName, constants.DefaultKeyringUser))
}

// Available reports whether the secret store answers lookups at all.
func Available() bool {
	_, err := keyring.Get(constants.AppName, availabilityUser)
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
