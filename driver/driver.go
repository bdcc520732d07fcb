// Package driver wires the configuration and users set loaded by config
// into a ftpserver.MainDriver: an afero-backed, per-root sandboxed
// filesystem and an exact-match credential check, built around the
// afero.NewBasePathFs jail pattern.
package driver

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/spf13/afero"

	ftpserver "github.com/reefs-ftp/reefs"
	"github.com/reefs-ftp/reefs/config"
	"github.com/reefs-ftp/reefs/log"
)

// errIncorrectCredential is returned for any login that doesn't match the
// anonymous rule or the configured users set.
var errIncorrectCredential = errors.New("login incorrect")

// Driver implements ftpserver.MainDriver against a loaded Config and users
// set. A single sandboxed afero.Fs is shared by every authenticated
// session: afero.NewBasePathFs already jails filesystem access to
// RootDirectory, so there's no per-user chroot to additionally enforce.
type Driver struct {
	cfg     *config.Config
	users   map[string]string // login -> password
	fs      afero.Fs
	logger  log.Logger
	clients int32
}

// New builds a Driver from a loaded configuration and users list.
func New(cfg *config.Config, users []config.User, logger log.Logger) *Driver {
	byLogin := make(map[string]string, len(users))
	for _, u := range users {
		byLogin[u.Login] = u.Password
	}

	return &Driver{
		cfg:    cfg,
		users:  byLogin,
		fs:     afero.NewBasePathFs(afero.NewOsFs(), cfg.RootDirectory),
		logger: logger,
	}
}

// GetSettings translates the loaded Config into ftpserver.Settings.
func (d *Driver) GetSettings() (*ftpserver.Settings, error) {
	return &ftpserver.Settings{
		RootDir:             "/",
		ListenAddr:          fmt.Sprintf("0.0.0.0:%d", d.cfg.Port),
		MaxClients:          d.cfg.MaxClients,
		IdleTimeout:         900,
		DefaultTransferType: ftpserver.TransferTypeBinary,
	}, nil
}

// ClientConnected logs the new connection and returns the welcome banner.
func (d *Driver) ClientConnected(cc ftpserver.ClientContext) (string, error) {
	atomic.AddInt32(&d.clients, 1)
	d.logger.Info("client connected", "id", cc.ID(), "remoteAddr", cc.RemoteAddr())

	return "reefs FTP server ready.", nil
}

// ClientDisconnected logs the departure.
func (d *Driver) ClientDisconnected(cc ftpserver.ClientContext) {
	atomic.AddInt32(&d.clients, -1)
	d.logger.Info("client disconnected", "id", cc.ID())
}

// AuthUser implements the two login rules: the anonymous/ftp account
// accepts any password containing "@", and any other login must exactly
// match a users-file entry.
func (d *Driver) AuthUser(_ ftpserver.ClientContext, user, pass string) (ftpserver.ClientDriver, error) {
	if (user == "anonymous" || user == "ftp") && strings.Contains(pass, "@") {
		return d.fs.(ftpserver.ClientDriver), nil //nolint:forcetypeassert
	}

	if configured, ok := d.users[user]; ok && configured == pass {
		return d.fs.(ftpserver.ClientDriver), nil //nolint:forcetypeassert
	}

	return nil, errIncorrectCredential
}
