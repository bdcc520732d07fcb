package ftpserver

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/reefs-ftp/reefs/log/gokit"
)

// authUser/authPass is the one configured credential every test server
// driver accepts, alongside the anonymous rule.
const (
	authUser = "test"
	authPass = "test"
)

var errIncorrectCredential = errors.New("login incorrect")

// TestServerDriver is a minimal MainDriver backed by an afero.BasePathFs
// jailed to a temporary directory.
type TestServerDriver struct {
	Debug     bool
	Settings  *Settings
	connected int32

	fs afero.Fs
}

func (d *TestServerDriver) GetSettings() (*Settings, error) {
	if d.Settings == nil {
		d.Settings = &Settings{}
	}

	if d.Settings.ListenAddr == "" {
		d.Settings.ListenAddr = "127.0.0.1:0"
	}

	if d.Settings.RootDir == "" {
		d.Settings.RootDir = "/"
	}

	return d.Settings, nil
}

func (d *TestServerDriver) ClientConnected(cc ClientContext) (string, error) {
	atomic.AddInt32(&d.connected, 1)

	return fmt.Sprintf("Welcome, client #%d", cc.ID()), nil
}

func (d *TestServerDriver) ClientDisconnected(_ ClientContext) {
	atomic.AddInt32(&d.connected, -1)
}

func (d *TestServerDriver) AuthUser(_ ClientContext, user, pass string) (ClientDriver, error) {
	switch {
	case (user == "anonymous" || user == "ftp") && containsAt(pass):
		return d.fs.(ClientDriver), nil //nolint:forcetypeassert
	case user == authUser && pass == authPass:
		return d.fs.(ClientDriver), nil //nolint:forcetypeassert
	default:
		return nil, errIncorrectCredential
	}
}

func containsAt(s string) bool {
	for _, r := range s {
		if r == '@' {
			return true
		}
	}

	return false
}

// NewTestServer starts a test server against a fresh temporary root,
// optionally echoing its log to stdout.
func NewTestServer(t *testing.T, debug bool) *FtpServer {
	t.Helper()

	return NewTestServerWithTestDriver(t, &TestServerDriver{Debug: debug})
}

// NewTestServerWithTestDriver starts a test server using the given driver,
// filling in a temporary, sandboxed filesystem root if none is set yet.
func NewTestServerWithTestDriver(t *testing.T, driver *TestServerDriver) *FtpServer {
	t.Helper()

	if driver.fs == nil {
		driver.fs = afero.NewBasePathFs(afero.NewOsFs(), t.TempDir())
	}

	var shuttingDown atomic.Bool

	server := NewFtpServer(driver, &shuttingDown)
	if driver.Debug {
		server.Logger = gokit.NewGKLoggerStdout()
	}

	require.NoError(t, server.Listen())

	go func() {
		_ = server.Serve()
	}()

	t.Cleanup(func() {
		_ = server.Stop()
	})

	return server
}

func panicOnError(err error) {
	if err != nil {
		panic(err)
	}
}
