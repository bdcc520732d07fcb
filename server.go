// Package ftpserver provides all the tools to build your own FTP server: The core library and the driver.
package ftpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/reefs-ftp/reefs/log"
	lognoop "github.com/reefs-ftp/reefs/log/noop"
)

// ErrNotListening is returned when we are performing an action that is only valid while listening
var ErrNotListening = errors.New("we aren't listening")

// CommandDescription defines which function should be used and if it should be open to anyone or only logged in users
type CommandDescription struct {
	Open bool                               // Open to clients without auth
	Fn   func(*clientHandler, string) error // Function to handle it
}

// commandsMap is the trimmed command set this server understands. Verbs
// not listed here fall through to the "unknown command" 500 reply.
var commandsMap = map[string]*CommandDescription{ //nolint:gochecknoglobals
	"USER": {Fn: (*clientHandler).handleUSER, Open: true},
	"PASS": {Fn: (*clientHandler).handlePASS, Open: true},
	"QUIT": {Fn: (*clientHandler).handleQUIT, Open: true},
	"FEAT": {Fn: (*clientHandler).handleFEAT, Open: true},
	"SYST": {Fn: (*clientHandler).handleSYST, Open: true},

	"PWD":  {Fn: (*clientHandler).handlePWD},
	"CDUP": {Fn: (*clientHandler).handleCDUP},
	"CWD":  {Fn: (*clientHandler).handleCWD},
	"MKD":  {Fn: (*clientHandler).handleMKD},
	"RMD":  {Fn: (*clientHandler).handleRMD},

	"DELE": {Fn: (*clientHandler).handleDELE},
	"RNFR": {Fn: (*clientHandler).handleRNFR},
	"RNTO": {Fn: (*clientHandler).handleRNTO},

	"TYPE": {Fn: (*clientHandler).handleTYPE},
	"PASV": {Fn: (*clientHandler).handlePASV},
	"LIST": {Fn: (*clientHandler).handleLIST},
	"RETR": {Fn: (*clientHandler).handleRETR},
	"STOR": {Fn: (*clientHandler).handleSTOR},
}

// FtpServer is where everything is stored.
// We want to keep it as simple as possible.
type FtpServer struct {
	Logger        log.Logger    // structured logger
	settings      *Settings     // general settings
	rootDir       string        // canonicalised root directory, set from the driver's settings
	listener      net.Listener  // listener used to accept control connections
	clientCounter uint32        // monotonically increasing client ID source
	clientCount   int32         // current number of connected clients, for MaxClients enforcement
	shuttingDown  *atomic.Bool  // raised by the process-wide interrupt handler
	driver        MainDriver    // driver handling authentication and filesystem access
}

func (server *FtpServer) loadSettings() error {
	settings, err := server.driver.GetSettings()
	if err != nil || settings == nil {
		return newDriverError("couldn't load settings", err)
	}

	if settings.ListenAddr == "" {
		settings.ListenAddr = "0.0.0.0:21"
	}

	if settings.IdleTimeout == 0 {
		settings.IdleTimeout = 900
	}

	if settings.ConnectionTimeout == 0 {
		settings.ConnectionTimeout = 30
	}

	if settings.Banner == "" {
		settings.Banner = "REEFS\n(Rather Eerie Example of FTP Server)\nEnd of MOTD"
	}

	server.settings = settings
	server.rootDir = settings.RootDir

	return nil
}

// Listen starts the listening. It's not a blocking call.
func (server *FtpServer) Listen() error {
	if err := server.loadSettings(); err != nil {
		return fmt.Errorf("could not load settings: %w", err)
	}

	listener, err := server.createListener()
	if err != nil {
		return fmt.Errorf("could not create listener: %w", err)
	}

	server.listener = listener
	server.Logger.Info("Listening...", "address", server.listener.Addr())

	return nil
}

func (server *FtpServer) createListener() (net.Listener, error) {
	lc := net.ListenConfig{Control: Control}

	listener, err := lc.Listen(context.Background(), "tcp", server.settings.ListenAddr)
	if err != nil {
		server.Logger.Error("cannot listen on main port", "err", err, "listenAddr", server.settings.ListenAddr)

		return nil, newNetworkError("cannot listen on main port", err)
	}

	return listener, nil
}

// Serve accepts and processes any new incoming client.
func (server *FtpServer) Serve() error {
	var tempDelay time.Duration

	for {
		connection, err := server.listener.Accept()
		if err != nil {
			if ok, finalErr := server.handleAcceptError(err, &tempDelay); ok {
				return finalErr
			}

			continue
		}

		tempDelay = 0

		server.clientArrival(connection)
	}
}

// handleAcceptError reports whether the accept loop should stop, and the
// error to return if so. Temporary errors are retried with truncated
// exponential backoff; a closed listener is a clean shutdown, not a process
// fatal error.
func (server *FtpServer) handleAcceptError(err error, tempDelay *time.Duration) (bool, error) {
	if errOp := (&net.OpError{}); errors.As(err, &errOp) {
		if errOp.Err.Error() == "use of closed network connection" {
			server.listener = nil

			return true, nil
		}
	}

	var ne net.Error
	if errors.As(err, &ne) && temporaryError(ne) {
		if *tempDelay == 0 {
			*tempDelay = 5 * time.Millisecond
		} else {
			*tempDelay *= 2
		}

		if max := 1 * time.Second; *tempDelay > max {
			*tempDelay = max
		}

		server.Logger.Warn("accept error, retrying", "err", err, "delay", *tempDelay)
		time.Sleep(*tempDelay)

		return false, nil
	}

	server.Logger.Error("listener accept error, stopping", "err", err)

	return true, newNetworkError("listener accept error", err)
}

// ListenAndServe simply chains the Listen and Serve method calls.
func (server *FtpServer) ListenAndServe() error {
	if err := server.Listen(); err != nil {
		return err
	}

	server.Logger.Info("Starting...")

	return server.Serve()
}

// NewFtpServer creates a new FtpServer instance.
func NewFtpServer(driver MainDriver, shuttingDown *atomic.Bool) *FtpServer {
	return &FtpServer{
		driver:       driver,
		Logger:       lognoop.NewNoOpLogger(),
		shuttingDown: shuttingDown,
	}
}

// Addr shows the listening address.
func (server *FtpServer) Addr() string {
	if server.listener != nil {
		return server.listener.Addr().String()
	}

	return ""
}

// Stop closes the listener.
func (server *FtpServer) Stop() error {
	if server.listener == nil {
		return ErrNotListening
	}

	if err := server.listener.Close(); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return ErrNotListening
		}

		server.Logger.Warn("Could not close listener", "err", err)

		return newNetworkError("couldn't close listener", err)
	}

	return nil
}

// clientArrival accepts a new client, enforcing the advisory MaxClients
// ceiling with a 421 reply rather than silently dropping the connection.
func (server *FtpServer) clientArrival(conn net.Conn) {
	if server.settings.MaxClients > 0 && atomic.LoadInt32(&server.clientCount) >= int32(server.settings.MaxClients) {
		server.Logger.Warn("Too many clients, rejecting", "remoteAddr", conn.RemoteAddr())

		reply := encodeReply(StatusServiceNotAvailable, "Too many connections, try again later.")
		_, _ = conn.Write(reply)
		_ = conn.Close()

		return
	}

	atomic.AddInt32(&server.clientCount, 1)

	id := atomic.AddUint32(&server.clientCounter, 1)

	c := server.newClientHandler(conn, id)
	c.logger.Debug("Client connected", "clientIp", conn.RemoteAddr())

	go c.HandleCommands()
}

// clientDeparture releases the slot a client's arrival reserved against
// MaxClients. The acceptor does not otherwise retain per-session state.
func (server *FtpServer) clientDeparture(c *clientHandler) {
	atomic.AddInt32(&server.clientCount, -1)
	c.logger.Debug("Client disconnected", "clientIp", c.conn.RemoteAddr())
}

func temporaryError(err net.Error) bool {
	type temporary interface {
		Temporary() bool
	}

	if t, ok := err.(temporary); ok {
		return t.Temporary()
	}

	return false
}
