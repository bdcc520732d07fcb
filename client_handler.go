// Package ftpserver provides all the tools to build your own FTP server: The core library and the driver.
package ftpserver

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/reefs-ftp/reefs/log"
)

// TransferType is the enumerable that represents the supported transfer types
type TransferType int

// Supported transfer types
const (
	TransferTypeBinary TransferType = iota
	TransferTypeASCII
)

// dataConnState is the sum type described by the session state machine:
// a data connection is either absent, armed by PASV and awaiting an
// accept, or established for the duration of one transfer.
type dataConnState int

const (
	dataConnNone dataConnState = iota
	dataConnPending
	dataConnEstablished
)

// nolint: maligned
type clientHandler struct {
	id          uint32        // ID of the client
	server      *FtpServer    // Server on which the connection was accepted
	driver      ClientDriver  // Client handling driver, set after a successful PASS
	conn        net.Conn      // TCP connection
	writer      *bufio.Writer // Writer on the TCP connection
	reader      *bufio.Reader // Reader on the TCP connection
	connectedAt time.Time     // Date of connection
	logger      log.Logger    // Client handler logging

	paramsMutex  sync.RWMutex // protects every field below this point
	debug        bool         // show debugging info on the server side
	login        string       // last value supplied by USER
	loggedIn     bool         // becomes true only after a matching PASS
	currentDir   string       // absolute path, always a descendant of root_dir
	transferType TransferType // current TYPE
	lastCmd      string       // verb of the most recently completed command
	lastCmdParam string       // argument of the most recently completed command
	terminated   bool         // ends the worker loop

	dataMu       sync.Mutex // protects the four fields below
	dataState    dataConnState
	dataListener net.Listener
	dataPort     int
	dataConn     net.Conn
}

// newClientHandler initializes a client handler when someone connects
func (server *FtpServer) newClientHandler(connection net.Conn, id uint32) *clientHandler {
	return &clientHandler{
		server:       server,
		conn:         connection,
		id:           id,
		writer:       bufio.NewWriter(connection),
		reader:       bufio.NewReader(connection),
		connectedAt:  time.Now().UTC(),
		currentDir:   server.rootDir,
		transferType: server.settings.DefaultTransferType,
		logger:       server.Logger.With("clientId", id),
	}
}

func (c *clientHandler) disconnect() {
	if err := c.conn.Close(); err != nil {
		c.logger.Warn("Problem disconnecting a client", "err", err)
	}
}

// Path returns the client-visible current directory, e.g. "/" or "/sub".
func (c *clientHandler) Path() string {
	c.paramsMutex.RLock()
	defer c.paramsMutex.RUnlock()

	return display(c.server.rootDir, c.currentDir)
}

// CurrentDir returns the absolute, sandboxed current directory.
func (c *clientHandler) CurrentDir() string {
	c.paramsMutex.RLock()
	defer c.paramsMutex.RUnlock()

	return c.currentDir
}

// SetCurrentDir changes the current working directory. value must already
// have been validated by resolve.
func (c *clientHandler) SetCurrentDir(value string) {
	c.paramsMutex.Lock()
	defer c.paramsMutex.Unlock()

	c.currentDir = value
}

func (c *clientHandler) Login() string {
	c.paramsMutex.RLock()
	defer c.paramsMutex.RUnlock()

	return c.login
}

func (c *clientHandler) setLogin(value string) {
	c.paramsMutex.Lock()
	defer c.paramsMutex.Unlock()

	c.login = value
	c.loggedIn = false
}

func (c *clientHandler) isLoggedIn() bool {
	c.paramsMutex.RLock()
	defer c.paramsMutex.RUnlock()

	return c.loggedIn
}

func (c *clientHandler) setLoggedIn(value bool) {
	c.paramsMutex.Lock()
	defer c.paramsMutex.Unlock()

	c.loggedIn = value
}

// ID provides the client's ID
func (c *clientHandler) ID() uint32 {
	return c.id
}

// RemoteAddr returns the remote network address.
func (c *clientHandler) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// LocalAddr returns the local network address.
func (c *clientHandler) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// GetLastCommand returns the last received command verb
func (c *clientHandler) GetLastCommand() string {
	c.paramsMutex.RLock()
	defer c.paramsMutex.RUnlock()

	return c.lastCmd
}

func (c *clientHandler) setLastCommand(cmd, param string) {
	c.paramsMutex.Lock()
	defer c.paramsMutex.Unlock()

	c.lastCmd = cmd
	c.lastCmdParam = param
}

// renameFrom returns the argument of an immediately preceding RNFR, or ""
// if the last completed command was not RNFR.
func (c *clientHandler) renameFrom() (string, bool) {
	c.paramsMutex.RLock()
	defer c.paramsMutex.RUnlock()

	if c.lastCmd != "RNFR" {
		return "", false
	}

	return c.lastCmdParam, true
}

// TransferType returns the session's current TYPE setting.
func (c *clientHandler) TransferType() TransferType {
	c.paramsMutex.RLock()
	defer c.paramsMutex.RUnlock()

	return c.transferType
}

// SetTransferType changes the session's TYPE setting. The server is
// transparent in either mode; only the reply text and the 150 banner
// differ, since ASCII-mode translation is not performed.
func (c *clientHandler) SetTransferType(value TransferType) {
	c.paramsMutex.Lock()
	defer c.paramsMutex.Unlock()

	c.transferType = value
}

func (c *clientHandler) isTerminated() bool {
	c.paramsMutex.RLock()
	defer c.paramsMutex.RUnlock()

	return c.terminated
}

// SetTerminated marks the session as ended; the worker loop exits at its
// next safe point. Set by QUIT, a broken control/data write, or the
// server-wide shutdown flag.
func (c *clientHandler) SetTerminated(value bool) {
	c.paramsMutex.Lock()
	defer c.paramsMutex.Unlock()

	c.terminated = value
}

// Close closes the active data connection, if any, and the control
// connection.
func (c *clientHandler) Close() error {
	c.SetTerminated(true)
	c.closeDataConn()

	return c.conn.Close()
}

func (c *clientHandler) end() {
	c.server.driver.ClientDisconnected(c)
	c.server.clientDeparture(c)
	c.closeDataConn()
	c.disconnect()
}

// HandleCommands reads the stream of commands. One clientHandler is run by
// exactly one goroutine for its whole life; no field above is ever touched
// concurrently by two goroutines except through the mutexes declared above.
func (c *clientHandler) HandleCommands() {
	defer c.end()

	if msg, err := c.server.driver.ClientConnected(c); err == nil {
		c.writeMessage(StatusSystemStatus, msg)
	} else {
		c.writeMessage(StatusSyntaxErrorNotRecognised, msg)

		return
	}

	for {
		if c.server.shuttingDown.Load() {
			c.logger.Info("Shutting down, closing client")

			return
		}

		if c.isTerminated() {
			return
		}

		if c.server.settings.IdleTimeout > 0 {
			deadline := time.Now().Add(time.Duration(c.server.settings.IdleTimeout) * time.Second)
			if err := c.conn.SetReadDeadline(deadline); err != nil {
				c.logger.Error("Could not set idle deadline", "err", err)
			}
		}

		line, err := c.reader.ReadString('\n')
		if err != nil {
			c.handleCommandsStreamError(err)

			return
		}

		if c.debug {
			c.logger.Debug("Received line", "line", line)
		}

		c.handleCommand(line)

		if c.isTerminated() {
			return
		}
	}
}

func (c *clientHandler) handleCommandsStreamError(err error) {
	var netErr net.Error
	if ok := asNetError(err, &netErr); ok && netErr.Timeout() {
		c.logger.Info("Client idle timeout", "err", err)
		c.writeMessage(StatusServiceNotAvailable,
			fmt.Sprintf("command timeout (%d seconds): closing control connection", c.server.settings.IdleTimeout))

		if err := c.writer.Flush(); err != nil {
			c.logger.Error("Flush error", "err", err)
		}

		c.SetTerminated(true)

		return
	}

	if err == io.EOF {
		if c.debug {
			c.logger.Debug("Client disconnected", "clean", false)
		}
	} else {
		c.logger.Error("Read error", "err", err)
	}

	c.SetTerminated(true)
}

func asNetError(err error, target *net.Error) bool {
	if ne, ok := err.(net.Error); ok {
		*target = ne

		return true
	}

	return false
}

// handleCommand takes care of executing the received line
func (c *clientHandler) handleCommand(line string) {
	command, param := parseLine(line)
	command = strings.ToUpper(command)

	cmdDesc := commandsMap[command]
	if cmdDesc == nil {
		c.writeMessage(StatusSyntaxErrorNotRecognised, fmt.Sprintf("Unknown command %#v", command))

		return
	}

	if !c.isLoggedIn() && !cmdDesc.Open {
		c.writeMessage(StatusNotLoggedIn, "Please login with USER and PASS")

		return
	}

	c.executeCommandFn(cmdDesc, command, param)
	c.setLastCommand(command, param)
}

func (c *clientHandler) executeCommandFn(cmdDesc *CommandDescription, command, param string) {
	defer func() {
		if r := recover(); r != nil {
			c.writeMessage(StatusSyntaxErrorNotRecognised, fmt.Sprintf("Unhandled internal error: %s", r))
			c.logger.Warn("Internal command handling error", "err", r, "command", command, "param", param)
			c.SetTerminated(true)
		}
	}()

	if err := cmdDesc.Fn(c, param); err != nil {
		c.writeMessage(StatusSyntaxErrorNotRecognised, fmt.Sprintf("Error: %s", err))
	}
}
