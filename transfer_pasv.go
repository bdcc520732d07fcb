// Package ftpserver provides all the tools to build your own FTP server: The core library and the driver.
package ftpserver

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"time"
)

// defaultPassivePortRange is used when the driver's settings don't specify
// one: a random start in [10384, 65535], per the port search algorithm.
var defaultPassivePortRange = &PortRange{Start: 10384, End: 65535} //nolint:gochecknoglobals

// errNoAvailableListeningPort is returned when no port could be bound for
// the passive listener within the bounded number of attempts.
var errNoAvailableListeningPort = errors.New("could not find any port to listen on")

// findPassiveListener implements the bounded, randomized linear probe: a
// random starting point within the range, then consecutive ports upward
// (wrapping back to the start of the range), nbAttempts ports in total,
// retrying on any bind failure rather than only EADDRINUSE (open
// question 5).
func findPassiveListener(portRange *PortRange) (*net.TCPListener, error) {
	nbAttempts := portRange.End - portRange.Start
	if nbAttempts < 10 {
		nbAttempts = 10
	} else if nbAttempts > 1000 {
		nbAttempts = 1000
	}

	span := portRange.End - portRange.Start + 1
	start := rand.Intn(span) //nolint:gosec

	for i := 0; i < nbAttempts; i++ {
		port := portRange.Start + (start+i)%span

		laddr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort("0.0.0.0", strconv.Itoa(port)))
		if err != nil {
			return nil, fmt.Errorf("could not resolve port %d: %w", port, err)
		}

		listener, err := net.ListenTCP("tcp", laddr)
		if err == nil {
			return listener, nil
		}
	}

	return nil, errNoAvailableListeningPort
}

// handlePASV arms passive mode: binds an ephemeral listening port and
// reports its address to the client, taken from the control connection's
// local address, not the peer's.
func (c *clientHandler) handlePASV(_ string) error {
	portRange := c.server.settings.PassiveTransferPortRange
	if portRange == nil {
		portRange = defaultPassivePortRange
	}

	listener, err := findPassiveListener(portRange)
	if err != nil {
		c.logger.Error("Could not listen for passive connection", "err", err)
		c.writeMessage(StatusSyntaxErrorNotRecognised, "Switching to Passive Mode failed.")

		return nil
	}

	port := listener.Addr().(*net.TCPAddr).Port

	host, _, err := net.SplitHostPort(c.conn.LocalAddr().String())
	if err != nil {
		host = c.conn.LocalAddr().String()
	}

	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		c.writeMessage(StatusSyntaxErrorNotRecognised, "Switching to Passive Mode failed.")
		_ = listener.Close()

		return nil
	}

	quads := strings.Split(ip.To4().String(), ".")

	c.dataMu.Lock()
	if c.dataListener != nil {
		if errClose := c.dataListener.Close(); errClose != nil {
			c.logger.Warn("Problem closing previous passive listener", "err", errClose)
		}
	}
	c.dataListener = listener
	c.dataPort = port
	c.dataState = dataConnPending
	c.dataMu.Unlock()

	p1, p2 := port/256, port%256
	c.writeMessage(StatusEnteringPASV,
		fmt.Sprintf("Entering Passive Mode (%s,%s,%s,%s,%d,%d)", quads[0], quads[1], quads[2], quads[3], p1, p2))

	return nil
}

// openDataConn implements open(session): it blocks on accept if a listener
// is pending, reports 425 if no PASV preceded the call, and otherwise fails
// (active mode is unsupported). Accepts are retried on signal interrupts
// by the Go runtime's net poller, which never surfaces EINTR to callers.
func (c *clientHandler) openDataConn() (net.Conn, error) {
	c.dataMu.Lock()
	state := c.dataState
	listener := c.dataListener
	c.dataMu.Unlock()

	switch state {
	case dataConnNone:
		c.writeMessage(StatusCannotOpenDataConnection, "Use PORT or PASV first.")

		return nil, errNoTransferConnection
	case dataConnEstablished:
		return nil, errNoTransferConnection
	case dataConnPending:
		timeout := time.Duration(c.server.settings.ConnectionTimeout) * time.Second
		if err := listener.(*net.TCPListener).SetDeadline(time.Now().Add(timeout)); err != nil {
			c.writeMessage(StatusCannotOpenDataConnection, "Failed to establish connection.")

			return nil, err
		}

		conn, err := listener.Accept()

		closeErr := listener.Close()

		if err != nil {
			c.dataMu.Lock()
			c.dataState = dataConnNone
			c.dataListener = nil
			c.dataMu.Unlock()

			c.writeMessage(StatusCannotOpenDataConnection, "Failed to establish connection.")

			return nil, err
		}

		if closeErr != nil {
			c.logger.Warn("Problem closing passive listener after accept", "err", closeErr)
		}

		c.dataMu.Lock()
		c.dataListener = nil
		c.dataConn = conn
		c.dataState = dataConnEstablished
		c.dataMu.Unlock()

		return conn, nil
	default:
		return nil, errNoTransferConnection
	}
}

// closeDataConn implements close(session): half-shutdown in both
// directions, close, return to dataConnNone. Idempotent.
func (c *clientHandler) closeDataConn() {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()

	if c.dataListener != nil {
		if err := c.dataListener.Close(); err != nil {
			c.logger.Warn("Problem closing passive listener", "err", err)
		}

		c.dataListener = nil
	}

	if c.dataConn != nil {
		if tcpConn, ok := c.dataConn.(*net.TCPConn); ok {
			_ = tcpConn.CloseRead()
			_ = tcpConn.CloseWrite()
		}

		if err := c.dataConn.Close(); err != nil {
			c.logger.Warn("Problem closing data connection", "err", err)
		}

		c.dataConn = nil
	}

	c.dataState = dataConnNone
}

var errNoTransferConnection = errors.New("unable to open transfer: no transfer connection")
