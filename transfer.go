// Package ftpserver provides all the tools to build your own FTP server: The core library and the driver.
package ftpserver

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// transferBufferSize is the buffer size used for data-connection copies.
const transferBufferSize = 8 * 1024

// doTransfer drives the data-connection lifecycle common to every
// data-bearing command: accept the pending passive connection,
// send the preliminary 150 only once it is established, run fn against
// the open stream, close the data connection, then send the terminal
// 226 or 550. The 150/226/550 ordering is invariant regardless of which
// command called it.
func (c *clientHandler) doTransfer(info string, fn func(net.Conn) error) error {
	conn, err := c.openDataConn()
	if err != nil {
		return nil // a reply (425 or similar) has already been sent
	}

	c.writeMessage(StatusFileStatusOK, info)

	transferErr := fn(conn)

	c.closeDataConn()

	if transferErr != nil {
		c.writeMessage(StatusActionNotTaken, fmt.Sprintf("Transfer failed: %v", transferErr))

		if isBrokenConn(transferErr) {
			c.SetTerminated(true)
		}
	} else {
		c.writeMessage(StatusClosingDataConn, "Transfer complete.")
	}

	return nil
}

// isBrokenConn reports whether err is the kind of broken-pipe/connection-
// reset failure that should end the session quietly rather than being
// treated as a per-session fatal error.
func isBrokenConn(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}

// transferTypeName renders the session's current TYPE for use in the 150
// banner text ("BINARY" or "ASCII").
func (c *clientHandler) transferTypeName() string {
	if c.TransferType() == TransferTypeASCII {
		return "ASCII"
	}

	return "BINARY"
}

// copyStream moves bytes between dst and src using the suggested 8 KiB
// buffer, completing any partial write before resuming the read loop, the
// way io.CopyBuffer already guarantees. Broken pipes and connection resets
// surface as a plain error so the caller can send 550 and terminate the
// session; they are not otherwise distinguished from any other I/O error.
func copyStream(dst io.Writer, src io.Reader) error {
	buf := make([]byte, transferBufferSize)

	_, err := io.CopyBuffer(dst, src, buf)

	return err
}
