// Package ftpserver provides all the tools to build your own FTP server: The core library and the driver.
package ftpserver

import (
	"fmt"
	"net"
	"os"
)

// osCreateTrunc is the open flag set STOR uses: write-only, create if
// absent, truncate any existing content.
const osCreateTrunc = os.O_WRONLY | os.O_CREATE | os.O_TRUNC

// handleRETR streams an existing file to the client over the established
// data connection.
func (c *clientHandler) handleRETR(param string) error {
	c.dataMu.Lock()
	armed := c.dataState == dataConnPending
	c.dataMu.Unlock()

	if !armed {
		c.writeMessage(StatusCannotOpenDataConnection, "Use PORT or PASV first.")

		return nil
	}

	target, ok := c.absPath(param)
	if !ok {
		c.writeMessage(StatusActionNotTaken, "Failed to open file.")

		return nil
	}

	file, err := c.driver.Open(target)
	if err != nil {
		c.logger.Debug("RETR open failed", "err", newFileAccessError("open", err))
		c.writeMessage(StatusActionNotTaken, fmt.Sprintf("Could not open %s: %v", param, err))

		return nil
	}

	defer c.closeUnchecked(file)

	info := fmt.Sprintf("Opening %s mode data connection for %s.", c.transferTypeName(), param)

	return c.doTransfer(info, func(conn net.Conn) error {
		return copyStream(conn, file)
	})
}

// handleSTOR receives a file from the client, creating it with mode 0644
// (a created file has no business being executable by default) and
// truncating any existing content.
func (c *clientHandler) handleSTOR(param string) error {
	target, ok := c.absPath(param)
	if !ok {
		c.writeMessage(StatusActionNotTakenNoFile, "Failed to create file.")

		return nil
	}

	file, err := c.driver.OpenFile(target, osCreateTrunc, 0o644)
	if err != nil {
		c.writeMessage(StatusActionNotTakenNoFile, fmt.Sprintf("Could not create %s: %v", param, err))

		return nil
	}

	info := fmt.Sprintf("Opening %s mode data connection for %s.", c.transferTypeName(), param)

	return c.doTransfer(info, func(conn net.Conn) error {
		err := copyStream(file, conn)

		// the partial file is intentionally left on disk on error
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}

		return err
	})
}

// handleDELE removes a regular file; directories must go through RMD.
func (c *clientHandler) handleDELE(param string) error {
	target, ok := c.absPath(param)
	if !ok {
		c.writeMessage(StatusActionNotTaken, "Could not delete file.")

		return nil
	}

	info, err := c.driver.Stat(target)
	if err != nil {
		c.writeMessage(StatusActionNotTaken, fmt.Sprintf("Could not delete %s: %v", param, err))

		return nil
	}

	if info.IsDir() {
		c.writeMessage(StatusActionNotTaken, fmt.Sprintf("%s is a directory.", param))

		return nil
	}

	if err := c.driver.Remove(target); err != nil {
		c.writeMessage(StatusActionNotTaken, fmt.Sprintf("Could not delete %s: %v", param, err))

		return nil
	}

	c.writeMessage(StatusFileOK, fmt.Sprintf("Removed file %s", param))

	return nil
}

// handleRNFR verifies the rename source exists and records it as the
// pending RNFR; the actual rename happens on a RNTO that immediately
// follows, enforced by clientHandler.renameFrom.
func (c *clientHandler) handleRNFR(param string) error {
	target, ok := c.absPath(param)
	if !ok {
		c.writeMessage(StatusActionNotTaken, "Could not access file.")

		return nil
	}

	if _, err := c.driver.Stat(target); err != nil {
		c.writeMessage(StatusActionNotTaken, fmt.Sprintf("Could not access %s: %v", param, err))

		return nil
	}

	c.writeMessage(StatusFileActionPending, "Ready for RNTO.")

	return nil
}

// handleRNTO performs the rename, requiring that the immediately
// preceding command was a successful RNFR (P6).
func (c *clientHandler) handleRNTO(param string) error {
	src, ok := c.renameFrom()
	if !ok {
		c.writeMessage(StatusBadCommandSequence, "RNFR required first.")

		return nil
	}

	srcPath, okSrc := c.absPath(src)
	dstPath, okDst := c.absPath(param)

	if !okSrc || !okDst {
		c.writeMessage(StatusActionNotTaken, "Could not rename file.")

		return nil
	}

	if err := c.driver.Rename(srcPath, dstPath); err != nil {
		c.writeMessage(StatusActionNotTaken, fmt.Sprintf("Could not rename %s to %s: %v", src, param, err))

		return nil
	}

	c.writeMessage(StatusFileOK, "Rename successful.")

	return nil
}

func (c *clientHandler) closeUnchecked(file interface{ Close() error }) {
	if err := file.Close(); err != nil {
		c.logger.Warn("Problem closing a file", "err", err)
	}
}
