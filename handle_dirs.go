// Package ftpserver provides all the tools to build your own FTP server: The core library and the driver.
package ftpserver

import (
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"
)

// absPath resolves a client-supplied argument against the session's
// current directory and the server root. ok is false if the resolution
// would escape the sandbox.
func (c *clientHandler) absPath(target string) (string, bool) {
	return resolve(c.server.rootDir, c.CurrentDir(), target)
}

// handleCWD changes the current directory. A bare ".." is routed to CDUP
// rather than resolved as a path component, so the tree stays
// read-descent only.
func (c *clientHandler) handleCWD(param string) error {
	if param == ".." {
		return c.handleCDUP(param)
	}

	target, ok := c.absPath(param)
	if !ok {
		c.writeMessage(StatusActionNotTaken, "Failed to change directory.")

		return nil
	}

	info, err := c.driver.Stat(target)
	if err != nil || !info.IsDir() {
		c.writeMessage(StatusActionNotTaken, "Failed to change directory.")

		return nil
	}

	c.SetCurrentDir(target)
	c.writeMessage(StatusFileOK, fmt.Sprintf("Directory changed to %s", display(c.server.rootDir, target)))

	return nil
}

// handleCDUP always fails: CDUP is unsupported.
func (c *clientHandler) handleCDUP(_ string) error {
	c.writeMessage(StatusActionNotTaken, "Operation not supported.")

	return nil
}

func (c *clientHandler) handlePWD(_ string) error {
	c.writeMessage(StatusPathCreated, fmt.Sprintf(`"%s"`, quoteDoubling(c.Path())))

	return nil
}

func (c *clientHandler) handleMKD(param string) error {
	target, ok := c.absPath(param)
	if !ok {
		c.writeMessage(StatusActionNotTaken, "Failed to create directory.")

		return nil
	}

	if err := c.driver.Mkdir(target, 0o755); err != nil {
		c.writeMessage(StatusActionNotTaken, fmt.Sprintf("Could not create %s: %v", param, err))

		return nil
	}

	c.writeMessage(StatusPathCreated, fmt.Sprintf(`"%s" created`, quoteDoubling(display(c.server.rootDir, target))))

	return nil
}

func (c *clientHandler) handleRMD(param string) error {
	target, ok := c.absPath(param)
	if !ok {
		c.writeMessage(StatusActionNotTaken, "Failed to remove directory.")

		return nil
	}

	var err error
	if rmd, isExt := c.driver.(ClientDriverExtensionRemoveDir); isExt {
		err = rmd.RemoveDir(target)
	} else {
		err = c.driver.Remove(target)
	}

	if err != nil {
		c.writeMessage(StatusActionNotTaken, fmt.Sprintf("Could not remove %s: %v", param, err))

		return nil
	}

	c.writeMessage(StatusFileOK, fmt.Sprintf("Removed directory %s", param))

	return nil
}

const (
	listDateRecent = "Jan _2 15:04"          // entries modified within the last 6 months
	listDateOld    = "Jan _2  2006"          // older entries show the year instead of the time
	listDateSwitch = time.Hour * 24 * 30 * 6 // 6 months, matching the ls(1) convention
)

// fileStat formats one entry of the conventional long listing: permission
// bits, a hardcoded link count and owner (the driver interface carries no
// uid/gid), size, modification time and name.
func (c *clientHandler) fileStat(file os.FileInfo) string {
	dateFormat := listDateRecent
	if time.Since(file.ModTime()) > listDateSwitch {
		dateFormat = listDateOld
	}

	return fmt.Sprintf(
		"%s 1 ftp ftp %12d %s %s",
		file.Mode(),
		file.Size(),
		file.ModTime().Format(dateFormat),
		file.Name(),
	)
}

// handleLIST streams the in-process long listing of the target directory.
// Formatting each entry in-process, rather than shelling out to an ls
// binary, closes the command-injection hazard a shell-out would carry.
func (c *clientHandler) handleLIST(param string) error {
	target, ok := c.absPath(param)
	if !ok {
		c.writeMessage(StatusActionNotTaken, "Could not list directory.")

		return nil
	}

	entries, err := c.readDirectory(target)
	if err != nil {
		c.writeMessage(StatusActionNotTaken, fmt.Sprintf("Could not list %s: %v", param, err))

		return nil
	}

	info := fmt.Sprintf("Opening %s mode data connection for file list.", c.transferTypeName())

	return c.doTransfer(info, func(conn net.Conn) error {
		return c.writeListing(conn, entries)
	})
}

func (c *clientHandler) readDirectory(path string) ([]os.FileInfo, error) {
	dir, err := c.driver.Open(path)
	if err != nil {
		return nil, err
	}

	defer func() {
		if errClose := dir.Close(); errClose != nil {
			c.logger.Warn("Couldn't close directory", "err", errClose, "directory", path)
		}
	}()

	return dir.Readdir(-1)
}

func (c *clientHandler) writeListing(w io.Writer, files []os.FileInfo) error {
	for _, file := range files {
		if _, err := fmt.Fprintf(w, "%s\r\n", c.fileStat(file)); err != nil {
			return err
		}
	}

	return nil
}

// quoteDoubling applies RFC 959's quote-doubling rule (p. 63) to a
// double-quoted reply body.
func quoteDoubling(s string) string {
	if !strings.Contains(s, `"`) {
		return s
	}

	return strings.ReplaceAll(s, `"`, `""`)
}
