// Package ftpserver provides all the tools to build your own FTP server: The core library and the driver.
package ftpserver

import (
	"bufio"
	"fmt"
	"strings"
)

// messageLines splits a reply body on its newlines, discarding a
// trailing blank line so callers can pass either a bare string or one
// built with fmt.Sprintf("...\n...").
func messageLines(message string) []string {
	lines := make([]string, 0, 1)
	sc := bufio.NewScanner(strings.NewReader(message))

	for sc.Scan() {
		lines = append(lines, sc.Text())
	}

	if len(lines) == 0 {
		lines = append(lines, "")
	}

	return lines
}

// encodeReply renders a three-digit reply code and a one-or-more-line
// body into the exact wire framing RFC 959 requires: a single-line
// body becomes "CCC B\r\n"; an N-line body opens with "CCC-L1\r\n",
// continues with " L2\r\n" ... " L(N-1)\r\n" and closes with
// "CCC LN\r\n". Generalized out of clientHandler.writeMessage/writeLine
// so the framing can be exercised without a socket.
func encodeReply(code int, message string) []byte {
	lines := messageLines(message)

	var b strings.Builder

	for idx, line := range lines {
		switch {
		case idx == len(lines)-1:
			fmt.Fprintf(&b, "%d %s\r\n", code, line)
		case idx == 0:
			fmt.Fprintf(&b, "%d-%s\r\n", code, line)
		default:
			fmt.Fprintf(&b, " %s\r\n", line)
		}
	}

	return []byte(b.String())
}

func (c *clientHandler) writeLine(line string) {
	if c.debug {
		c.logger.Debug("Sending answer", "line", line)
	}

	if _, err := c.writer.WriteString(fmt.Sprintf("%s\r\n", line)); err != nil {
		c.logger.Warn(
			"Answer couldn't be sent",
			"line", line,
			"err", err,
		)

		c.SetTerminated(true)
	}

	if err := c.writer.Flush(); err != nil {
		c.logger.Warn(
			"Couldn't flush line",
			"err", err,
		)

		c.SetTerminated(true)
	}
}

func (c *clientHandler) writeMessage(code int, message string) {
	lines := messageLines(message)

	for idx, line := range lines {
		switch {
		case idx == len(lines)-1:
			c.writeLine(fmt.Sprintf("%d %s", code, line))
		case idx == 0:
			c.writeLine(fmt.Sprintf("%d-%s", code, line))
		default:
			c.writeLine(" " + line)
		}
	}

	c.logger.Debug("reply sent", "code", code, "body", message)
}

func parseLine(line string) (string, string) {
	params := strings.SplitN(strings.Trim(line, "\r\n"), " ", 2)
	if len(params) == 1 {
		return params[0], ""
	}

	return params[0], params[1]
}
