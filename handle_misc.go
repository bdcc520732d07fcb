// Package ftpserver provides all the tools to build your own FTP server: The core library and the driver.
package ftpserver

import "strings"

func (c *clientHandler) handleFEAT(_ string) error {
	c.writeMessage(StatusSystemStatus, "Features:\nPASV\nEnd")

	return nil
}

func (c *clientHandler) handleSYST(_ string) error {
	c.writeMessage(StatusSystemType, "UNIX Type: L8")

	return nil
}

// handleTYPE toggles the stored transfer type. The server is transparent
// in either mode: no ASCII line translation is performed.
func (c *clientHandler) handleTYPE(param string) error {
	switch strings.ToUpper(strings.TrimSpace(param)) {
	case "I":
		c.SetTransferType(TransferTypeBinary)
		c.writeMessage(StatusOK, "Switching to Binary mode.")
	case "A":
		c.SetTransferType(TransferTypeASCII)
		c.writeMessage(StatusOK, "Switching to ASCII mode.")
	default:
		c.writeMessage(StatusSyntaxErrorNotRecognised, "Unsupported type.")
	}

	return nil
}

// handleQUIT marks the session terminated; the worker loop exits at its
// next safe point and the deferred end() in HandleCommands closes the
// control connection.
func (c *clientHandler) handleQUIT(_ string) error {
	c.writeMessage(StatusClosingControlConn, "Goodbye.")
	c.SetTerminated(true)

	return nil
}
