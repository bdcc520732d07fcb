// Package ftpserver provides all the tools to build your own FTP server: The core library and the driver.
package ftpserver

// handleUSER stores the login and clears logged_in; it never fails on its
// own, matching the session's "last USER wins" semantics.
func (c *clientHandler) handleUSER(param string) error {
	c.setLogin(param)
	c.writeMessage(StatusUserOK, "Please specify the password.")

	return nil
}

// handlePASS validates the credential against the anonymous rule or the
// configured users set, and only then selects a ClientDriver.
func (c *clientHandler) handlePASS(param string) error {
	if c.Login() == "" {
		c.writeMessage(StatusBadCommandSequence, "Login with USER first.")

		return nil
	}

	driver, err := c.server.driver.AuthUser(c, c.Login(), param)
	if err != nil {
		c.logger.Debug("Authentication failed", "login", c.Login(), "err", err)
		c.writeMessage(StatusNotLoggedIn, "Login incorrect.")

		return nil
	}

	c.driver = driver
	c.setLoggedIn(true)
	c.writeMessage(StatusUserLoggedIn, "Login successful.")

	return nil
}
