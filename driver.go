// Package ftpserver provides all the tools to build your own FTP server: The core library and the driver.
package ftpserver

import (
	"net"

	"github.com/spf13/afero"
)

// This file is the driver part of the server. It must be implemented by anyone wanting to use the server.

// MainDriver handles the authentication and ClientDriver selection for a
// configured root directory and users set.
type MainDriver interface {
	// GetSettings returns some general settings around the server setup
	GetSettings() (*Settings, error)

	// ClientConnected is called to send the very first welcome message
	ClientConnected(cc ClientContext) (string, error)

	// ClientDisconnected is called when the user disconnects, even if they never authenticated
	ClientDisconnected(cc ClientContext)

	// AuthUser authenticates the user and returns the driver to use for file access
	AuthUser(cc ClientContext, user, pass string) (ClientDriver, error)
}

// ClientDriver is the sandboxed filesystem a successfully authenticated
// client operates against.
type ClientDriver interface {
	afero.Fs
}

// ClientDriverExtensionRemoveDir is an extension to implement if you need to
// distinguish between DELE (remove a file) and RMD (remove a directory). If
// you don't implement this extension both map to your afero.Fs Remove.
type ClientDriverExtensionRemoveDir interface {
	RemoveDir(name string) error
}

// ClientContext is implemented on the server side to provide access to a
// handful of read-only facts about a connected client.
type ClientContext interface {
	// Path provides the client-visible current directory of the connection
	Path() string

	// ID is the client's ID on the server
	ID() uint32

	// RemoteAddr is the client's address
	RemoteAddr() net.Addr

	// LocalAddr is the server's address as observed by this connection
	LocalAddr() net.Addr

	// Close closes the connection and disconnects the client
	Close() error

	// GetLastCommand returns the last received command verb
	GetLastCommand() string
}

// PortRange is an inclusive range of ports the passive-mode listener picks
// a random starting point within.
type PortRange struct {
	Start int
	End   int
}

// Settings defines all the server settings.
// nolint: maligned
type Settings struct {
	RootDir                  string       // Canonicalised absolute path; all client file operations are beneath it
	ListenAddr               string       // Listening address, e.g. "0.0.0.0:21"
	MaxClients               int          // Advisory ceiling on concurrent clients; 0 = unlimited
	PassiveTransferPortRange *PortRange   // Port range for PASV data connections; [10384,65535] if nil
	ConnectionTimeout        int          // Maximum time, in seconds, to establish a passive transfer connection
	IdleTimeout              int          // Maximum inactivity time, in seconds, before disconnecting
	Banner                   string       // MOTD banner text, defaulted by loadSettings; the welcome reply carries only the ClientConnected message, not this text
	DefaultTransferType      TransferType // Transfer type to use if the client never sends TYPE
}
