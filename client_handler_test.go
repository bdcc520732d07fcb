package ftpserver

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestWelcomeBanner confirms the control connection gets a single 211
// banner line immediately on connect, before any command is sent.
func TestWelcomeBanner(t *testing.T) {
	driver := &TestServerDriver{}
	driver.Settings = &Settings{}

	s := NewTestServerWithTestDriver(t, driver)

	conn, err := net.DialTimeout("tcp", s.Addr(), 5*time.Second)
	require.NoError(t, err)

	defer func() { _ = conn.Close() }()

	reader := bufio.NewReader(conn)

	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "211 ")
}

// TestUnknownCommandGetsSyntaxError confirms a verb outside the trimmed
// command table replies 500 rather than being silently ignored.
func TestUnknownCommandGetsSyntaxError(t *testing.T) {
	raw := newClientWithRawConn(t)

	sendAndCheck(t, raw, "BOGUS", StatusSyntaxErrorNotRecognised)
}

// TestCommandsRequireLoginExceptOpenOnes confirms that a command outside
// the always-open set (USER/PASS/QUIT/FEAT/SYST) is rejected with 530
// before the client authenticates.
func TestCommandsRequireLoginExceptOpenOnes(t *testing.T) {
	s := NewTestServer(t, false)

	conn, err := net.DialTimeout("tcp", s.Addr(), 5*time.Second)
	require.NoError(t, err)

	defer func() { _ = conn.Close() }()

	reader := bufio.NewReader(conn)
	_, err = reader.ReadString('\n') // welcome
	require.NoError(t, err)

	_, err = conn.Write([]byte("PWD\r\n"))
	require.NoError(t, err)

	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "530 ")
}

// TestIdleTimeoutClosesControlConnection covers the idle-timeout tier:
// a client that sends nothing within IdleTimeout gets a 421 and the
// control connection is dropped.
func TestIdleTimeoutClosesControlConnection(t *testing.T) {
	driver := &TestServerDriver{Settings: &Settings{IdleTimeout: 1}}
	s := NewTestServerWithTestDriver(t, driver)

	conn, err := net.DialTimeout("tcp", s.Addr(), 5*time.Second)
	require.NoError(t, err)

	defer func() { _ = conn.Close() }()

	reader := bufio.NewReader(conn)
	_, err = reader.ReadString('\n') // welcome
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "421 ")
}
