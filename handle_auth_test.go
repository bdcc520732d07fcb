package ftpserver

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/secsy/goftp"
	"github.com/stretchr/testify/require"
)

// rawControlConn dials the control port directly, without authenticating,
// and discards the welcome banner so the test can drive login by hand.
func rawControlConn(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	require.NoError(t, err)

	t.Cleanup(func() { _ = conn.Close() })

	reader := bufio.NewReader(conn)

	_, err = reader.ReadString('\n') // welcome banner
	require.NoError(t, err)

	return conn, reader
}

func sendLine(t *testing.T, conn net.Conn, reader *bufio.Reader, line string) string {
	t.Helper()

	_, err := conn.Write([]byte(line + "\r\n"))
	require.NoError(t, err)

	reply, err := reader.ReadString('\n')
	require.NoError(t, err)

	return reply
}

// TestPassWithoutUserIsRejected covers the "PASS before USER" sequencing
// error: it must fail with 503, not be treated as an anonymous login
// attempt.
func TestPassWithoutUserIsRejected(t *testing.T) {
	s := NewTestServer(t, false)
	conn, reader := rawControlConn(t, s.Addr())

	reply := sendLine(t, conn, reader, "PASS whatever")
	require.Contains(t, reply, "503 ")
}

// TestUserAlwaysAcceptedPassDecides confirms USER never itself fails: the
// credential check only happens on PASS.
func TestUserAlwaysAcceptedPassDecides(t *testing.T) {
	s := NewTestServer(t, false)
	conn, reader := rawControlConn(t, s.Addr())

	reply := sendLine(t, conn, reader, "USER anyone-at-all")
	require.Contains(t, reply, "331 ")

	reply = sendLine(t, conn, reader, "PASS wrong")
	require.Contains(t, reply, "530 ")
}

// TestLoginSuccess verifies that a correct USER/PASS pair is accepted
// and grants access to the root directory.
func TestLoginSuccess(t *testing.T) {
	s := NewTestServer(t, false)

	conf := goftp.Config{
		User:     authUser,
		Password: authPass,
	}

	c, err := goftp.DialConfig(conf, s.Addr())
	require.NoError(t, err, "Couldn't connect")

	defer func() { panicOnError(c.Close()) }()

	_, err = c.ReadDir("/")
	require.NoError(t, err)
}

// TestLoginBadPassword verifies that the right user with the wrong
// password must be refused with 530.
func TestLoginBadPassword(t *testing.T) {
	s := NewTestServer(t, false)
	conn, reader := rawControlConn(t, s.Addr())

	reply := sendLine(t, conn, reader, "USER "+authUser)
	require.Contains(t, reply, "331 ")

	reply = sendLine(t, conn, reader, "PASS not-the-password")
	require.Contains(t, reply, "530 ")
}

// TestAnonymousLoginAcceptsAnyAtPassword confirms the anonymous/ftp login
// rule: any password containing "@" is accepted for "anonymous" or "ftp".
func TestAnonymousLoginAcceptsAnyAtPassword(t *testing.T) {
	s := NewTestServer(t, false)
	conn, reader := rawControlConn(t, s.Addr())

	reply := sendLine(t, conn, reader, "USER ftp")
	require.Contains(t, reply, "331 ")

	reply = sendLine(t, conn, reader, "PASS nobody@example.org")
	require.Contains(t, reply, "230 ")
}

// TestAnonymousLoginRejectsPasswordWithoutAtSign confirms the "@" rule is
// enforced, not merely any non-empty password for the anonymous account.
func TestAnonymousLoginRejectsPasswordWithoutAtSign(t *testing.T) {
	s := NewTestServer(t, false)
	conn, reader := rawControlConn(t, s.Addr())

	reply := sendLine(t, conn, reader, "USER anonymous")
	require.Contains(t, reply, "331 ")

	reply = sendLine(t, conn, reader, "PASS no-at-sign")
	require.Contains(t, reply, "530 ")
}
