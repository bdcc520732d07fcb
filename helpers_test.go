package ftpserver

import (
	"testing"

	"github.com/secsy/goftp"
	"github.com/stretchr/testify/require"
)

// newClientWithRawConn starts a test server, logs a client in and returns
// a raw connection so individual commands and replies can be driven and
// inspected directly.
func newClientWithRawConn(t *testing.T) goftp.RawConn {
	t.Helper()

	return newClientWithRawConnAndSettings(t, nil)
}

// newClientWithRawConnAndSettings is the same as newClientWithRawConn but
// lets the caller override the server's settings (e.g. IdleTimeout).
func newClientWithRawConnAndSettings(t *testing.T, settings *Settings) goftp.RawConn {
	t.Helper()

	server := NewTestServerWithTestDriver(t, &TestServerDriver{Settings: settings})

	conf := goftp.Config{
		User:     authUser,
		Password: authPass,
	}

	client, err := goftp.DialConfig(conf, server.Addr())
	require.NoError(t, err, "Couldn't connect")

	t.Cleanup(func() { panicOnError(client.Close()) })

	raw, err := client.OpenRawConn()
	require.NoError(t, err, "Couldn't open raw connection")

	t.Cleanup(func() { require.NoError(t, raw.Close()) })

	return raw
}

func sendAndCheck(t *testing.T, raw goftp.RawConn, cmd string, expected int) string {
	t.Helper()

	code, msg, err := raw.SendCommand(cmd)
	require.NoError(t, err)
	require.Equal(t, expected, code)

	return msg
}
