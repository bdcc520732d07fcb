package ftpserver

import (
	"strings"
	"testing"

	"github.com/secsy/goftp"
	"github.com/stretchr/testify/require"
)

// TestRetrieveWithoutPasvFails confirms a data command issued with no
// established data connection replies 425 rather than hanging.
func TestRetrieveWithoutPasvFails(t *testing.T) {
	raw := newClientWithRawConn(t)

	sendAndCheck(t, raw, "RETR whatever.bin", StatusCannotOpenDataConnection)
}

// TestPasvReportsListenAddrQuads confirms the PASV reply carries a
// parenthesised h1,h2,h3,h4,p1,p2 tuple of exactly six fields.
func TestPasvReportsListenAddrQuads(t *testing.T) {
	raw := newClientWithRawConn(t)

	reply := sendAndCheck(t, raw, "PASV", StatusEnteringPASV)

	open := strings.Index(reply, "(")
	closeParen := strings.Index(reply, ")")
	require.Greater(t, closeParen, open)

	fields := strings.Split(reply[open+1:closeParen], ",")
	require.Len(t, fields, 6)
}

// TestListEmptyDirectory confirms LIST against an empty directory
// transfers zero bytes and still completes with 226.
func TestListEmptyDirectory(t *testing.T) {
	s := NewTestServer(t, false)

	conf := goftp.Config{User: authUser, Password: authPass}

	c, err := goftp.DialConfig(conf, s.Addr())
	require.NoError(t, err)

	defer func() { panicOnError(c.Close()) }()

	entries, err := c.ReadDir("/")
	require.NoError(t, err)
	require.Empty(t, entries)
}

// TestListShowsStoredFile confirms a file created by STOR subsequently
// appears in a directory listing.
func TestListShowsStoredFile(t *testing.T) {
	s := NewTestServer(t, false)

	conf := goftp.Config{User: authUser, Password: authPass}

	c, err := goftp.DialConfig(conf, s.Addr())
	require.NoError(t, err)

	defer func() { panicOnError(c.Close()) }()

	require.NoError(t, c.Store("listed.bin", strings.NewReader("content")))

	entries, err := c.ReadDir("/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "listed.bin", entries[0].Name())
	require.False(t, entries[0].IsDir())
}

// TestListShowsSubdirectory confirms directories created by MKD are
// distinguished from regular files in the listing.
func TestListShowsSubdirectory(t *testing.T) {
	s := NewTestServer(t, false)

	conf := goftp.Config{User: authUser, Password: authPass}

	c, err := goftp.DialConfig(conf, s.Addr())
	require.NoError(t, err)

	defer func() { panicOnError(c.Close()) }()

	_, err = c.Mkdir("adir")
	require.NoError(t, err)

	entries, err := c.ReadDir("/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].IsDir())
}

// TestSecondPasvReplacesFirst confirms PASV can be issued twice in a row
// and that a following RETR of a missing file still gets its 550 reply
// instead of hanging on either passive listener.
func TestSecondPasvReplacesFirst(t *testing.T) {
	raw := newClientWithRawConn(t)

	sendAndCheck(t, raw, "PASV", StatusEnteringPASV)
	sendAndCheck(t, raw, "PASV", StatusEnteringPASV)
	sendAndCheck(t, raw, "RETR whatever.bin", StatusActionNotTaken)
}
