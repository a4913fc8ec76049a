package kioadapter

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayo-projects/gokio/pkg/kio"
)

func TestConnReaderWriterRoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	_, clientWriter := WrapConn(clientConn)
	serverReader, _ := WrapConn(serverConn)

	payload := strings.Repeat("r", 4096+37)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		src := kio.NewBuffer()
		_, _ = src.Write([]byte(payload))
		require.NoError(t, clientWriter.WriteFrom(src, int64(len(payload))))
		require.NoError(t, clientWriter.Close())
	}()

	dst := kio.NewBuffer()
	for int64(dst.Len()) < int64(len(payload)) {
		n, err := serverReader.ReadAtMostTo(dst, 4096)
		require.NoError(t, err)
		if n == -1 {
			break
		}
	}
	wg.Wait()

	got := make([]byte, dst.Len())
	_, _ = dst.Read(got)
	assert.Equal(t, payload, string(got))

	require.NoError(t, serverReader.Close())
}

func TestConnReaderEOFOnClosedPeer(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	serverReader, _ := WrapConn(serverConn)

	require.NoError(t, clientConn.Close())

	dst := kio.NewBuffer()
	n, err := serverReader.ReadAtMostTo(dst, 16)
	require.NoError(t, err)
	assert.EqualValues(t, -1, n)
	require.NoError(t, serverReader.Close())
}

func TestConnReaderSurfacesNonEOFReadError(t *testing.T) {
	_, serverConn := net.Pipe()
	serverReader, _ := WrapConn(serverConn)

	require.NoError(t, serverConn.SetReadDeadline(time.Now().Add(-time.Second)))

	dst := kio.NewBuffer()
	n, err := serverReader.ReadAtMostTo(dst, 16)
	require.Error(t, err)
	assert.EqualValues(t, 0, n)

	require.NoError(t, serverReader.Close())
}

func TestDialRetryFailsAfterExhaustingAttempts(t *testing.T) {
	// Port 0 never accepts; DialRetry should give up after the
	// configured attempt count rather than retrying forever.
	_, _, err := DialRetry(context.Background(), "tcp", "127.0.0.1:0", DialOptions{Attempts: 2})
	require.Error(t, err)
}
