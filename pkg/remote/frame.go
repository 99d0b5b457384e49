package remote

import (
	"bufio"
	"fmt"
	"net"
	"sync"

	"github.com/atvremote/atvremote-go/pkg/wire"
)

// frameReader incrementally extracts length-prefixed RemoteMessage
// frames from the control connection.
type frameReader struct {
	r   *bufio.Reader
	buf []byte
}

func newFrameReader(conn net.Conn) *frameReader {
	return &frameReader{r: bufio.NewReader(conn)}
}

// readOne blocks until one complete frame's payload is available. It
// returns whatever error the underlying connection read produced,
// including the io.EOF/use-of-closed-connection errors that signal the
// peer, or Disconnect, tore the connection down.
func (f *frameReader) readOne() ([]byte, error) {
	for {
		if payload, n, ok := wire.ExtractMessage(f.buf); ok {
			f.buf = f.buf[n:]
			return payload, nil
		}
		chunk := make([]byte, 4096)
		n, err := f.r.Read(chunk)
		if n > 0 {
			f.buf = append(f.buf, chunk[:n]...)
		}
		if err != nil {
			return nil, err
		}
	}
}

// frameWriter serializes concurrent writes to the control connection:
// the receive loop's pong replies and the caller's SendCommand calls
// share one TLS connection.
type frameWriter struct {
	mu   sync.Mutex
	conn net.Conn
}

func (w *frameWriter) write(payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.conn.Write(wire.Frame(payload)); err != nil {
		return fmt.Errorf("remote: write frame: %w", err)
	}
	return nil
}
