package pairing

import (
	"bufio"
	"context"
	"fmt"
	"net"

	"github.com/atvremote/atvremote-go/pkg/wire"
)

// frameReader incrementally extracts length-prefixed messages from a
// connection, buffering partial reads the way the wire frame format
// requires.
type frameReader struct {
	r   *bufio.Reader
	buf []byte
}

func newFrameReader(conn net.Conn) *frameReader {
	return &frameReader{r: bufio.NewReader(conn)}
}

// readOne blocks until one complete frame's payload is available,
// reading additional bytes from the connection as needed.
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
			return nil, fmt.Errorf("pairing: read frame: %w", err)
		}
	}
}

// readOneWithContext runs readOne on a goroutine so ctx cancellation
// (used by cancel() and the 10-second wait ceiling) can interrupt a
// blocked read without requiring net.Conn itself to support contexts.
func (f *frameReader) readOneWithContext(ctx context.Context) ([]byte, error) {
	type result struct {
		payload []byte
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		payload, err := f.readOne()
		ch <- result{payload, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.payload, r.err
	}
}

// writeFrame frames payload and writes it to conn.
func writeFrame(conn net.Conn, payload []byte) error {
	_, err := conn.Write(wire.Frame(payload))
	if err != nil {
		return fmt.Errorf("pairing: write frame: %w", err)
	}
	return nil
}
