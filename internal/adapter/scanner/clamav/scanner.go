// Package clamav adapts a clamd daemon to the security scanner port using
// the INSTREAM protocol over TCP.
package clamav

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"strings"

	"github.com/croftbox/vidpipe/internal/port"
)

// chunkSize is the INSTREAM chunk payload size; clamd's default stream
// buffer tolerates far larger, this keeps memory bounded.
const chunkSize = 64 << 10

type Scanner struct {
	addr   string
	dialer net.Dialer
}

func NewScanner(addr string) *Scanner {
	return &Scanner{addr: addr}
}

// Scan streams the buffer to clamd and interprets its verdict. Any
// transport or protocol failure is returned as an error; the pipeline
// treats those as unsafe (fail closed). Deadlines come from ctx.
func (s *Scanner) Scan(ctx context.Context, data []byte) (port.ScanResult, error) {
	conn, err := s.dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return port.ScanResult{}, fmt.Errorf("dial clamd: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return port.ScanResult{}, fmt.Errorf("set deadline: %w", err)
		}
	}

	if _, err := conn.Write([]byte("zINSTREAM\x00")); err != nil {
		return port.ScanResult{}, fmt.Errorf("send INSTREAM: %w", err)
	}

	var sizeBuf [4]byte
	for off := 0; off < len(data); off += chunkSize {
		end := min(off+chunkSize, len(data))
		binary.BigEndian.PutUint32(sizeBuf[:], uint32(end-off))
		if _, err := conn.Write(sizeBuf[:]); err != nil {
			return port.ScanResult{}, fmt.Errorf("send chunk header: %w", err)
		}
		if _, err := conn.Write(data[off:end]); err != nil {
			return port.ScanResult{}, fmt.Errorf("send chunk: %w", err)
		}
	}
	// Zero-length chunk terminates the stream.
	binary.BigEndian.PutUint32(sizeBuf[:], 0)
	if _, err := conn.Write(sizeBuf[:]); err != nil {
		return port.ScanResult{}, fmt.Errorf("terminate stream: %w", err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\x00')
	if err != nil {
		return port.ScanResult{}, fmt.Errorf("read verdict: %w", err)
	}

	return parseVerdict(reply)
}

func parseVerdict(reply string) (port.ScanResult, error) {
	verdict := strings.TrimSuffix(strings.TrimSpace(reply), "\x00")
	switch {
	case strings.HasSuffix(verdict, "OK"):
		return port.ScanResult{Safe: true}, nil
	case strings.HasSuffix(verdict, "FOUND"):
		// "stream: <signature> FOUND"
		sig := verdict
		if i := strings.Index(verdict, ":"); i >= 0 {
			sig = strings.TrimSpace(verdict[i+1:])
		}
		sig = strings.TrimSuffix(sig, " FOUND")
		return port.ScanResult{Safe: false, Signature: sig}, nil
	default:
		return port.ScanResult{}, fmt.Errorf("unexpected clamd reply: %q", verdict)
	}
}

var _ port.SecurityScanner = (*Scanner)(nil)
