package clamav

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClamd accepts one connection, consumes a full INSTREAM exchange and
// answers with the given reply. It returns the bytes it received.
func stubClamd(t *testing.T, reply string, received chan<- []byte) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		cmd, err := r.ReadString('\x00')
		if err != nil || cmd != "zINSTREAM\x00" {
			return
		}

		var body []byte
		for {
			var sizeBuf [4]byte
			if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
				return
			}
			size := binary.BigEndian.Uint32(sizeBuf[:])
			if size == 0 {
				break
			}
			chunk := make([]byte, size)
			if _, err := io.ReadFull(r, chunk); err != nil {
				return
			}
			body = append(body, chunk...)
		}

		if received != nil {
			received <- body
		}
		_, _ = conn.Write([]byte(reply))
	}()

	return ln.Addr().String()
}

func TestScanner_CleanVerdict(t *testing.T) {
	received := make(chan []byte, 1)
	addr := stubClamd(t, "stream: OK\x00", received)

	scanner := NewScanner(addr)
	data := []byte("some video bytes")

	result, err := scanner.Scan(context.Background(), data)
	require.NoError(t, err)
	assert.True(t, result.Safe)
	assert.Empty(t, result.Signature)
	assert.Equal(t, data, <-received, "entire buffer must be streamed")
}

func TestScanner_InfectedVerdict(t *testing.T) {
	addr := stubClamd(t, "stream: Eicar-Test-Signature FOUND\x00", nil)

	scanner := NewScanner(addr)
	result, err := scanner.Scan(context.Background(), []byte("payload"))
	require.NoError(t, err)
	assert.False(t, result.Safe)
	assert.Equal(t, "Eicar-Test-Signature", result.Signature)
}

func TestScanner_UnexpectedReply(t *testing.T) {
	addr := stubClamd(t, "INSTREAM size limit exceeded. ERROR\x00", nil)

	scanner := NewScanner(addr)
	_, err := scanner.Scan(context.Background(), []byte("payload"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected clamd reply")
}

func TestScanner_ChunksLargeBuffers(t *testing.T) {
	received := make(chan []byte, 1)
	addr := stubClamd(t, "stream: OK\x00", received)

	scanner := NewScanner(addr)
	data := make([]byte, chunkSize*2+100)
	for i := range data {
		data[i] = byte(i % 251)
	}

	result, err := scanner.Scan(context.Background(), data)
	require.NoError(t, err)
	assert.True(t, result.Safe)
	assert.Equal(t, data, <-received, "chunked stream must reassemble to the original buffer")
}

func TestScanner_DaemonUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	scanner := NewScanner(addr)
	_, err = scanner.Scan(context.Background(), []byte("payload"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial clamd")
}

func TestScanner_ContextDeadline(t *testing.T) {
	// A listener that accepts but never replies.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.Copy(io.Discard, conn)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	scanner := NewScanner(ln.Addr().String())
	_, err = scanner.Scan(ctx, []byte("payload"))
	assert.Error(t, err, "a silent daemon must not hang past the deadline")
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		wantSafe bool
		wantSig  string
		wantErr  bool
	}{
		{name: "clean", reply: "stream: OK\x00", wantSafe: true},
		{name: "infected", reply: "stream: Win.Test.EICAR_HDB-1 FOUND\x00", wantSig: "Win.Test.EICAR_HDB-1"},
		{name: "error reply", reply: "stream: ERROR\x00", wantErr: true},
		{name: "empty", reply: "\x00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVerdict(tt.reply)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSafe, result.Safe)
			assert.Equal(t, tt.wantSig, result.Signature)
		})
	}
}
