// FILE: lixenwraith/logsetup/sink_socket_test.go
package logsetup

import (
	"bytes"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFraming(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(AppendFrame(nil, []byte("hello")))
	buf.Write(AppendFrame(nil, []byte{}))
	buf.Write(AppendFrame(nil, []byte("world")))

	n, ok := FrameLen(buf.Bytes())
	require.True(t, ok)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte{0, 0, 0, 5}, buf.Bytes()[:4])

	for _, want := range []string{"hello", "", "world"} {
		got, err := ReadFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}

	_, ok = FrameLen([]byte{0, 1})
	assert.False(t, ok)

	oversized := []byte{0xff, 0xff, 0xff, 0xff}
	_, err := ReadFrame(bytes.NewReader(oversized))
	assert.Error(t, err)
}

func TestSocketSinkDelivery(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	frames := make(chan []byte, 8)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			payload, err := ReadFrame(conn)
			if err != nil {
				close(frames)
				return
			}
			frames <- payload
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	d, _ := createTestDispatcher(t)
	_, err = d.RegisterSocket(LevelInfo, "127.0.0.1", addr.Port)
	require.NoError(t, err)

	l := d.Logger("remote")
	l.Info("over the wire")
	l.Error("second record")

	for _, want := range []string{"over the wire", "second record"} {
		select {
		case payload := <-frames:
			r, err := ParseRecordJSON(payload)
			require.NoError(t, err)
			assert.Equal(t, want, r.Message)
			assert.Equal(t, "remote", r.Logger)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	require.NoError(t, d.Shutdown())
	select {
	case _, open := <-frames:
		assert.False(t, open, "connection closed on shutdown")
	case <-time.After(2 * time.Second):
		t.Fatal("connection not closed")
	}
}

func TestSocketSinkBackoff(t *testing.T) {
	s, err := NewSocketSink("127.0.0.1", 9)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Now()}
	dials := 0
	s.now = clock.Now
	s.dial = func(network, addr string, timeout time.Duration) (net.Conn, error) {
		dials++
		return nil, errors.New("connection refused")
	}

	err = s.Deliver("a", testRecord())
	assert.ErrorContains(t, err, "failed to connect")
	assert.Equal(t, 1, dials)

	// Within the backoff window no dial happens
	err = s.Deliver("b", testRecord())
	assert.ErrorContains(t, err, "unavailable")
	assert.Equal(t, 1, dials)

	clock.Advance(socketRetryStart)
	_ = s.Deliver("c", testRecord())
	assert.Equal(t, 2, dials)
	assert.Equal(t, 2*socketRetryStart, s.retryDelay)

	for i := 0; i < 10; i++ {
		clock.Advance(socketRetryMax)
		_ = s.Deliver("d", testRecord())
	}
	assert.Equal(t, socketRetryMax, s.retryDelay)

	// A successful dial resets the backoff
	server, client := net.Pipe()
	defer server.Close()
	go func() {
		_, _ = ReadFrame(server)
	}()
	s.dial = func(network, addr string, timeout time.Duration) (net.Conn, error) {
		return client, nil
	}
	clock.Advance(socketRetryMax)
	require.NoError(t, s.Deliver("e", testRecord()))
	assert.Zero(t, s.retryDelay)
	require.NoError(t, s.Close())
}

func TestSocketSinkReconnectsAfterWriteFailure(t *testing.T) {
	s, err := NewSocketSink("127.0.0.1", 9)
	require.NoError(t, err)

	server, client := net.Pipe()
	server.Close()
	s.dial = func(network, addr string, timeout time.Duration) (net.Conn, error) {
		return client, nil
	}

	assert.ErrorContains(t, s.Deliver("lost", testRecord()), "failed to send")
	assert.Nil(t, s.conn)
	assert.True(t, s.retryAt.IsZero(), "write failures do not start a backoff")
}

func TestSocketSinkInvalid(t *testing.T) {
	_, err := NewSocketSink("", 514)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewSocketSink("localhost", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewSocketSink("localhost", 70000)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	s, err := NewSocketSink("::1", 514)
	require.NoError(t, err)
	assert.Equal(t, "[::1]:"+strconv.Itoa(514), s.Addr())
}
