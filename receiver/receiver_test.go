// FILE: lixenwraith/logsetup/receiver/receiver_test.go
package receiver

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/logsetup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSink keeps delivered records in memory
type recordSink struct {
	mu      sync.Mutex
	records []*logsetup.Record
}

func (s *recordSink) Deliver(_ string, r *logsetup.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *recordSink) Close() error { return nil }

// fromLogger returns records emitted by loggers named name
func (s *recordSink) fromLogger(name string) []*logsetup.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*logsetup.Record
	for _, r := range s.records {
		if r.Logger == name {
			out = append(out, r)
		}
	}
	return out
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

// startServer runs a receiver emitting into a fresh dispatcher
func startServer(t *testing.T) (*Server, *recordSink, int) {
	t.Helper()
	d := logsetup.NewDispatcher(logsetup.WithErrorOutput(nil))
	sink := &recordSink{}
	_, err := d.Register(sink, logsetup.LevelDebug, nil)
	require.NoError(t, err)

	port := freePort(t)
	srv := New(fmt.Sprintf("tcp://127.0.0.1:%d", port), d)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		t.Fatalf("receiver failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("receiver did not start")
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, srv.Stop(ctx))
		_ = d.Shutdown()
	})
	return srv, sink, port
}

func TestReceiverRoundTrip(t *testing.T) {
	srv, sink, port := startServer(t)

	client := logsetup.NewDispatcher(logsetup.WithErrorOutput(nil))
	defer client.Shutdown()
	_, err := client.RegisterSocket(logsetup.LevelInfo, "127.0.0.1", port)
	require.NoError(t, err)

	l := client.Logger("remote")
	l.Debug("below the sink level")
	l.Info("hello collector")
	l.Exception(io.ErrUnexpectedEOF, "upload aborted")

	require.Eventually(t, func() bool {
		return len(sink.fromLogger("remote")) == 2
	}, 5*time.Second, 20*time.Millisecond)

	records := sink.fromLogger("remote")
	assert.Equal(t, logsetup.LevelInfo, records[0].Level)
	assert.Equal(t, "hello collector", records[0].Message)
	assert.Equal(t, "receiver_test", records[0].Module)
	assert.Equal(t, "TestReceiverRoundTrip", records[0].Function)

	assert.Equal(t, logsetup.LevelError, records[1].Level)
	require.NotNil(t, records[1].Err)
	assert.Equal(t, "unexpected EOF", records[1].Err.Text)

	assert.Equal(t, uint64(2), srv.Stats().Received)
}

func TestReceiverPartialAndInvalidFrames(t *testing.T) {
	srv, sink, port := startServer(t)

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	defer conn.Close()

	payload := []byte(`{"level_no":8,"logger":"raw","message":"split frame"}`)
	frame := logsetup.AppendFrame(nil, payload)

	// Header and body arrive in separate writes
	_, err = conn.Write(frame[:3])
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, err = conn.Write(frame[3:])
	require.NoError(t, err)

	// A bad frame is dropped without closing the connection
	_, err = conn.Write(logsetup.AppendFrame(nil, []byte("not json")))
	require.NoError(t, err)
	_, err = conn.Write(logsetup.AppendFrame(nil, []byte(`{"level_no":0,"logger":"raw","message":"after bad"}`)))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(sink.fromLogger("raw")) == 2
	}, 5*time.Second, 20*time.Millisecond)

	records := sink.fromLogger("raw")
	assert.Equal(t, "split frame", records[0].Message)
	assert.Equal(t, logsetup.LevelError, records[0].Level)
	assert.Equal(t, "after bad", records[1].Message)
	assert.Equal(t, uint64(1), srv.Stats().Rejected)
}

func TestReceiverOversizedFrame(t *testing.T) {
	srv, _, port := startServer(t)

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	defer conn.Close()

	var header [logsetup.FrameHeaderLen]byte
	binary.BigEndian.PutUint32(header[:], uint32(logsetup.MaxFrameSize+1))
	_, err = conn.Write(header[:])
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = conn.Read(make([]byte, 1))
	assert.Error(t, err, "server closes the connection")
	assert.Equal(t, uint64(1), srv.Stats().Oversized)
}

func TestReceiverStopBeforeRun(t *testing.T) {
	srv := New("tcp://127.0.0.1:0", logsetup.NewDispatcher())
	assert.Error(t, srv.Stop(context.Background()))
}
