package unix

import (
	"bytes"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/mprpc/rpc/common"
)

// TestUnixEcho connects to a socket that echoes every byte and checks that an
// enqueued frame comes back through the receive handler
func TestUnixEcho(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peer.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.Copy(conn, conn)
	}()

	received := make(chan []byte, 1)
	tr := NewUnixClientTransport()
	tr.RegisterHandler(func(frame []byte) { received <- frame }, nil)

	if err := tr.Connect(common.DefaultClientConfig(path)); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	frame := []byte{0x93, 0x02, 0xa4, 't', 'i', 'c', 'k', 0x90}
	if err := tr.Enqueue(frame); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	select {
	case got := <-received:
		if !bytes.Equal(got, frame) {
			t.Errorf("Expected % x, got % x", frame, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Echoed frame was not received")
	}
}

func TestUnixConnectMissingSocket(t *testing.T) {
	tr := NewUnixClientTransport()
	path := filepath.Join(t.TempDir(), "missing.sock")
	if err := tr.Connect(common.DefaultClientConfig(path)); err == nil {
		t.Error("Expected error connecting to a missing socket")
	}
}
