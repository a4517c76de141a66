package client_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/mprpc/rpc/client"
	"github.com/ValentinKolb/mprpc/rpc/common"
	"github.com/ValentinKolb/mprpc/rpc/serializer"
	"github.com/ValentinKolb/mprpc/rpc/transport/tcp"
	"github.com/vmihailenco/msgpack/v5"
)

// startPeer runs a minimal msgpack-rpc peer on a loopback port. It answers "add"
// and "fail", sends a notification before answering "notify_me" and never answers
// "hang".
func startPeer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go servePeer(conn)
		}
	}()
	return ln.Addr().String()
}

func servePeer(conn net.Conn) {
	defer conn.Close()
	dec := msgpack.NewDecoder(conn)
	enc := msgpack.NewEncoder(conn)

	for {
		var req common.Envelope
		if err := dec.Decode(&req); err != nil {
			return
		}

		var resp *common.Envelope
		switch req.Method {
		case "add":
			var a, b int
			_ = msgpack.Unmarshal(req.Params[0], &a)
			_ = msgpack.Unmarshal(req.Params[1], &b)
			resp, _ = common.NewResponse(req.ID, nil, a+b)
		case "fail":
			resp, _ = common.NewResponse(req.ID, "bad args", nil)
		case "notify_me":
			note, _ := common.NewNotify("progress", 50)
			if err := enc.Encode(note); err != nil {
				return
			}
			resp, _ = common.NewResponse(req.ID, nil, "done")
		case "hang":
			continue
		default:
			resp, _ = common.NewResponse(req.ID, "no such method", nil)
		}
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func dialPeer(t *testing.T, endpoint string, opts ...client.Option) *client.Client {
	t.Helper()
	c, err := client.NewClient(
		common.DefaultClientConfig(endpoint),
		tcp.NewTCPClientTransport(),
		serializer.NewMsgpackSerializer(),
		append([]client.Option{client.WithName(t.Name())}, opts...)...,
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestEndToEndCalls(t *testing.T) {
	c := dialPeer(t, startPeer(t))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sum, err := client.CallSync[int](ctx, c, "add", 40, 2)
	if err != nil || sum != 42 {
		t.Fatalf("Expected 42, got %d (%v)", sum, err)
	}

	var rpcErr *common.RPCError
	if _, err := client.CallSync[int](ctx, c, "fail"); !errors.As(err, &rpcErr) {
		t.Errorf("Expected RPCError, got %v", err)
	}
}

func TestEndToEndConcurrentCalls(t *testing.T) {
	c := dialPeer(t, startPeer(t))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				sum, err := client.CallSync[int](ctx, c, "add", w, i)
				if err != nil {
					t.Errorf("Call failed: %v", err)
					return
				}
				if sum != w+i {
					t.Errorf("Expected %d, got %d", w+i, sum)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if c.Pending() != 0 {
		t.Errorf("Expected no pending calls, got %d", c.Pending())
	}
}

func TestEndToEndNotification(t *testing.T) {
	notes := make(chan int, 1)
	c := dialPeer(t, startPeer(t), client.WithNotifyHandler(func(method string, params []msgpack.RawMessage) {
		var pct int
		_ = msgpack.Unmarshal(params[0], &pct)
		notes <- pct
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := client.CallSync[string](ctx, c, "notify_me")
	if err != nil || res != "done" {
		t.Fatalf("Expected done, got %q (%v)", res, err)
	}

	// the notification was written before the response on the same stream
	select {
	case pct := <-notes:
		if pct != 50 {
			t.Errorf("Expected 50, got %d", pct)
		}
	default:
		t.Error("Notification was not dispatched before the response")
	}
}

func TestEndToEndPeerGone(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	c := dialPeer(t, ln.Addr().String())
	call, err := c.CallAsync("hang")
	if err != nil {
		t.Fatalf("CallAsync failed: %v", err)
	}

	select {
	case conn := <-accepted:
		conn.Close()
	case <-time.After(5 * time.Second):
		t.Fatal("Peer never accepted the connection")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := call.Wait(ctx); err != nil {
		t.Fatalf("Call was not failed after the connection dropped: %v", err)
	}
	if _, err := client.Convert[int](call); !errors.Is(err, common.ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, err := c.CallAsync("add", 1, 2); !errors.Is(err, common.ErrClosed) {
		t.Errorf("Expected ErrClosed for new calls, got %v", err)
	}
}
