package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/mprpc/rpc/common"
	"github.com/vmihailenco/msgpack/v5"
)

func raw(t *testing.T, v any) msgpack.RawMessage {
	t.Helper()
	b, err := common.EncodeValue(v)
	if err != nil {
		t.Fatalf("Encoding %v failed: %v", v, err)
	}
	return b
}

func TestCallResolveWithResult(t *testing.T) {
	c := newCall(7, "add[40, 2]")

	if c.Status() != StatusWaiting {
		t.Fatalf("Expected waiting, got %s", c.Status())
	}
	if _, err := Convert[int](c); !errors.Is(err, common.ErrNotReady) {
		t.Errorf("Expected ErrNotReady before resolution, got %v", err)
	}
	if got := c.String(); got != "add[40, 2] = ?" {
		t.Errorf("Unexpected rendering %q", got)
	}

	if err := c.ResolveWithResult(raw(t, 42)); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	v, err := Convert[int](c)
	if err != nil || v != 42 {
		t.Errorf("Expected 42, got %d (%v)", v, err)
	}
	if c.Status() != StatusReceived {
		t.Errorf("Expected received, got %s", c.Status())
	}
	if got := c.String(); got != "add[40, 2] = 42" {
		t.Errorf("Unexpected rendering %q", got)
	}
}

func TestCallResolveWithError(t *testing.T) {
	c := newCall(1, "add[x]")
	if err := c.ResolveWithError(raw(t, "bad args")); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	_, err := Convert[int](c)
	var rpcErr *common.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("Expected RPCError, got %v", err)
	}
	var msg string
	if err := rpcErr.Decode(&msg); err != nil || msg != "bad args" {
		t.Errorf("Expected error payload 'bad args', got %q (%v)", msg, err)
	}
	if got := c.String(); got != "add[x] = !bad args" {
		t.Errorf("Unexpected rendering %q", got)
	}
}

func TestCallDuplicateResolution(t *testing.T) {
	c := newCall(3, "m[]")
	if err := c.ResolveWithResult(raw(t, "first")); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	var protoErr *common.ProtocolError
	if err := c.ResolveWithError(raw(t, "second")); !errors.As(err, &protoErr) || protoErr.ID != 3 {
		t.Errorf("Expected ProtocolError for call 3, got %v", err)
	}

	// first outcome is kept
	if v, err := Convert[string](c); err != nil || v != "first" {
		t.Errorf("Expected 'first', got %q (%v)", v, err)
	}
}

func TestCallConversion(t *testing.T) {
	tests := []struct {
		name    string
		result  msgpack.RawMessage
		convert func(c *Call) error
		wantErr bool
	}{
		{
			name:   "string",
			result: raw(t, "hello"),
			convert: func(c *Call) error {
				v, err := Convert[string](c)
				if err == nil && v != "hello" {
					t.Errorf("Expected hello, got %q", v)
				}
				return err
			},
		},
		{
			name:   "map",
			result: raw(t, map[string]int{"a": 1}),
			convert: func(c *Call) error {
				v, err := Convert[map[string]int](c)
				if err == nil && v["a"] != 1 {
					t.Errorf("Expected a=1, got %v", v)
				}
				return err
			},
		},
		{
			name:   "nil into pointer",
			result: nil,
			convert: func(c *Call) error {
				v, err := Convert[*int](c)
				if err == nil && v != nil {
					t.Errorf("Expected nil pointer, got %v", *v)
				}
				return err
			},
		},
		{
			name:    "string into int",
			result:  raw(t, "not a number"),
			convert: func(c *Call) error { _, err := Convert[int](c); return err },
			wantErr: true,
		},
		{
			name:    "array into string",
			result:  raw(t, []int{1, 2}),
			convert: func(c *Call) error { _, err := Convert[string](c); return err },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCall(1, "m[]")
			if err := c.ResolveWithResult(tt.result); err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}

			err := tt.convert(c)
			if !tt.wantErr {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}

			var convErr *common.ConversionError
			if !errors.As(err, &convErr) {
				t.Errorf("Expected ConversionError, got %v", err)
			} else if convErr.Label != "m[]" {
				t.Errorf("Expected label m[], got %q", convErr.Label)
			}
		})
	}
}

func TestCallFail(t *testing.T) {
	c := newCall(1, "m[]")
	if err := c.fail(common.ErrClosed); err != nil {
		t.Fatalf("fail failed: %v", err)
	}
	if _, err := Convert[int](c); !errors.Is(err, common.ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if c.Status() != StatusErrored {
		t.Errorf("Expected errored, got %s", c.Status())
	}
}

func TestCallWait(t *testing.T) {
	t.Run("many waiters", func(t *testing.T) {
		c := newCall(1, "m[]")

		var wg sync.WaitGroup
		results := make([]int, 10)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if err := c.Wait(context.Background()); err != nil {
					t.Errorf("Wait failed: %v", err)
					return
				}
				results[i], _ = Convert[int](c)
			}(i)
		}

		time.Sleep(10 * time.Millisecond)
		if err := c.ResolveWithResult(raw(t, 5)); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		wg.Wait()

		for i, v := range results {
			if v != 5 {
				t.Errorf("Waiter %d saw %d", i, v)
			}
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		c := newCall(1, "m[]")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		if err := c.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Expected DeadlineExceeded, got %v", err)
		}
		if c.Status() != StatusWaiting {
			t.Errorf("Call must stay waiting, got %s", c.Status())
		}
	})

	t.Run("resolved beats cancelled", func(t *testing.T) {
		c := newCall(1, "m[]")
		_ = c.ResolveWithResult(raw(t, 1))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := c.Wait(ctx); err != nil {
			t.Errorf("Expected nil for a resolved call, got %v", err)
		}
	})
}
