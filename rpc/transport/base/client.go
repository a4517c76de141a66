package base

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/mprpc/lib/queue"
	"github.com/ValentinKolb/mprpc/rpc/common"
	"github.com/ValentinKolb/mprpc/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/vmihailenco/msgpack/v5"
)

var Logger = logger.GetLogger(common.LoggerTransport)

// defaultBufferSize is used when the configuration leaves a buffer size at 0
const defaultBufferSize = 64 * 1024

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint (timeout 0 = no timeout)
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Client Transport
// -----------------------------------------------------------

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig

	conn     net.Conn
	outgoing *queue.MPSC[[]byte]

	onFrame transport.ReceiveFunc
	onClose transport.CloseFunc

	connectMu sync.Mutex // Serializes Connect against itself and shutdown
	connected atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	loops     sync.WaitGroup // read and write goroutine
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) RegisterHandler(onFrame transport.ReceiveFunc, onClose transport.CloseFunc) {
	t.onFrame = onFrame
	t.onClose = onClose
}

func (t *clientTransport) Connect(config common.ClientConfig) error {
	t.connectMu.Lock()
	defer t.connectMu.Unlock()

	if t.closed.Load() {
		return transport.ErrTransportClosed
	}
	if t.connected.Load() {
		return fmt.Errorf("already connected to %s", t.config.Endpoint)
	}
	if config.Endpoint == "" {
		return fmt.Errorf("no endpoint provided")
	}

	conn, err := t.connector.Connect(config.Endpoint, config.Timeout())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", config.Endpoint, err)
	}

	// Apply protocol-specific settings
	if err := t.connector.UpgradeConnection(conn, config); err != nil {
		conn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %w", config.Endpoint, err)
	}

	t.config = config
	t.conn = conn
	t.outgoing = queue.NewMPSC[[]byte]()
	t.connected.Store(true)

	t.loops.Add(2)
	go t.readLoop()
	go t.writeLoop()

	Logger.Infof("Connected to %s using %s transport", config.Endpoint, t.connector.GetName())
	return nil
}

func (t *clientTransport) Enqueue(frame []byte) error {
	if t.closed.Load() {
		return transport.ErrTransportClosed
	}
	if !t.connected.Load() {
		return fmt.Errorf("transport is not connected")
	}
	if !t.outgoing.Push(frame) {
		return transport.ErrTransportClosed
	}
	return nil
}

// Close shuts the connection down and waits for the read and write goroutines.
// It must not be called from within the registered ReceiveFunc.
func (t *clientTransport) Close() error {
	t.shutdown(transport.ErrTransportClosed)
	t.loops.Wait()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// readLoop reads msgpack objects from the connection and hands each one to the handler.
// msgpack-rpc has no framing of its own, every top level object is one message.
// A well formed object that is not a valid envelope only costs that message, but
// bytes that are not msgpack at all (e.g. the reserved code 0xc1) end the
// connection: without a length prefix there is no next object boundary to resume at.
func (t *clientTransport) readLoop() {
	defer t.loops.Done()

	size := t.config.Transport.SocketConf.ReadBufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	dec := msgpack.NewDecoder(bufio.NewReaderSize(t.conn, size))

	for {
		frame, err := dec.DecodeRaw()
		if err != nil {
			t.shutdown(err)
			return
		}
		t.deliver(frame)
	}
}

// deliver calls the frame handler, a panic in the handler is logged and does not end the read loop
func (t *clientTransport) deliver(frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Frame handler panicked on %d byte frame from %s: %v", len(frame), t.config.Endpoint, r)
		}
	}()

	if t.onFrame != nil {
		t.onFrame(frame)
	}
}

// writeLoop drains the outgoing queue onto the connection. Frames are buffered and
// flushed once the queue is empty, so bursts of calls share syscalls.
func (t *clientTransport) writeLoop() {
	defer t.loops.Done()

	size := t.config.Transport.SocketConf.WriteBufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	w := bufio.NewWriterSize(t.conn, size)
	timeout := t.config.Timeout()

	for frame := range t.outgoing.Recv() {
		// keep draining after a failure, the queue only closes its channel once empty
		if t.closed.Load() {
			continue
		}

		if timeout > 0 {
			if err := t.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				t.shutdown(err)
				continue
			}
		}

		if _, err := w.Write(frame); err != nil {
			t.shutdown(err)
			continue
		}

		if t.outgoing.Len() == 0 {
			if err := w.Flush(); err != nil {
				t.shutdown(err)
			}
		}
	}
}

// shutdown closes the connection once and reports the cause to the close handler
func (t *clientTransport) shutdown(cause error) {
	t.closeOnce.Do(func() {
		// a concurrent Connect either finished or will see closed
		t.connectMu.Lock()
		t.closed.Store(true)
		conn, outgoing, endpoint := t.conn, t.outgoing, t.config.Endpoint
		t.connectMu.Unlock()

		if outgoing != nil {
			outgoing.Close()
		}
		if conn != nil {
			conn.Close()
		}

		if cause == transport.ErrTransportClosed {
			Logger.Infof("Closed connection to %s", endpoint)
		} else {
			Logger.Warningf("Connection to %s lost: %v", endpoint, cause)
		}

		if t.onClose != nil {
			t.onClose(cause)
		}
	})
}
