package common

import (
	"fmt"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// SocketConf holds the buffer sizes used for a connection (in bytes, 0 = os default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds options only applied to tcp connections
type TCPConf struct {
	TCPKeepAliveSec int // 0 = os default
	TCPLingerSec    int // 0 = os default
	TCPNoDelay      bool
}

// ClientTransportConfig holds the connection level settings of a client transport
type ClientTransportConfig struct {
	SocketConf SocketConf
	TCPConf    TCPConf
}

// ClientConfig holds all configuration parameters of a client.
// One client multiplexes all of its calls over a single connection to Endpoint.
type ClientConfig struct {
	// Address of the peer (host:port for tcp, a socket path for unix)
	Endpoint string

	// Dial timeout and per-write deadline, 0 disables both.
	// Calls themselves never time out, use a context for that.
	TimeoutSecond int

	// Logging configuration
	LogLevel string

	Transport ClientTransportConfig
}

// DefaultClientConfig returns a configuration for the given endpoint with sensible defaults
func DefaultClientConfig(endpoint string) ClientConfig {
	return ClientConfig{
		Endpoint:      endpoint,
		TimeoutSecond: 10,
		LogLevel:      "info",
		Transport: ClientTransportConfig{
			SocketConf: SocketConf{
				WriteBufferSize: 64 * 1024,
				ReadBufferSize:  64 * 1024,
			},
			TCPConf: TCPConf{
				TCPNoDelay: true,
			},
		},
	}
}

// Timeout returns TimeoutSecond as a duration
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Log Level", c.LogLevel)

	// Transport
	addSection("Transport")
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.SocketConf.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.SocketConf.ReadBufferSize))
	addField("TCP No Delay", fmt.Sprintf("%t", c.Transport.TCPConf.TCPNoDelay))
	addField("TCP Keep Alive", fmt.Sprintf("%d sec", c.Transport.TCPConf.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.Transport.TCPConf.TCPLingerSec))

	return sb.String()
}
