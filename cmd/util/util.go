package util

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ValentinKolb/mprpc/rpc/common"
	"github.com/ValentinKolb/mprpc/rpc/transport"
	"github.com/ValentinKolb/mprpc/rpc/transport/tcp"
	"github.com/ValentinKolb/mprpc/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		if lineWidth > 0 && lineWidth+1+len(word) > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += len(word)
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Client Configuration
// --------------------------------------------------------------------------

// SetupRPCClientFlags adds the connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	defaults := common.DefaultClientConfig("localhost:18800")

	key := "endpoint"
	cmd.PersistentFlags().String(key, defaults.Endpoint, WrapString("Address of the msgpack-rpc peer (host:port for tcp, a socket path for unix)"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, defaults.TimeoutSecond, WrapString("Timeout in seconds for connecting, writing and waiting for a call (0 = none)"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, defaults.Transport.SocketConf.WriteBufferSize/1024, WrapString("The size of the write buffer for the transport (in KB)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, defaults.Transport.SocketConf.ReadBufferSize/1024, WrapString("The size of the read buffer for the transport (in KB)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, defaults.Transport.TCPConf.TCPNoDelay, WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval (in seconds, only for tcp)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapString("The linger time (in seconds, only for tcp)"))
}

// InitClientConfig initializes configuration from .env files and environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("mprpc")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		Endpoint:      viper.GetString("endpoint"),
		TimeoutSecond: viper.GetInt("timeout"),
		LogLevel:      viper.GetString("log-level"),
		Transport: common.ClientTransportConfig{
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
				TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			},
		},
	}
}

// GetTransport creates transport based on configuration
func GetTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// --------------------------------------------------------------------------
// Arguments and Results
// --------------------------------------------------------------------------

// ParseArgs turns command line arguments into call arguments. Each argument is
// parsed as JSON, anything that is not valid JSON is passed as a plain string.
// Whole numbers become ints so they are sent as msgpack integers.
func ParseArgs(args []string) []any {
	params := make([]any, len(args))
	for i, arg := range args {
		dec := json.NewDecoder(strings.NewReader(arg))
		dec.UseNumber()

		var v any
		if err := dec.Decode(&v); err != nil || dec.More() {
			params[i] = arg
			continue
		}
		params[i] = fromJSON(v)
	}
	return params
}

func fromJSON(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n)
		}
		f, _ := val.Float64()
		return f
	case map[string]any:
		for k, item := range val {
			val[k] = fromJSON(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = fromJSON(item)
		}
		return val
	default:
		return v
	}
}

// FormatJSON renders a decoded msgpack value as indented JSON
func FormatJSON(v any) (string, error) {
	b, err := json.MarshalIndent(jsonSafe(v), "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// jsonSafe converts maps with non-string keys, which msgpack allows and JSON does not
func jsonSafe(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = jsonSafe(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = jsonSafe(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = jsonSafe(item)
		}
		return out
	default:
		return v
	}
}
