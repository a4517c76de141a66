package base

import (
	"fmt"

	"github.com/ValentinKolb/mprpc/rpc/common"
)

// bufferedConn is implemented by *net.TCPConn and *net.UnixConn
type bufferedConn interface {
	SetReadBuffer(bytes int) error
	SetWriteBuffer(bytes int) error
}

// ApplySocketBuffers sets the kernel socket buffer sizes of conn, sizes <= 0 keep the os default
func ApplySocketBuffers(conn bufferedConn, conf common.SocketConf) error {
	if conf.ReadBufferSize > 0 {
		if err := conn.SetReadBuffer(conf.ReadBufferSize); err != nil {
			return fmt.Errorf("set read buffer: %w", err)
		}
	}
	if conf.WriteBufferSize > 0 {
		if err := conn.SetWriteBuffer(conf.WriteBufferSize); err != nil {
			return fmt.Errorf("set write buffer: %w", err)
		}
	}
	return nil
}
