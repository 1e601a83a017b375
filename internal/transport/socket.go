// Package transport owns the daemon's UDP sockets: one long-lived,
// non-blocking socket per configured input port, and a transient
// connected socket per outbound datagram. It has no knowledge of the wire
// format or the forwarding table.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/ripdaemon/ripd/internal/config"
	"github.com/ripdaemon/ripd/internal/rerr"
)

const recvBufferBytes = 4096 // comfortably above the 504-byte max packet size

// Datagram is one inbound packet, tagged with the input port it arrived on
// so the router core can log and attribute it.
type Datagram struct {
	Port config.Port
	Data []byte
	Src  *net.UDPAddr
}

// InputSocket is one bound, non-blocking listening socket.
type InputSocket struct {
	Port config.Port
	conn *net.UDPConn
}

// ListenInputPorts binds one UDP socket per port on the loopback interface.
// A bind failure on any port is fatal: every already-opened socket is
// closed and a PortInUseError is returned.
func ListenInputPorts(ports []config.Port) ([]*InputSocket, error) {
	sockets := make([]*InputSocket, 0, len(ports))
	for _, p := range ports {
		sock, err := listenOne(p)
		if err != nil {
			for _, s := range sockets {
				_ = s.conn.Close()
			}
			return nil, err
		}
		sockets = append(sockets, sock)
	}
	return sockets, nil
}

func listenOne(port config.Port) (*InputSocket, error) {
	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port))))
	if err != nil {
		return nil, &rerr.PortInUseError{Port: int(port), Err: err}
	}

	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, &rerr.PortInUseError{Port: int(port), Err: err}
	}

	if err := configureSocket(conn); err != nil {
		_ = conn.Close()
		return nil, &rerr.PortInUseError{Port: int(port), Err: err}
	}

	return &InputSocket{Port: port, conn: conn}, nil
}

// configureSocket sets the kernel receive buffer via the raw fd, following
// the same SetsockoptInt pattern used to tune mDNS listening sockets: Go's
// net.UDPConn is already driven by the runtime's non-blocking netpoller, so
// this only tunes buffering, it does not change blocking behavior.
func configureSocket(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, recvBufferBytes)
	})
	if err != nil {
		return err
	}
	if sockErr != nil && sockErr != syscall.ENOPROTOOPT {
		return sockErr
	}
	return nil
}

// ReadLoop blocks reading datagrams from the socket and forwards each to
// out, until ctx is canceled or the socket is closed. It runs in its own
// goroutine; the channel is the only point where this goroutine's output
// crosses into the single owning event-loop goroutine (see
// internal/router), so table and scheduler state are never touched here.
func (s *InputSocket) ReadLoop(ctx context.Context, out chan<- Datagram) {
	buf := make([]byte, recvBufferBytes)
	for {
		n, src, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			if ctx.Err() != nil {
				return
			}
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case out <- Datagram{Port: s.Port, Data: data, Src: src}:
		case <-ctx.Done():
			return
		}
	}
}

// Close releases the socket.
func (s *InputSocket) Close() error {
	return s.conn.Close()
}

// Send transmits data to 127.0.0.1:port over a fresh connected socket,
// acquired and released within this call (spec.md §5's "scoped acquisition,
// guaranteed release on all exit paths").
func Send(destPort config.Port, data []byte) error {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(int(destPort)))
	conn, err := net.Dial("udp4", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	n, err := conn.Write(data)
	if err != nil {
		return fmt.Errorf("write to %s: %w", addr, err)
	}
	if n != len(data) {
		return fmt.Errorf("partial write to %s: %d/%d bytes", addr, n, len(data))
	}
	return nil
}
