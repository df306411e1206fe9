// Package tcp accepts line protocol connections and runs one session per
// connection, up to a fixed number of concurrent sessions.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/dmitrijs2005/socialnet/internal/logging"
)

// LineServerFull is written to connections refused over the cap.
const LineServerFull = "Server is at maximum capacity. Please try again later."

// Handler serves a single connection and closes it before returning.
type Handler interface {
	Serve(ctx context.Context, conn net.Conn) error
}

type Acceptor struct {
	address string
	handler Handler
	slots   chan struct{}
	logger  logging.Logger

	// ready receives the bound address once listening; used by tests.
	ready chan net.Addr
}

func NewAcceptor(address string, maxConns int, h Handler, l logging.Logger) *Acceptor {
	if maxConns < 1 {
		maxConns = 1
	}
	return &Acceptor{
		address: address,
		handler: h,
		slots:   make(chan struct{}, maxConns),
		logger:  l.With("module", "tcp_acceptor"),
		ready:   make(chan net.Addr, 1),
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (a *Acceptor) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", a.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.address, err)
	}
	return a.Serve(ctx, lis)
}

// Serve accepts on lis until ctx is cancelled, then closes lis and waits
// for the running sessions, which see the same cancellation.
func (a *Acceptor) Serve(ctx context.Context, lis net.Listener) error {
	defer lis.Close()

	// Unblock Accept when the context is cancelled.
	stop := context.AfterFunc(ctx, func() { _ = lis.Close() })
	defer stop()

	a.logger.Info(ctx, "Starting TCP server", "address", lis.Addr().String(), "max_connections", cap(a.slots))
	select {
	case a.ready <- lis.Addr():
	default:
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				a.logger.Info(ctx, "Stopping TCP server...")
				return nil
			}
			a.logger.Error(ctx, "accept failed", "error", err)
			continue
		}

		select {
		case a.slots <- struct{}{}:
		default:
			a.refuse(ctx, conn)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-a.slots }()
			if err := a.handler.Serve(ctx, conn); err != nil {
				a.logger.Warn(ctx, "session ended with error", "remote", conn.RemoteAddr().String(), "error", err)
			}
		}()
	}
}

func (a *Acceptor) refuse(ctx context.Context, conn net.Conn) {
	a.logger.Warn(ctx, "connection refused, server full", "remote", conn.RemoteAddr().String())
	_, _ = conn.Write([]byte(LineServerFull + "\n"))
	_ = conn.Close()
}

// Addr blocks until the acceptor is listening and returns its address.
func (a *Acceptor) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case addr := <-a.ready:
		a.ready <- addr
		return addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
