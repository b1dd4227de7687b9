package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// Handler processes one command request from the watcher socket.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve accepts clients until ctx is cancelled or the listener closes. Each
// connection carries exactly one newline-framed request and gets exactly one
// response; malformed traffic is logged and answered without tearing the
// server down.
func Serve(ctx context.Context, listener net.Listener, handler Handler, logger zerolog.Logger) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept watcher connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()
			serveConn(ctx, c, handler, logger)
		}(conn)
	}
}

// serveConn runs one request/response exchange. A client that disconnects
// before sending a full line gets no response.
func serveConn(ctx context.Context, conn net.Conn, handler Handler, logger zerolog.Logger) {
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		logger.Debug().Err(err).Msg("watcher request read failed")
		return
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		logger.Debug().Err(err).Msg("watcher request malformed")
		respond(conn, Response{OK: false, Error: "malformed request"}, logger)
		return
	}

	respond(conn, handler.Handle(ctx, req), logger)
}

func respond(conn net.Conn, resp Response, logger zerolog.Logger) {
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		logger.Debug().Err(err).Msg("watcher response write failed")
	}
}
