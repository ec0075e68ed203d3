// Package pushchannel defines the port for the bidirectional push channel the
// remote journey engine uses to stream updates to the client.
package pushchannel

import "context"

// Conn is one open push channel. Read blocks until a frame arrives or the
// channel closes; any Read error means the channel is closed.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, frame []byte) error
	Close() error
}

// Dialer opens push channels for a single actor.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}
