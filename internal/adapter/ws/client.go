// Package ws implements the WebSocket push channel: a client dialer for the
// sync client and a per-actor hub for the journey simulator.
package ws

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coder/websocket"

	"github.com/nuaibria/travelsync/internal/domain"
	"github.com/nuaibria/travelsync/internal/port/pushchannel"
)

// ActorQueryParam carries the actor id on the upgrade request.
const ActorQueryParam = "characterId"

// Dialer opens WebSocket push channels for one actor.
type Dialer struct {
	url        string
	actorID    string
	token      string
	httpClient *http.Client
}

// NewDialer creates a Dialer for pushURL. A non-empty token is sent as a
// bearer Authorization header on the upgrade request.
func NewDialer(pushURL, actorID, token string) *Dialer {
	return &Dialer{url: pushURL, actorID: actorID, token: token}
}

// WithHTTPClient sets the client used for the upgrade request.
func (d *Dialer) WithHTTPClient(c *http.Client) *Dialer {
	d.httpClient = c
	return d
}

// Dial opens a new push channel.
func (d *Dialer) Dial(ctx context.Context) (pushchannel.Conn, error) {
	u, err := url.Parse(d.url)
	if err != nil {
		return nil, fmt.Errorf("parse push url: %w", err)
	}
	q := u.Query()
	q.Set(ActorQueryParam, d.actorID)
	u.RawQuery = q.Encode()

	hdr := http.Header{}
	if d.token != "" {
		hdr.Set("Authorization", "Bearer "+d.token)
	}

	c, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{
		HTTPHeader: hdr,
		HTTPClient: d.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w: %w", u.Redacted(), domain.ErrTransport, err)
	}
	return &clientConn{ws: c}, nil
}

type clientConn struct {
	ws *websocket.Conn
}

func (c *clientConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *clientConn) Write(ctx context.Context, frame []byte) error {
	return c.ws.Write(ctx, websocket.MessageText, frame)
}

func (c *clientConn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "")
}
