package remote

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"plant-shop/internal/catalog/domain/model"
	"plant-shop/internal/catalog/domain/repository"

	"github.com/fasthttp/websocket"
)

var _ repository.ChangeFeed = (*ChangeFeed)(nil)

const (
	minReconnectDelay = 500 * time.Millisecond
	maxReconnectDelay = 15 * time.Second
	// The server pings every 54s.
	defaultReadWait = 75 * time.Second
)

// ChangeFeed follows /ws/collections/:collection and reconnects with the last
// seen resume token when the socket drops. Every reconnect is followed by a
// ChangeResync event.
type ChangeFeed struct {
	client   *Client
	dialer   *websocket.Dialer
	buffer   int
	readWait time.Duration
}

// FeedOption configures a ChangeFeed.
type FeedOption func(*ChangeFeed)

// WithReadWait sets how long the socket may stay silent, pings included,
// before it is treated as dead and redialled.
func WithReadWait(d time.Duration) FeedOption {
	return func(f *ChangeFeed) {
		if d > 0 {
			f.readWait = d
		}
	}
}

// NewChangeFeed creates a ChangeFeed using client's server address and token.
func NewChangeFeed(client *Client, opts ...FeedOption) *ChangeFeed {
	f := &ChangeFeed{
		client:   client,
		dialer:   &websocket.Dialer{HandshakeTimeout: client.timeout},
		buffer:   32,
		readWait: defaultReadWait,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *ChangeFeed) socketURL(collection, resumeToken string) (string, error) {
	u, err := url.Parse(f.client.baseURL)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/collections/" + url.PathEscape(collection)
	q := url.Values{}
	if resumeToken != "" {
		q.Set("resumeToken", resumeToken)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Subscribe dials the server and streams events until ctx is done. The first
// dial must succeed; later disconnects are retried with backoff.
func (f *ChangeFeed) Subscribe(ctx context.Context, collection string) (<-chan *model.ChangeEvent, error) {
	conn, err := f.dial(ctx, collection, "")
	if err != nil {
		return nil, err
	}

	out := make(chan *model.ChangeEvent, f.buffer)
	go f.run(ctx, collection, conn, out)
	return out, nil
}

func (f *ChangeFeed) dial(ctx context.Context, collection, resumeToken string) (*websocket.Conn, error) {
	target, err := f.socketURL(collection, resumeToken)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	if f.client.token != "" {
		header.Set("Authorization", "Bearer "+f.client.token)
	}
	conn, resp, err := f.dialer.DialContext(ctx, target, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

func (f *ChangeFeed) run(ctx context.Context, collection string, conn *websocket.Conn, out chan<- *model.ChangeEvent) {
	defer close(out)

	lastToken := ""
	delay := minReconnectDelay
	for {
		lastToken = f.pump(ctx, conn, out, lastToken)
		_ = conn.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			next, err := f.dial(ctx, collection, lastToken)
			if err == nil {
				conn = next
				delay = minReconnectDelay
				break
			}
			if ctx.Err() != nil {
				return
			}
			f.client.log.Warnf("Change feed reconnect to %s failed: %v", collection, err)
			delay *= 2
			if delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
		}

		resync := &model.ChangeEvent{Type: model.ChangeResync, Collection: collection, Timestamp: time.Now().UTC()}
		select {
		case out <- resync:
		case <-ctx.Done():
			_ = conn.Close()
			return
		}
	}
}

// pump copies events from conn to out until the socket fails or ctx ends,
// returning the newest resume token seen.
func (f *ChangeFeed) pump(ctx context.Context, conn *websocket.Conn, out chan<- *model.ChangeEvent, lastToken string) string {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(f.readWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(f.readWait))
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				f.client.log.Debugf("Change feed read ended: %v", err)
			}
			return lastToken
		}

		_ = conn.SetReadDeadline(time.Now().Add(f.readWait))

		var ev model.ChangeEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Type == "" {
			continue
		}
		if ev.ResumeToken != "" {
			lastToken = ev.ResumeToken
		}
		select {
		case out <- &ev:
		case <-ctx.Done():
			return lastToken
		}
	}
}
