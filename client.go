// Package tyrant implements an asynchronous client for the Tokyo Tyrant
// 1.1.17 binary wire protocol: a non-blocking framed codec
// (internal/wire), a pipelined step-program engine (internal/engine)
// driving operations over an injected transport adaptor (adaptor), and
// one method per server operation on Client.
package tyrant

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/tyrant-go/gotyrant/adaptor"
	"github.com/tyrant-go/gotyrant/internal/engine"
	"github.com/tyrant-go/gotyrant/internal/logging"
)

// Options configures a Client, grounded on the teacher's
// DeviceParams/DefaultParams config pattern.
type Options struct {
	// DialTimeout bounds Dial's TCP handshake.
	DialTimeout time.Duration

	// Logger is stored with the client's options and defaults to
	// logging.Default() if nil. It is not handed to the engine or the
	// adaptor: the engine logs through logging.Default().
	Logger *logging.Logger

	// Observer receives a notification for every completed operation.
	// Defaults to NoOpObserver if nil.
	Observer Observer
}

// DefaultOptions returns sensible defaults for Dial.
func DefaultOptions() Options {
	return Options{
		DialTimeout: 5 * time.Second,
		Logger:      logging.Default(),
		Observer:    NoOpObserver{},
	}
}

func (o *Options) fillDefaults() {
	if o.Logger == nil {
		o.Logger = logging.Default()
	}
	if o.Observer == nil {
		o.Observer = NoOpObserver{}
	}
}

// Client is an asynchronous Tokyo Tyrant protocol client: every method
// enqueues a step program against the engine and returns immediately,
// invoking callback once the response (or a failure) is ready.
type Client struct {
	eng     *engine.Engine
	adp     adaptor.Adaptor
	opts    Options
	metrics *Metrics

	mu     sync.Mutex
	closed bool
}

// Dial opens a TCP connection to addr (host:port) and wraps it in an
// epoll-based Adaptor.
func Dial(addr string, opts Options) (*Client, error) {
	opts.fillDefaults()

	conn, err := net.DialTimeout("tcp", addr, opts.DialTimeout)
	if err != nil {
		return nil, newError("Dial", KindTransport, err)
	}
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return nil, newError("Dial", KindMisuse, errors.New("adaptor: dial did not yield a *net.TCPConn"))
	}

	a, err := adaptor.NewEpollAdaptor(tcpConn)
	if err != nil {
		tcpConn.Close()
		return nil, newError("Dial", KindTransport, err)
	}

	return NewClient(a, opts), nil
}

// NewClient wraps an already-constructed Adaptor (a concrete transport
// or MockAdaptor for tests) in a Client. Most callers should use Dial; NewClient exists for tests and
// for callers that need a non-default transport.
func NewClient(a adaptor.Adaptor, opts Options) *Client {
	opts.fillDefaults()
	return &Client{
		eng:     engine.New(a),
		adp:     a,
		opts:    opts,
		metrics: NewMetrics(),
	}
}

// Metrics returns the client's built-in metrics. Every completed
// operation is recorded here and also passed to Options.Observer. The
// client records operation counts, errors and latency; it passes zero
// sent/received byte counts, so the byte counters stay at zero.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// Close releases the underlying adaptor. Further calls on the client
// after Close return a KindMisuse error.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if closer, ok := c.adp.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// run schedules a step program onto the adaptor's loop goroutine, times
// it, records it in metrics and the configured Observer, and classifies
// any error before handing the result to callback. ctx is checked only
// before the program is scheduled: once issued, a request is not
// cancelable mid-flight, since the wire protocol has no way to abort a
// request the server has already started decoding.
func (c *Client) run(ctx context.Context, op string, kind OpKind, steps []engine.Step, callback func(engine.Result, error)) {
	if err := ctx.Err(); err != nil {
		callback(engine.Result{}, newError(op, KindMisuse, err))
		return
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		callback(engine.Result{}, newError(op, KindMisuse, errors.New("tyrant: client closed")))
		return
	}

	start := time.Now()
	c.adp.Schedule(func() {
		c.eng.Do(steps, func(r engine.Result, err error) {
			latency := uint64(time.Since(start))
			var outErr error
			if err != nil {
				outErr = classify(op, err)
			}
			c.metrics.RecordOp(kind, 0, 0, latency, outErr)
			c.opts.Observer.ObserveOp(kind, 0, 0, latency, outErr)
			callback(r, outErr)
		})
	})
}
