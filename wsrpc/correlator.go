// Package wsrpc implements the request/response correlation layer over a
// message-oriented duplex connection. Requests are tagged with monotonically
// increasing ids; responses are matched back to the pending request by id,
// with a per-request timeout. Retry policy belongs to callers.
package wsrpc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/arcpay/arcpay/logger"
	"github.com/arcpay/arcpay/types"
)

// DefaultRequestTimeout bounds one RPC round-trip.
const DefaultRequestTimeout = 30 * time.Second

// Signer produces a hex signature over an outgoing unsigned frame.
type Signer func(payload []byte) (string, error)

type outcome struct {
	res Result
	err error
}

type pendingRequest struct {
	ch    chan outcome
	timer *time.Timer
}

// Correlator matches asynchronous responses on a shared connection to the
// request that issued them. The pending map is the only shared mutable
// state; it is guarded by a mutex because requests and the read loop run on
// different goroutines.
type Correlator struct {
	timeout time.Duration
	log     logger.Logger

	mu      sync.Mutex
	conn    Conn
	nextID  uint64
	pending map[uint64]*pendingRequest
	signer  Signer
	notify  func(Result)
}

// NewCorrelator creates a correlator with the given per-request timeout.
// A zero timeout selects DefaultRequestTimeout.
func NewCorrelator(timeout time.Duration, log logger.Logger) *Correlator {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Correlator{
		timeout: timeout,
		log:     log,
		pending: make(map[uint64]*pendingRequest),
	}
}

// Bind attaches an open connection. Ids keep increasing across rebinds so a
// stale response can never match a new request.
func (c *Correlator) Bind(conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

// Connected reports whether a connection is currently bound.
func (c *Correlator) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// SetSigner installs the session-key signer applied to every outgoing
// request. A nil signer sends unsigned frames.
func (c *Correlator) SetSigner(signer Signer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signer = signer
}

// SetNotify installs the handler for server-pushed frames whose id matches
// no pending request. Without a handler such frames are dropped.
func (c *Correlator) SetNotify(fn func(Result)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = fn
}

// Call sends one request and waits for the matching response, the
// per-request timeout, or ctx cancellation, whichever comes first.
func (c *Correlator) Call(ctx context.Context, method string, params interface{}) (Result, error) {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return Result{}, types.NewError(types.ErrInvalidRequest, err.Error())
		}
		raw = data
	}

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return Result{}, types.NewError(types.ErrNotConnected, "no open connection")
	}
	c.nextID++
	id := c.nextID
	conn := c.conn
	signer := c.signer

	p := &pendingRequest{ch: make(chan outcome, 1)}
	c.pending[id] = p
	c.mu.Unlock()

	env := Envelope{ID: id, Method: method, Params: raw}
	if signer != nil {
		unsigned, err := json.Marshal(env)
		if err == nil {
			env.Sig, err = signer(unsigned)
		}
		if err != nil {
			c.remove(id)
			return Result{}, types.NewError(types.ErrInvalidRequest, "failed to sign request: "+err.Error())
		}
	}

	data, err := json.Marshal(env)
	if err != nil {
		c.remove(id)
		return Result{}, types.NewError(types.ErrInvalidRequest, err.Error())
	}

	if err := conn.WriteMessage(data); err != nil {
		c.remove(id)
		return Result{}, types.NewError(types.ErrConnection, "failed to send request: "+err.Error())
	}

	// The timer is armed under the lock, and only while the entry is still
	// pending, so Reset can stop it from another goroutine. A response that
	// raced the write has already removed the entry; no timer is needed.
	c.mu.Lock()
	if _, ok := c.pending[id]; ok {
		p.timer = time.AfterFunc(c.timeout, func() {
			c.fail(id, types.NewError(types.ErrRequestTimeout, "request timed out"))
		})
	}
	c.mu.Unlock()

	select {
	case o := <-p.ch:
		if p.timer != nil {
			p.timer.Stop()
		}
		return o.res, o.err
	case <-ctx.Done():
		if p.timer != nil {
			p.timer.Stop()
		}
		c.remove(id)
		return Result{}, ctx.Err()
	}
}

// Dispatch handles one inbound frame. A frame whose id matches a pending
// request resolves it exactly once; anything else goes to the notify
// handler or is dropped. A late response after a timeout is ignored here
// because the pending entry is already gone.
func (c *Correlator) Dispatch(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warn("dropping unparseable frame", map[string]any{"error": err.Error()})
		return
	}

	c.mu.Lock()
	p, ok := c.pending[env.ID]
	if ok {
		delete(c.pending, env.ID)
	}
	notify := c.notify
	c.mu.Unlock()

	res := parseResult(env)
	if ok {
		p.ch <- outcome{res: res}
		return
	}

	if notify != nil {
		notify(res)
		return
	}
	c.log.Debug("dropping frame with no pending request", map[string]any{"id": env.ID, "method": env.Method})
}

// Reset drops the bound connection and rejects every pending request with
// err. Safe to call repeatedly.
func (c *Correlator) Reset(err error) {
	if err == nil {
		err = types.NewError(types.ErrConnection, "connection closed")
	}

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.signer = nil
	dropped := c.pending
	c.pending = make(map[uint64]*pendingRequest)
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	for _, p := range dropped {
		if p.timer != nil {
			p.timer.Stop()
		}
		p.ch <- outcome{err: err}
	}
}

func (c *Correlator) remove(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Correlator) fail(id uint64, err error) {
	c.mu.Lock()
	p, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if ok {
		p.ch <- outcome{err: err}
	}
}
