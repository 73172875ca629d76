package stagehand

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// Remote control channel: id-correlated JSON envelopes over a websocket.
// A RemoteServer is stepped by the scene once per frame and applies one
// command at a time, replying when the command's injected events have all
// been consumed.

const defaultCallTimeout = 20 * time.Second

type remoteEnvelope struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *remoteError    `json:"error,omitempty"`
}

type remoteError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type remoteResult struct {
	data json.RawMessage
	err  error
}

type remoteCmd struct {
	step   Step
	status bool
	done   chan remoteResult
}

type remoteWait struct {
	remaining int
	done      chan remoteResult
}

// RemoteStatus is the result of the "scene.status" method.
type RemoteStatus struct {
	Frame   uint64 `json:"frame"`
	Pending int    `json:"pending"`
}

// RemoteServer accepts websocket control connections and feeds their
// commands into a scene, one per frame. Commands queue behind each other
// and behind pending synthetic events.
type RemoteServer struct {
	mu      sync.Mutex
	pending []remoteCmd

	// Touched only from the scene's update goroutine.
	sim     *Simulator
	waiting *remoteWait
}

// NewRemoteServer creates an unattached remote server.
func NewRemoteServer() *RemoteServer {
	return &RemoteServer{}
}

// AttachRemote attaches the remote server to the scene so commands are
// applied on frame boundaries.
func (s *Scene) AttachRemote(rs *RemoteServer) {
	s.addStepper(rs)
}

func (rs *RemoteServer) push(cmd remoteCmd) {
	rs.mu.Lock()
	rs.pending = append(rs.pending, cmd)
	rs.mu.Unlock()
}

func (rs *RemoteServer) pop() (remoteCmd, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.pending) == 0 {
		return remoteCmd{}, false
	}
	cmd := rs.pending[0]
	copy(rs.pending, rs.pending[1:])
	rs.pending[len(rs.pending)-1] = remoteCmd{}
	rs.pending = rs.pending[:len(rs.pending)-1]
	return cmd, true
}

// step applies at most one remote command per frame.
func (rs *RemoteServer) step(s *Scene) {
	if rs.waiting != nil {
		rs.waiting.remaining--
		if rs.waiting.remaining <= 0 {
			rs.waiting.done <- remoteResult{}
			rs.waiting = nil
		}
		return
	}
	if s.Pending() > 0 {
		return
	}

	cmd, ok := rs.pop()
	if !ok {
		return
	}

	if rs.sim == nil {
		rs.sim = NewSimulator(s)
	}

	if cmd.status {
		data, err := json.Marshal(RemoteStatus{Frame: s.Frame(), Pending: s.Pending()})
		cmd.done <- remoteResult{data: data, err: err}
		return
	}

	if cmd.step.Action == "wait" {
		frames := cmd.step.Frames
		if frames < 1 {
			frames = 1
		}
		rs.waiting = &remoteWait{remaining: frames, done: cmd.done}
		return
	}

	seqDone := executeStep(rs.sim, cmd.step)
	if seqDone == nil {
		cmd.done <- remoteResult{}
		return
	}
	go func() {
		<-seqDone
		cmd.done <- remoteResult{}
	}()
}

// Handler returns an http.Handler that upgrades requests to websocket
// control connections. Commands on one connection are processed in order.
func (rs *RemoteServer) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := websocket.Accept(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "closing")

		ctx := req.Context()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var env remoteEnvelope
			if err := json.Unmarshal(data, &env); err != nil {
				continue
			}

			reply := rs.dispatch(ctx, env)
			out, err := json.Marshal(reply)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, out); err != nil {
				return
			}
		}
	})
}

func (rs *RemoteServer) dispatch(ctx context.Context, env remoteEnvelope) remoteEnvelope {
	step, status, err := stepForMethod(env.Method, env.Params)
	if err != nil {
		return errorEnvelope(env.ID, 400, err)
	}

	done := make(chan remoteResult, 1)
	rs.push(remoteCmd{step: step, status: status, done: done})

	select {
	case res := <-done:
		if res.err != nil {
			return errorEnvelope(env.ID, 500, res.err)
		}
		return remoteEnvelope{ID: env.ID, Result: res.data}
	case <-ctx.Done():
		return errorEnvelope(env.ID, 408, ctx.Err())
	}
}

func stepForMethod(method string, params json.RawMessage) (Step, bool, error) {
	var st Step
	if len(params) > 0 {
		if err := json.Unmarshal(params, &st); err != nil {
			return st, false, fmt.Errorf("decode %s params: %w", method, err)
		}
	}
	switch method {
	case "input.move":
		st.Action = "move"
	case "input.click":
		st.Action = "click"
	case "input.drag":
		st.Action = "drag"
	case "scene.wait":
		st.Action = "wait"
	case "scene.mark":
		st.Action = "mark"
	case "scene.status":
		return st, true, nil
	default:
		return st, false, fmt.Errorf("unknown method %q", method)
	}
	return st, false, nil
}

func errorEnvelope(id int64, code int, err error) remoteEnvelope {
	return remoteEnvelope{ID: id, Error: &remoteError{Code: code, Message: err.Error()}}
}

// --- Client ---

// RemoteClient drives a RemoteServer over a websocket.
type RemoteClient struct {
	conn      *websocket.Conn
	idCounter int64
	mu        sync.Mutex
}

// DialRemote connects to a remote control endpoint. http:// and ws:// URLs
// are both accepted.
func DialRemote(ctx context.Context, url string) (*RemoteClient, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial remote control: %w", err)
	}
	return &RemoteClient{conn: conn}, nil
}

// Close closes the connection.
func (c *RemoteClient) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "closing")
}

// Call sends one method invocation and decodes the correlated response
// into out (which may be nil).
func (c *RemoteClient) Call(ctx context.Context, method string, params any, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.idCounter++
	requestID := c.idCounter

	env := remoteEnvelope{ID: requestID, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode %s params: %w", method, err)
		}
		env.Params = raw
	}

	deadline := time.Now().Add(defaultCallTimeout)
	if explicit, ok := ctx.Deadline(); ok {
		deadline = explicit
	}

	writeCtx, cancelWrite := context.WithDeadline(ctx, deadline)
	defer cancelWrite()
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}
	if err := c.conn.Write(writeCtx, websocket.MessageText, payload); err != nil {
		return fmt.Errorf("write %s request: %w", method, err)
	}

	for {
		readCtx, cancelRead := context.WithDeadline(ctx, deadline)
		_, message, err := c.conn.Read(readCtx)
		cancelRead()
		if err != nil {
			return fmt.Errorf("read %s response: %w", method, err)
		}

		var reply remoteEnvelope
		if err := json.Unmarshal(message, &reply); err != nil {
			continue
		}
		if reply.ID != requestID {
			continue
		}

		if reply.Error != nil {
			return fmt.Errorf("remote %s failed (%d): %s", method, reply.Error.Code, reply.Error.Message)
		}
		if out != nil && len(reply.Result) > 0 {
			if err := json.Unmarshal(reply.Result, out); err != nil {
				return fmt.Errorf("decode %s response: %w", method, err)
			}
		}
		return nil
	}
}

// Move dispatches a pointer motion to (x, y).
func (c *RemoteClient) Move(ctx context.Context, x, y float64) error {
	return c.Call(ctx, "input.move", Step{X: x, Y: y}, nil)
}

// Click runs a click sequence at (x, y) and returns when it has been
// fully consumed.
func (c *RemoteClient) Click(ctx context.Context, x, y float64) error {
	return c.Call(ctx, "input.click", Step{X: x, Y: y}, nil)
}

// Drag runs a drag sequence and returns when it has been fully consumed.
func (c *RemoteClient) Drag(ctx context.Context, fromX, fromY, toX, toY float64, frames int) error {
	return c.Call(ctx, "input.drag", Step{FromX: fromX, FromY: fromY, ToX: toX, ToY: toY, Frames: frames}, nil)
}

// Wait blocks until the scene has advanced the given number of frames.
func (c *RemoteClient) Wait(ctx context.Context, frames int) error {
	return c.Call(ctx, "scene.wait", Step{Frames: frames}, nil)
}

// Mark emits a labeled marker into the scene's event taps.
func (c *RemoteClient) Mark(ctx context.Context, label string) error {
	return c.Call(ctx, "scene.mark", Step{Label: label}, nil)
}

// Status reports the scene's frame counter and pending event count.
func (c *RemoteClient) Status(ctx context.Context) (RemoteStatus, error) {
	var status RemoteStatus
	err := c.Call(ctx, "scene.status", nil, &status)
	return status, err
}
