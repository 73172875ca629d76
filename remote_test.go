package stagehand

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// remoteFixture runs a scene's update loop on its own goroutine and exposes
// it through a websocket test server, the way a harnessed game would.
type remoteFixture struct {
	scene    *Scene
	area     *Node
	srv      *httptest.Server
	client   *RemoteClient
	clicked  chan string
	dragEnds chan struct{}

	stop chan struct{}
	wg   sync.WaitGroup
}

func newRemoteFixture(t *testing.T) *remoteFixture {
	t.Helper()

	f := &remoteFixture{
		clicked:  make(chan string, 16),
		dragEnds: make(chan struct{}, 16),
		stop:     make(chan struct{}),
	}
	f.scene, f.area = newTestScene()
	// Handlers must be registered before the update goroutine starts; the
	// scene itself is not safe for concurrent mutation.
	f.scene.OnClick(func(ctx PointerContext) {
		select {
		case f.clicked <- ctx.Node.Name:
		default:
		}
	})
	f.scene.OnDragEnd(func(DragContext) {
		select {
		case f.dragEnds <- struct{}{}:
		default:
		}
	})

	rs := NewRemoteServer()
	f.scene.AttachRemote(rs)
	f.srv = httptest.NewServer(rs.Handler())

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-f.stop:
				return
			case <-ticker.C:
				f.scene.Update()
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := DialRemote(ctx, "ws"+strings.TrimPrefix(f.srv.URL, "http"))
	require.NoError(t, err)
	f.client = client

	t.Cleanup(func() {
		f.client.Close()
		f.srv.Close()
		close(f.stop)
		f.wg.Wait()
	})
	return f
}

func TestRemote_Click(t *testing.T) {
	f := newRemoteFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, f.client.Click(ctx, 50, 50))

	select {
	case name := <-f.clicked:
		assert.Equal(t, "button", name)
	case <-time.After(time.Second):
		t.Fatal("click handler did not fire")
	}
}

func TestRemote_MoveAndStatus(t *testing.T) {
	f := newRemoteFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, f.client.Move(ctx, 100, 100))

	status, err := f.client.Status(ctx)
	require.NoError(t, err)
	// Move replies only after its event is consumed, so the frame counter
	// has advanced by then.
	assert.Greater(t, status.Frame, uint64(0))
	assert.Equal(t, 0, status.Pending)
}

func TestRemote_Wait(t *testing.T) {
	f := newRemoteFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	before, err := f.client.Status(ctx)
	require.NoError(t, err)

	require.NoError(t, f.client.Wait(ctx, 10))

	after, err := f.client.Status(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after.Frame, before.Frame+10)
}

func TestRemote_Drag(t *testing.T) {
	f := newRemoteFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, f.client.Drag(ctx, 10, 10, 300, 300, 8))

	// Drag replies only after the release frame has been processed.
	select {
	case <-f.dragEnds:
	case <-time.After(time.Second):
		t.Fatal("drag end handler did not fire")
	}
}

func TestRemote_Mark(t *testing.T) {
	f := newRemoteFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, f.client.Mark(ctx, "checkpoint"))
}

func TestRemote_UnknownMethod(t *testing.T) {
	f := newRemoteFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := f.client.Call(ctx, "scene.explode", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown method")
}

func TestStepForMethod(t *testing.T) {
	st, status, err := stepForMethod("input.click", []byte(`{"x":5,"y":6}`))
	require.NoError(t, err)
	assert.False(t, status)
	assert.Equal(t, "click", st.Action)
	assert.Equal(t, 5.0, st.X)

	_, status, err = stepForMethod("scene.status", nil)
	require.NoError(t, err)
	assert.True(t, status)

	_, _, err = stepForMethod("nope", nil)
	assert.Error(t, err)
}
