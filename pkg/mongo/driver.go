package mongo

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/description"
)

// Conn is a live connection returned by a Driver.
type Conn interface {
	// Client returns the driver handle.
	Client() *mongo.Client
	// OnDisconnect registers fn to be called once, on its own goroutine, when the
	// transport reports that the connection is lost. A later registration replaces
	// the previous one. The observer never fires after Close.
	OnDisconnect(fn func())
	// Close disconnects the client. Closing an already closed Conn is a no-op.
	Close(ctx context.Context) error
}

// Driver establishes connections. The manager calls Connect once per attempt.
type Driver interface {
	Connect(ctx context.Context, uri string, opts map[string]any) (Conn, error)
}

// NewDriver returns the Driver backed by the official MongoDB driver.
// Unrecognized driver option keys are reported to log at debug level.
func NewDriver(log Logger) Driver {
	return &mongoDriver{log: log}
}

type mongoDriver struct {
	log Logger
}

func (d *mongoDriver) Connect(ctx context.Context, uri string, opts map[string]any) (Conn, error) {
	do, err := decodeDriverOptions(opts)
	if err != nil {
		return nil, errors.Join(ErrInvalidDriverOptions, err)
	}
	if d.log != nil {
		for _, key := range do.unknownKeys() {
			d.log.DebugContext(ctx, "passing over unsupported mongo driver option", "key", key)
		}
	}

	monitor := &disconnectMonitor{}
	clientOptions := options.Client().
		ApplyURI(uri).
		SetServerMonitor(monitor.serverMonitor())
	do.apply(clientOptions)

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, errors.Join(ErrFailedToConnectToMongo, err)
	}

	// mongo.Connect is lazy; ping to verify the server is actually reachable.
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, errors.Join(ErrFailedToConnectToMongo, err)
	}

	monitor.arm()
	return &conn{client: client, monitor: monitor}, nil
}

type conn struct {
	client  *mongo.Client
	monitor *disconnectMonitor
}

func (c *conn) Client() *mongo.Client {
	return c.client
}

func (c *conn) OnDisconnect(fn func()) {
	c.monitor.observe(fn)
}

func (c *conn) Close(ctx context.Context) error {
	c.monitor.detach()
	if err := c.client.Disconnect(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return err
	}
	return nil
}

// dataBearingKinds are the server kinds that can serve reads or writes.
var dataBearingKinds = map[string]bool{
	description.ServerKindStandalone.String():   true,
	description.ServerKindRSPrimary.String():    true,
	description.ServerKindRSSecondary.String():  true,
	description.ServerKindMongos.String():       true,
	description.ServerKindLoadBalancer.String(): true,
}

// topologyLost reports whether no server of the topology can serve data.
// A single unreachable member of a larger deployment does not count.
func topologyLost(td event.TopologyDescription) bool {
	for _, s := range td.Servers {
		if dataBearingKinds[s.Kind] {
			return false
		}
	}
	return true
}

// disconnectMonitor turns driver topology events into a one-shot
// disconnect signal. It is armed only after the initial ping succeeded, so
// failures while establishing the connection are reported by Connect instead.
type disconnectMonitor struct {
	mu       sync.Mutex
	armed    bool
	fired    bool // the topology was lost while armed
	notified bool
	detached bool
	fn       func()
}

func (m *disconnectMonitor) serverMonitor() *event.ServerMonitor {
	return &event.ServerMonitor{
		// Called with the topology locked; trigger never touches the client.
		TopologyDescriptionChanged: func(e *event.TopologyDescriptionChangedEvent) {
			if topologyLost(e.NewDescription) {
				m.trigger()
			}
		},
	}
}

func (m *disconnectMonitor) arm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = true
}

func (m *disconnectMonitor) trigger() {
	m.mu.Lock()
	if !m.armed || m.fired || m.detached {
		m.mu.Unlock()
		return
	}
	m.fired = true
	m.notifyLocked()
	m.mu.Unlock()
}

func (m *disconnectMonitor) observe(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return
	}
	m.fn = fn
	// The connection may already be gone by the time the observer registers.
	if m.fired {
		m.notifyLocked()
	}
}

func (m *disconnectMonitor) detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detached = true
	m.fn = nil
}

// notifyLocked runs the observer at most once. The caller must hold m.mu.
func (m *disconnectMonitor) notifyLocked() {
	if m.notified || m.fn == nil {
		return
	}
	m.notified = true
	go m.fn()
}
