package mongo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"

	"github.com/dmitrymomot/mongokeeper/pkg/async"
	"github.com/dmitrymomot/mongokeeper/pkg/logger"
	"github.com/dmitrymomot/mongokeeper/pkg/statemachine"
)

// State is the lifecycle state of a Manager.
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateFailed       State = "failed"
)

type lifecycleEvent string

const (
	eventStart   lifecycleEvent = "start"
	eventSucceed lifecycleEvent = "succeed"
	eventGiveUp  lifecycleEvent = "give_up"
	eventLose    lifecycleEvent = "lose"
	eventClose   lifecycleEvent = "close"
)

// releaseTimeout bounds the background disconnect of a lost or replaced client.
const releaseTimeout = 10 * time.Second

// Manager owns the single shared MongoDB connection: it connects with
// retries, hands out client/database/collection handles while connected and
// reconnects on its own when the connection drops.
type Manager struct {
	resolver *Resolver
	driver   Driver
	fsm      *statemachine.Machine[State, lifecycleEvent]

	mu       sync.Mutex
	conn     Conn
	attempts int
	pending  *async.Promise[*mongo.Client]
	cancel   context.CancelFunc
	database string
	gen      uint64 // bumped whenever the current connection or sequence is abandoned
}

// Option configures a Manager.
type Option func(*Manager)

// WithDriver replaces the default driver. Mostly useful in tests.
func WithDriver(d Driver) Option {
	return func(m *Manager) {
		if d != nil {
			m.driver = d
		}
	}
}

// WithLogger installs the logger, same as passing it under KeyLogger.
func WithLogger(l Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.resolver.Merge(Settings{KeyLogger: l})
		}
	}
}

// WithSettings merges initial settings over the defaults.
func WithSettings(s Settings) Option {
	return func(m *Manager) {
		m.resolver.Merge(s)
	}
}

// New creates an idle manager. Nothing is dialed until Connect.
func New(opts ...Option) *Manager {
	m := &Manager{
		resolver: NewResolver(slog.Default().With(logger.Component("mongo"))),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.driver == nil {
		m.driver = NewDriver(m.resolver.Logger())
	}

	m.fsm = statemachine.MustNew(StateIdle,
		statemachine.WithTransition(StateIdle, StateConnecting, eventStart),
		statemachine.WithTransition(StateFailed, StateConnecting, eventStart),
		statemachine.WithTransition(StateReconnecting, StateConnecting, eventStart),
		statemachine.WithTransition(StateConnecting, StateConnected, eventSucceed),
		statemachine.WithTransition(StateConnecting, StateFailed, eventGiveUp),
		statemachine.WithTransition(StateConnected, StateReconnecting, eventLose,
			statemachine.WithGuard(reconnectEnabled),
		),
		statemachine.WithTransition(StateConnected, StateIdle, eventLose),
		statemachine.WithTransition(StateIdle, StateIdle, eventClose),
		statemachine.WithTransition(StateConnecting, StateIdle, eventClose),
		statemachine.WithTransition(StateConnected, StateIdle, eventClose),
		statemachine.WithTransition(StateReconnecting, StateIdle, eventClose),
		statemachine.WithTransition(StateFailed, StateIdle, eventClose),
		statemachine.WithListener(m.logTransition),
	)
	return m
}

func reconnectEnabled(_ context.Context, _ State, _ lifecycleEvent, data any) bool {
	enabled, _ := data.(bool)
	return enabled
}

func (m *Manager) logTransition(ctx context.Context, from, to State, e lifecycleEvent) {
	m.log().DebugContext(ctx, "mongo connection state changed",
		logger.Transition(string(from), string(to), string(e)),
	)
}

func (m *Manager) log() Logger {
	return m.resolver.Logger()
}

// fire applies a transition the caller already knows to be valid.
func (m *Manager) fire(e lifecycleEvent, data any) {
	if err := m.fsm.Fire(context.Background(), e, data); err != nil {
		m.log().ErrorContext(context.Background(), "unexpected mongo state transition",
			logger.State(string(m.fsm.Current())),
			logger.Error(err),
		)
	}
}

// start returns the completion of the current connect sequence, starting a
// new sequence when none is running.
func (m *Manager) start(s Settings) *async.Future[*mongo.Client] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(s)
}

// startLocked is start for callers already holding m.mu.
func (m *Manager) startLocked(s Settings) *async.Future[*mongo.Client] {
	switch m.fsm.Current() {
	case StateConnecting:
		if len(s) > 0 {
			m.log().WarnContext(context.Background(), "connect already in progress, settings ignored")
		}
		return m.pending.Future()
	case StateConnected:
		if len(s) == 0 {
			return async.Resolved(m.conn.Client())
		}
		// New settings replace the live connection.
		m.releaseLocked()
		m.fire(eventClose, nil)
	}

	m.resolver.Merge(s)
	uri := m.resolver.ConnectionString()
	cfg := m.resolver.Config()
	seq := sequence{
		id:       uuid.NewString(),
		cfg:      cfg,
		uri:      uri,
		database: defaultDatabase(uri, cfg.Database),
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := async.NewPromise[*mongo.Client]()
	m.pending = p
	m.cancel = cancel
	m.gen++

	m.fire(eventStart, nil)
	go m.run(ctx, p, seq)

	return p.Future()
}

// sequence is the input of one connect sequence, fixed when it starts.
type sequence struct {
	id       string
	cfg      Config
	uri      string
	database string // default database for DB()
}

// defaultDatabase prefers the database named in the connection string.
func defaultDatabase(uri, fallback string) string {
	cs, err := connstring.Parse(uri)
	if err != nil || cs.Database == "" {
		return fallback
	}
	return cs.Database
}

// run drives one connect sequence to Connected or Failed.
func (m *Manager) run(ctx context.Context, p *async.Promise[*mongo.Client], sq sequence) {
	log := m.log()
	policy := PolicyFor(sq.cfg)
	seq := logger.SequenceID(sq.id)

	var (
		established Conn
		attempts    int
	)
	backoff := policy.backoff(func() int { return attempts })
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		attempt := attempts
		m.publishAttempts(p, attempt)
		log.DebugContext(ctx, "trying to connect to mongo", seq,
			logger.Attempt(attempt),
			logger.MaxAttempts(policy.MaxAttempts),
		)

		c, err := m.driver.Connect(ctx, sq.uri, sq.cfg.DriverOptions)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.ErrorContext(ctx, "cannot connect to mongo", seq,
				logger.Attempt(attempt),
				logger.Error(err),
			)
			if !policy.Exhausted(attempt) {
				log.DebugContext(ctx, "retrying mongo connect", seq, logger.RetryDelay(policy.NextDelay()))
			}
			return retry.RetryableError(err)
		}

		established = c
		return nil
	})

	m.finish(ctx, p, sq, attempts, established, err)
}

func (m *Manager) finish(ctx context.Context, p *async.Promise[*mongo.Client], sq sequence, attempts int, c Conn, err error) {
	log := m.log()
	seq := logger.SequenceID(sq.id)

	m.mu.Lock()
	if m.pending != p {
		// Closed while connecting: the promise is already settled.
		m.mu.Unlock()
		if c != nil {
			m.release(c)
		}
		p.Reject(ErrConnectCanceled)
		return
	}
	canceled := ctx.Err() != nil
	if m.cancel != nil {
		m.cancel()
	}
	m.pending = nil
	m.cancel = nil
	m.attempts = 0

	switch {
	case err == nil:
		m.conn = c
		m.database = sq.database
		gen := m.gen
		c.OnDisconnect(func() { m.handleDisconnect(gen) })
		m.fire(eventSucceed, nil)
		m.mu.Unlock()

		log.InfoContext(ctx, "connected to mongo", seq, logger.Attempt(attempts))
		p.Resolve(c.Client())

	case canceled:
		m.fire(eventClose, nil)
		m.mu.Unlock()
		p.Reject(errors.Join(ErrConnectCanceled, err))

	default:
		m.fire(eventGiveUp, nil)
		m.mu.Unlock()

		log.ErrorContext(context.Background(), "mongo connect failed and will not be retried", seq,
			logger.Attempt(attempts),
			logger.Error(err),
		)
		p.Reject(&AttemptsExhaustedError{Attempts: attempts, Err: err})
	}
}

// handleDisconnect is the one-shot observer registered on every connection.
func (m *Manager) handleDisconnect(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.conn == nil {
		return
	}

	ctx := context.Background()
	reconnect := m.resolver.Config().ReconnectOnDisconnect
	m.releaseLocked()
	m.fire(eventLose, reconnect)
	m.log().WarnContext(ctx, "lost connection to mongo")

	if reconnect {
		m.log().InfoContext(ctx, "trying to reconnect to mongo")
		m.startLocked(nil)
	}
}

// releaseLocked forgets the live connection and disconnects it in the background.
// The caller must hold m.mu.
func (m *Manager) releaseLocked() {
	if m.conn == nil {
		return
	}
	c := m.conn
	m.conn = nil
	m.gen++
	m.release(c)
}

func (m *Manager) release(c Conn) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := c.Close(ctx); err != nil {
			m.log().DebugContext(ctx, "failed to release mongo client", logger.Error(err))
		}
	}()
}

// publishAttempts exposes the attempt count of p's sequence through Attempts.
// Counts from a sequence that was closed or replaced are dropped.
func (m *Manager) publishAttempts(p *async.Promise[*mongo.Client], attempts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == p {
		m.attempts = attempts
	}
}

// Close disconnects the live client. It is a successful no-op when not
// connected. A connect sequence in progress is canceled, including its retry
// delay, and its callers receive ErrConnectCanceled. With force, in-use
// connections are closed without waiting for them to be returned to the pool.
func (m *Manager) Close(ctx context.Context, force bool) error {
	m.mu.Lock()
	c := m.conn
	p := m.pending
	cancel := m.cancel
	m.conn = nil
	m.pending = nil
	m.cancel = nil
	m.attempts = 0
	m.gen++
	m.fire(eventClose, nil)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if p != nil {
		p.Reject(ErrConnectCanceled)
	}
	if c == nil {
		return nil
	}

	closeCtx := ctx
	if force {
		var expire context.CancelFunc
		closeCtx, expire = context.WithCancel(ctx)
		expire()
	}
	if err := c.Close(closeCtx); err != nil {
		if force && errors.Is(err, context.Canceled) {
			return nil
		}
		return errors.Join(ErrDisconnect, err)
	}
	m.log().InfoContext(ctx, "mongo connection closed")
	return nil
}

// Client returns the live client, or nil when not connected.
func (m *Manager) Client() *mongo.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	return m.conn.Client()
}

// DB returns a database handle, or nil when not connected. Without a name the
// database from the connection string is used, falling back to the configured one.
func (m *Manager) DB(name ...string) *mongo.Database {
	m.mu.Lock()
	conn, database := m.conn, m.database
	m.mu.Unlock()
	if conn == nil {
		return nil
	}
	if len(name) > 0 && name[0] != "" {
		database = name[0]
	}
	return conn.Client().Database(database)
}

// Collection returns a handle to a collection of the configured database, or
// nil when not connected.
func (m *Manager) Collection(name string) *mongo.Collection {
	db := m.DB()
	if db == nil {
		return nil
	}
	return db.Collection(name)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return m.fsm.Current()
}

// Attempts returns the number of attempts made by the running connect sequence.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Config returns a snapshot of the stored configuration.
func (m *Manager) Config() Config {
	return m.resolver.Config()
}

// ConnectionString returns the URL the next connect sequence will use.
func (m *Manager) ConnectionString() string {
	return m.resolver.ConnectionString()
}

// SetConfig merges s into the stored configuration. Changes apply to the next
// connect sequence. It fails with ErrConfigLocked while connecting.
func (m *Manager) SetConfig(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fsm.Is(StateConnecting, StateReconnecting) {
		return ErrConfigLocked
	}
	m.resolver.Merge(s)
	return nil
}

// ResetConfig restores the default configuration and forgets the live
// connection and the attempt counter. It fails with ErrConfigLocked while
// connecting.
func (m *Manager) ResetConfig() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fsm.Is(StateConnecting, StateReconnecting) {
		return ErrConfigLocked
	}
	m.releaseLocked()
	m.attempts = 0
	m.resolver.Reset()
	m.fsm.Reset()
	return nil
}
