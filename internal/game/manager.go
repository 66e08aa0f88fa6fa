package game

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjackroom/internal/bank"
	"github.com/lox/blackjackroom/internal/deck"
	"github.com/lox/blackjackroom/internal/randutil"
)

// Manager owns the process-wide table slot: at most one table exists at a
// time, and every transition — open, join, action, lobby expiry, force-close
// — runs under one mutex, so a join racing the lobby timer resolves
// deterministically and multi-step sequences (dealing, dealer draws) never
// interleave with other requests.
type Manager struct {
	mu      sync.Mutex
	table   *Table
	timer   *quartz.Timer
	ledger  *bank.Ledger
	bus     EventBus
	clock   quartz.Clock
	rules   Rules
	logger  *log.Logger
	newDeck func() *deck.Deck
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock injects the clock used for the lobby timer and pacing delays.
func WithClock(clock quartz.Clock) ManagerOption {
	return func(m *Manager) { m.clock = clock }
}

// WithRules overrides the default table rules.
func WithRules(rules Rules) ManagerOption {
	return func(m *Manager) { m.rules = rules }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *log.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithSeed fixes the shuffle seed for reproducible rounds.
func WithSeed(seed int64) ManagerOption {
	return func(m *Manager) {
		m.newDeck = func() *deck.Deck { return deck.New(randutil.New(seed)) }
	}
}

// WithDeckFactory replaces deck construction entirely. Tests use this to
// stack known cards.
func WithDeckFactory(factory func() *deck.Deck) ManagerOption {
	return func(m *Manager) { m.newDeck = factory }
}

// NewManager creates a manager with an empty table slot.
func NewManager(ledger *bank.Ledger, bus EventBus, opts ...ManagerOption) *Manager {
	m := &Manager{
		ledger: ledger,
		bus:    bus,
		clock:  quartz.NewReal(),
		rules:  DefaultRules(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.newDeck == nil {
		seed := time.Now().UnixNano()
		m.newDeck = func() *deck.Deck { return deck.New(randutil.New(seed + time.Now().UnixNano())) }
	}
	return m
}

// Open creates a table in the lobby state and arms the lobby timer. Fails
// with ErrTableOpen if a table already exists.
func (m *Manager) Open(identity, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.table != nil {
		return ErrTableOpen
	}

	t := newTable(m.rules, m.ledger, m.bus, m.clock, m.logger, m.newDeck())
	m.table = t
	m.logger.Info("table opened", "by", name, "lobby", m.rules.LobbyWait)
	m.bus.Publish(TableOpenedEvent{
		Opener:    name,
		LobbyWait: m.rules.LobbyWait,
		timestamp: m.clock.Now(),
	})

	m.timer = m.clock.AfterFunc(m.rules.LobbyWait, func() {
		m.lobbyExpired(t)
	})
	return nil
}

// lobbyExpired fires when the lobby window closes. An empty lobby discards
// the table; otherwise the round runs. The table comparison guards against a
// force-close that won the lock first.
func (m *Manager) lobbyExpired(t *Table) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.table != t || t.state != StateLobby {
		return
	}

	if len(t.players) == 0 {
		m.logger.Info("lobby expired with no players")
		m.closeTable(StateClosedEmpty, CloseEmpty)
		return
	}

	t.startRound()
	m.finishIfSettled()
}

// Join seats the identity with the given bet during the lobby window.
func (m *Manager) Join(identity, name string, bet int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.table == nil {
		return ErrNoActiveLobby
	}
	return m.table.join(identity, name, bet)
}

// Act applies a hit/stand/double/split to the current hand of the acting
// identity. If the action finishes the round the table is discarded before
// Act returns.
func (m *Manager) Act(identity string, action Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.table == nil {
		return ErrNoActiveLobby
	}
	if err := m.table.act(identity, action); err != nil {
		return err
	}
	m.finishIfSettled()
	return nil
}

// HandQuery returns the identity's current hand. Allowed regardless of whose
// turn it is.
func (m *Manager) HandQuery(identity string) (HandView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.table == nil {
		return HandView{}, ErrNoActiveLobby
	}
	return m.table.handView(identity)
}

// ForceClose aborts any active table immediately. Escrowed stakes are
// refunded before the table is discarded, so the ledger reconciles across
// the abort.
func (m *Manager) ForceClose() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.table == nil {
		return ErrNoActiveLobby
	}
	m.logger.Warn("table force-closed", "state", m.table.state)
	m.table.refundAll()
	m.closeTable(StateForceClosed, CloseForced)
	return nil
}

// AdminState reports whether a table exists and, if so, its summary.
func (m *Manager) AdminState() (Summary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.table == nil {
		return Summary{}, false
	}
	return m.table.summary(), true
}

// finishIfSettled vacates the slot once the round has settled.
func (m *Manager) finishIfSettled() {
	if m.table != nil && m.table.state == StateSettled {
		m.closeTable(StateSettled, CloseSettled)
	}
}

// closeTable stops the lobby timer, records the terminal state and vacates
// the slot.
func (m *Manager) closeTable(state State, reason CloseReason) {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.table.state = state
	m.table = nil
	m.bus.Publish(TableClosedEvent{Reason: reason, timestamp: m.clock.Now()})
}
