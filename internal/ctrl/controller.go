// Package ctrl is the session manager and controller facade, deliberately
// merged into one process-wide singleton: a single mutex guards switch
// registration, the swid index, per-port counters, and the MAC learning
// tables, and every exported method acquires it.
package ctrl

import (
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/hybridsdn/controller/internal/config"
	"github.com/hybridsdn/controller/internal/model"
	"github.com/hybridsdn/controller/logging"
	"github.com/hybridsdn/controller/ofp"
)

var log = logging.Component("ctrl")

// switchState is the facade's private record of a connected switch.
// Every field is read or written only under Controller.mu.
type switchState struct {
	swid uint32
	dpid uint64

	conn     net.Conn
	writeMu  sync.Mutex
	closed   bool
	closedCh chan struct{}

	ports map[uint16]*model.Port

	macTable map[[6]byte]uint16

	// pendingStatsCh and pendingBarrierCh are set by whichever primitive
	// call is currently waiting on a reply for this switch. Only one waiter
	// of each kind is tracked per switch: a new call replaces the previous
	// channel, and replies are not correlated by xid.
	pendingStatsCh   chan []ofp.PortStatsEntry
	pendingBarrierCh chan struct{}

	connectedAt time.Time
}

// Controller is the process-scoped singleton. New constructs one instance;
// callers normally hold onto the pointer it returns rather than reaching
// for a package-level global, but nothing here prevents exactly one
// instance from existing per process, which is the intent.
type Controller struct {
	mu sync.Mutex

	cfg config.Config

	listener net.Listener
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup

	switches   map[uint32]*switchState
	dpidToSwID map[uint64]uint32
	nextSwID   uint32

	lldpPeriod  time.Duration
	statsPeriod time.Duration

	events chan sessionEvent

	hooks    Hooks
	hooksSet bool
}

// sessionEvent is what a session's reader goroutine forwards to the single
// dispatch loop, which handles every message of a registered session.
type sessionEvent struct {
	swid uint32
	msg  interface{} // decoded ofp message, or a disconnect{} sentinel
	err  error
}

type disconnect struct{}

// New builds a Controller. Call SetHooks then Start.
func New(cfg config.Config) *Controller {
	return &Controller{
		cfg:         cfg,
		switches:    make(map[uint32]*switchState),
		dpidToSwID:  make(map[uint64]uint32),
		nextSwID:    1, // swid is never 0 and never reused, even across reconnects
		events:      make(chan sessionEvent, 256),
		hooks:       noopHooks(),
		lldpPeriod:  cfg.LLDPPeriod(),
		statsPeriod: cfg.StatsPeriod(),
	}
}

// Start binds the listener and launches the accept loop and the single
// dispatch loop. It returns once the listener is bound; everything else
// runs in background goroutines.
func (c *Controller) Start() error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(c.cfg.ListenPort))
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.listener = ln
	c.running = true
	c.stopCh = make(chan struct{})
	c.mu.Unlock()

	c.wg.Add(2)
	go c.acceptLoop()
	go c.dispatchLoop()

	log.Info().Int("port", c.cfg.ListenPort).Msg("listening for switches")
	return nil
}

// Stop is idempotent: it closes the listener, closes every switch session,
// and only then waits for every background goroutine to exit. Closing the
// sockets first matters: each connection's reader goroutine is blocked in
// a deadline-less read, and joins the same WaitGroup Stop waits on, so
// waiting before closing would deadlock on any connected switch.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopCh)
	_ = c.listener.Close()
	for swid, ss := range c.switches {
		c.closeSwitchLocked(swid, ss)
	}
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Controller) acceptLoop() {
	defer c.wg.Done()
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			select {
			case <-c.stopCh:
				return
			default:
				log.Warn().Err(err).Msg("accept failed")
				return
			}
		}
		c.wg.Add(1)
		go c.handshakeAndServe(conn)
	}
}
