package frames

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/domain"
)

// Names of the events sent to the shell page.
const (
	LoadEvent      = "load"
	SyncEvent      = "sync"
	ShowEvent      = "show"
	HideEvent      = "hide"
	LoadingEvent   = "loading"
	AlertEvent     = "alert"
	DashboardEvent = "dashboard"
	SessionEvent   = "session"
)

const eventBuffer = 64

var ErrUnknownAck = errors.New("acknowledgment matches no pending message")

// Event is one message for the shell page's event stream.
type Event struct {
	Name string
	Data any
}

// LoadData asks the page to create the iframe of a route.
type LoadData struct {
	Route   string `json:"route"`
	Address string `json:"address"`
}

// SyncData asks the page to post Message into a route's iframe, restricted to TargetOrigin, and to report the
// child's acknowledgment under Nonce.
type SyncData struct {
	Route        string          `json:"route"`
	Nonce        string          `json:"nonce"`
	TargetOrigin string          `json:"targetOrigin"`
	Message      domain.SyncAuth `json:"message"`
}

// Hub is the browser side of one shell. It queues the events the page reads from its event stream, and hands
// the page's load and acknowledgment callbacks to the frames waiting for them. It implements Embedder and
// Surface.
type Hub struct {
	origin string
	events chan Event
	done   chan struct{}
	once   sync.Once
	sendMu sync.Mutex

	mu       sync.Mutex
	channels map[string]*Channel
}

var (
	_ Embedder = (*Hub)(nil)
	_ Surface  = (*Hub)(nil)
	_ Frame    = (*Channel)(nil)
)

// NewHub returns the hub of a shell served from origin, the only origin child applications are addressed with.
func NewHub(origin string) *Hub {
	return &Hub{
		origin:   origin,
		events:   make(chan Event, eventBuffer),
		done:     make(chan struct{}),
		channels: map[string]*Channel{},
	}
}

// Events is drained by the page's event stream.
func (h *Hub) Events() <-chan Event {
	return h.events
}

// Done is closed by Close.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// send queues ev. When the page falls behind and the queue is full, the oldest queued event is dropped: the
// newest sync or loading state is the one the page needs.
func (h *Hub) send(ev Event) error {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	for {
		select {
		case <-h.done:
			return ErrClosed
		default:
		}
		select {
		case h.events <- ev:
			return nil
		default:
		}
		select {
		case old := <-h.events:
			log.Warn().Str("event", old.Name).Msg("shell event stream is full, dropping oldest event")
		default:
		}
	}
}

func (h *Hub) Embed(route, address string) (Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &Channel{
		hub:     h,
		route:   route,
		address: address,
		loaded:  make(chan struct{}),
		pending: map[string]chan struct{}{},
	}
	h.channels[route] = c
	return c, nil
}

func (h *Hub) channel(route string) (*Channel, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.channels[route]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRoute, route)
	}
	return c, nil
}

// Loaded is called when the page reports that a route's iframe finished loading.
func (h *Hub) Loaded(route string) error {
	c, err := h.channel(route)
	if err != nil {
		return err
	}
	c.once.Do(func() { close(c.loaded) })
	return nil
}

// Ack is called when the page forwards a child application's acknowledgment.
func (h *Hub) Ack(ack domain.AuthAck) error {
	if ack.Type != domain.AuthAckType {
		return fmt.Errorf("unexpected message type %q", ack.Type)
	}
	c, err := h.channel(ack.Route)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.pending[ack.Nonce]
	if !ok {
		return ErrUnknownAck
	}
	delete(c.pending, ack.Nonce)
	close(ch)
	return nil
}

func (h *Hub) Loading(on bool) {
	_ = h.send(Event{Name: LoadingEvent, Data: on})
}

func (h *Hub) Alert(msg string) {
	_ = h.send(Event{Name: AlertEvent, Data: msg})
}

func (h *Hub) Dashboard(visible bool) {
	_ = h.send(Event{Name: DashboardEvent, Data: visible})
}

func (h *Hub) Session(signedIn bool) {
	_ = h.send(Event{Name: SessionEvent, Data: signedIn})
}

func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
}

// Channel is the frame of one route, driven through its hub.
type Channel struct {
	hub     *Hub
	route   string
	address string
	loaded  chan struct{}
	once    sync.Once

	mu      sync.Mutex
	pending map[string]chan struct{}
}

func (c *Channel) Load(ctx context.Context) error {
	if err := c.hub.send(Event{Name: LoadEvent, Data: LoadData{Route: c.route, Address: c.address}}); err != nil {
		return err
	}
	select {
	case <-c.loaded:
		return nil
	case <-c.hub.done:
		return ErrClosed
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrLoadTimeout
		}
		return ctx.Err()
	}
}

func (c *Channel) Post(ctx context.Context, msg domain.SyncAuth) error {
	nonce := uuid.NewString()
	acked := make(chan struct{})
	c.mu.Lock()
	c.pending[nonce] = acked
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, nonce)
		c.mu.Unlock()
	}()

	err := c.hub.send(Event{Name: SyncEvent, Data: SyncData{
		Route:        c.route,
		Nonce:        nonce,
		TargetOrigin: c.hub.origin,
		Message:      msg,
	}})
	if err != nil {
		return err
	}

	select {
	case <-acked:
		return nil
	case <-c.hub.done:
		return ErrClosed
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrAckTimeout
		}
		return ctx.Err()
	}
}

func (c *Channel) SetVisible(visible bool) {
	name := HideEvent
	if visible {
		name = ShowEvent
	}
	_ = c.hub.send(Event{Name: name, Data: c.route})
}
