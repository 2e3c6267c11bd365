package ws

import (
	"context"
	"errors"

	"github.com/heroiclabs/nakama-common/runtime"

	"thirteen/internal/app"
	"thirteen/internal/telemetry"
	"thirteen/internal/wire"
)

type opKind int

const (
	opRegister opKind = iota
	opMessage
	opUnregister
)

// hubOp is one unit of work for the dispatch loop. Connections, frames and
// disconnects share a channel so each client's operations keep their order.
type hubOp struct {
	kind   opKind
	client *client
	frame  []byte
}

// Hub owns the connection table and is the only caller of the service. All work
// runs on the goroutine executing Run.
type Hub struct {
	svc      *app.Service
	logger   runtime.Logger
	recorder *telemetry.Recorder

	ops     chan hubOp
	done    chan struct{}
	clients map[string]*client
}

func NewHub(svc *app.Service, logger runtime.Logger, recorder *telemetry.Recorder) *Hub {
	return &Hub{
		svc:      svc,
		logger:   logger,
		recorder: recorder,
		ops:      make(chan hubOp, 256),
		done:     make(chan struct{}),
		clients:  make(map[string]*client),
	}
}

// Run dispatches operations until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, c := range h.clients {
				_ = c.ws.Close()
			}
			return
		case op := <-h.ops:
			switch op.kind {
			case opRegister:
				h.register(op.client)
			case opMessage:
				h.handleFrame(ctx, op.client, op.frame)
			case opUnregister:
				h.unregister(op.client)
			}
		}
	}
}

// submit queues op, reporting false once the hub has stopped.
func (h *Hub) submit(op hubOp) bool {
	select {
	case h.ops <- op:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) register(c *client) {
	h.clients[c.id] = c
	h.recorder.ConnectionOpened()
	h.logger.Info("Connection %s established.", c.id)
}

func (h *Hub) unregister(c *client) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	h.recorder.ConnectionClosed()

	code, _ := h.svc.LobbyCode(c.id)
	h.logger.Info("Connection %s closed (lobby=%q).", c.id, code)
	h.deliver(h.svc.Disconnect(c.id))
}

func (h *Hub) handleFrame(ctx context.Context, c *client, frame []byte) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}

	name, data, err := wire.DecodeEnvelope(frame)
	if err != nil {
		h.logger.Warn("Malformed frame from %s: %v", c.id, err)
		h.deliver([]app.Event{h.svc.ErrorEvent(c.id, err)})
		return
	}

	req, err := wire.Decode(name, data)
	if errors.Is(err, wire.ErrUnknownEvent) {
		h.logger.Warn("Dropping %v from %s", err, c.id)
		return
	}

	_, op := h.recorder.Begin(ctx, name, c.id)
	codeBefore, _ := h.svc.LobbyCode(c.id)

	var events []app.Event
	if err == nil {
		events, err = h.svc.Handle(c.id, req)
	}

	code, bound := h.svc.LobbyCode(c.id)
	if !bound {
		code = codeBefore
	}
	op.End(code, err)

	if err != nil {
		log := h.logger.WithFields(map[string]interface{}{"conn": c.id, "kind": string(app.KindOf(err))})
		if app.KindOf(err) == app.KindInternal {
			log.Error("%s failed: %v", name, err)
		} else {
			log.Warn("%s rejected: %v", name, err)
		}
		h.deliver([]app.Event{h.svc.ErrorEvent(c.id, err)})
		return
	}

	if name == string(app.RequestCreateLobby) {
		h.logger.Info("Lobby %s created by %s.", code, c.id)
	}
	h.deliver(events)
}

// deliver encodes each event once and queues it on every recipient still
// connected. A recipient whose buffer is full is disconnected.
func (h *Hub) deliver(events []app.Event) {
	for _, ev := range events {
		frame, err := wire.EncodeEnvelope(ev)
		if err != nil {
			h.logger.Error("Failed to encode event %v: %v", ev.Kind, err)
			continue
		}
		for _, id := range ev.Recipients {
			c, ok := h.clients[id]
			if !ok {
				continue
			}
			select {
			case c.send <- frame:
			default:
				h.logger.Warn("Send buffer full for %s, closing.", id)
				_ = c.ws.Close()
			}
		}
	}
}
