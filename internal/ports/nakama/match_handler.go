package nakama

import (
	"context"
	"database/sql"
	"errors"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"thirteen/internal/app"
	"thirteen/internal/wire"
)

// MatchState holds the presences connected to this hub. Lobby state lives in the
// shared app.Service; the hub only routes messages to and from it.
type MatchState struct {
	Presences map[string]runtime.Presence // SessionId -> Presence
	label     string
}

// matchHandler serves one hub match. Every hub on the node shares svc and
// presences, so a lobby may span connections held by different hubs.
type matchHandler struct {
	svc       *app.Service
	presences *presenceTable
}

func newMatchHandler(svc *app.Service, presences *presenceTable) *matchHandler {
	return &matchHandler{svc: svc, presences: presences}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing hub match.")

	state := &MatchState{
		Presences: make(map[string]runtime.Presence),
	}

	label, err := mh.buildLabel(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	state.label = label

	return state, hubTickRate, label
}

// MatchJoinAttempt admits every connection; lobby capacity is enforced per lobby.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	if _, ok := state.(*MatchState); !ok {
		return state, false, "state not found"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetSessionId()] = p
		mh.presences.add(p, dispatcher)
		logger.Info("MatchJoin: Connection %s (user %s) established.", p.GetSessionId(), p.GetUserId())
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave treats each departing presence as a closed connection.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		connectionID := p.GetSessionId()
		if _, known := matchState.Presences[connectionID]; !known {
			continue
		}
		delete(matchState.Presences, connectionID)
		mh.presences.remove(connectionID, dispatcher)

		code, _ := mh.svc.LobbyCode(connectionID)
		events := mh.svc.Disconnect(connectionID)
		logger.Info("MatchLeave: Connection %s closed (lobby=%q).", connectionID, code)
		for _, ev := range events {
			mh.broadcastEvent(logger, ev)
		}
	}

	// The hub outlives its connections; new sessions rejoin the same match.
	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	for _, msg := range messages {
		name, known := wire.RequestName(msg.GetOpCode())
		if !known {
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
			continue
		}
		mh.handleMessage(logger, msg.GetSessionId(), name, msg.GetData())
	}

	if len(messages) > 0 {
		mh.updateLabel(matchState, dispatcher, logger)
	}
	return matchState
}

// handleMessage decodes one inbound message, runs it through the service and
// dispatches the resulting events, or an error to the sender.
func (mh *matchHandler) handleMessage(logger runtime.Logger, connectionID, name string, data []byte) {
	codeBefore, _ := mh.svc.LobbyCode(connectionID)

	var events []app.Event
	req, err := wire.Decode(name, data)
	if err == nil {
		events, err = mh.svc.Handle(connectionID, req)
	}

	code, _ := mh.svc.LobbyCode(connectionID)

	if err != nil {
		if errors.Is(err, wire.ErrUnknownEvent) {
			logger.Warn("handleMessage: Dropping %v from %s", err, connectionID)
			return
		}
		log := logger.WithFields(map[string]interface{}{"conn": connectionID, "kind": string(app.KindOf(err))})
		if app.KindOf(err) == app.KindInternal {
			log.Error("handleMessage: %s failed: %v", name, err)
		} else {
			log.Warn("handleMessage: %s rejected: %v", name, err)
		}
		mh.broadcastEvent(logger, mh.svc.ErrorEvent(connectionID, err))
		return
	}

	switch name {
	case string(app.RequestCreateLobby):
		logger.Info("handleMessage: Lobby %s created by %s.", code, connectionID)
	case string(app.RequestLeaveLobby):
		if _, err := mh.svc.Describe(codeBefore); err != nil {
			logger.Info("handleMessage: Lobby %s deleted.", codeBefore)
		}
	}

	for _, ev := range events {
		mh.broadcastEvent(logger, ev)
	}
}

// broadcastEvent encodes an app event and sends it to its recipients through the
// hub each of them is connected to.
func (mh *matchHandler) broadcastEvent(logger runtime.Logger, ev app.Event) {
	opCode, ok := wire.EventOpCode(ev.Kind)
	if !ok {
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := wire.EncodePayload(ev)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Groups are never empty; a nil presence list would broadcast to a whole hub.
	dispatchers, groups := mh.presences.route(ev.Recipients)
	for _, d := range dispatchers {
		if err := d.BroadcastMessage(opCode, bytes, groups[d], nil, true); err != nil {
			logger.Error("Failed to dispatch event %v: %v", ev.Kind, err)
		}
	}
}

func (mh *matchHandler) buildLabel(state *MatchState) (string, error) {
	label, err := structpb.NewStruct(map[string]interface{}{
		MatchLabelKeyHub:         true,
		MatchLabelKeyLobbies:     mh.svc.LobbyCount(),
		MatchLabelKeyConnections: len(state.Presences),
	})
	if err != nil {
		return "", err
	}
	b, err := protojson.Marshal(label)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := mh.buildLabel(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if label == state.label {
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
		return
	}
	state.label = label
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Hub terminating with %d seconds grace", graceSeconds)
	if matchState, ok := state.(*MatchState); ok {
		for id := range matchState.Presences {
			mh.presences.remove(id, dispatcher)
		}
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
