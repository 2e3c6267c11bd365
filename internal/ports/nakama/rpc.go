package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"

	"thirteen/internal/app"
	"thirteen/internal/wire"
)

// HubResponse is the payload returned to clients locating the hub match.
type HubResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

type rpcHandlers struct {
	svc *app.Service

	// hubMu serializes hub lookups so concurrent callers on this node cannot
	// create two hubs. hubID remembers the hub this node created or found, since
	// a freshly created match is not listable until its label is indexed.
	hubMu sync.Mutex
	hubID string
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer, svc *app.Service) error {
	h := &rpcHandlers{svc: svc}
	if err := initializer.RegisterRpc(RpcLobbyHub, h.rpcLobbyHub); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcLobbyInfo, h.rpcLobbyInfo); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcVoiceToken, h.rpcVoiceToken)
}

func (h *rpcHandlers) rpcLobbyHub(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	h.hubMu.Lock()
	defer h.hubMu.Unlock()

	if h.hubID != "" {
		match, err := nk.MatchGet(ctx, h.hubID)
		if err == nil && match != nil {
			return hubResponse(h.hubID, false), nil
		}
		logger.Warn("Hub match %s is gone, looking for another.", h.hubID)
		h.hubID = ""
	}

	query := fmt.Sprintf("+label.%s:T", MatchLabelKeyHub)
	matches, err := nk.MatchList(ctx, 1, true, "", nil, nil, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}

	if len(matches) > 0 {
		h.hubID = matches[0].GetMatchId()
		return hubResponse(h.hubID, false), nil
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameHub, map[string]interface{}{})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}
	logger.Info("Created hub match %s", matchID)
	h.hubID = matchID

	return hubResponse(matchID, true), nil
}

func hubResponse(matchID string, isNew bool) string {
	b, _ := json.Marshal(HubResponse{MatchID: matchID, IsNew: isNew})
	return string(b)
}

// rpcLobbyInfo describes a lobby. Payload: "ABCD" or {"code":"ABCD"}.
func (h *rpcHandlers) rpcLobbyInfo(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	code, err := wire.DecodeCode([]byte(payload))
	if err != nil {
		return "", rpcError(err)
	}

	summary, err := h.svc.Describe(code)
	if err != nil {
		return "", rpcError(err)
	}

	b, err := json.Marshal(summary)
	if err != nil {
		logger.Error("Failed to marshal lobby summary: %v", err)
		return "", runtime.NewError("Internal error", codeInternal)
	}
	return string(b), nil
}

// rpcVoiceToken issues a voice token for the calling session, the same connection
// id the hub match knows it by. Payload: {"action":"login"|"join"}.
func (h *rpcHandlers) rpcVoiceToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	sessionID, _ := ctx.Value(runtime.RUNTIME_CTX_SESSION_ID).(string)
	if sessionID == "" {
		return "", runtime.NewError("Session required", codeFailedPrecondition)
	}

	req, err := wire.Decode(string(app.RequestVoiceToken), []byte(payload))
	if err != nil {
		return "", rpcError(err)
	}
	events, err := h.svc.Handle(sessionID, req)
	if err != nil {
		if app.KindOf(err) == app.KindInternal {
			logger.Error("Failed to generate voice token: %v", err)
		}
		return "", rpcError(err)
	}

	b, err := json.Marshal(events[0].Payload)
	if err != nil {
		return "", runtime.NewError("Internal error", codeInternal)
	}
	return string(b), nil
}

// rpcError maps a service rejection onto a Nakama RPC error.
func rpcError(err error) error {
	msg := app.ErrInternal.Message
	if app.KindOf(err) != app.KindInternal {
		msg = err.Error()
	}

	switch app.KindOf(err) {
	case app.KindValidation:
		return runtime.NewError(msg, codeInvalidArgument)
	case app.KindNotFound:
		return runtime.NewError(msg, codeNotFound)
	case app.KindUnavailable:
		return runtime.NewError(msg, codeUnavailable)
	case app.KindInternal:
		return runtime.NewError(msg, codeInternal)
	default:
		return runtime.NewError(msg, codeFailedPrecondition)
	}
}
