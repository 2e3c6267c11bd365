// Package wire converts transport frames to app requests and app events to frames.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"thirteen/internal/app"
)

// ErrUnknownEvent is returned for inbound names no handler exists for. Transports
// log and drop these instead of answering.
var ErrUnknownEvent = errors.New("unknown event")

var requestKinds = map[app.RequestKind]bool{
	app.RequestCreateLobby: true,
	app.RequestJoinLobby:   true,
	app.RequestLeaveLobby:  true,
	app.RequestStartGame:   true,
	app.RequestAssignHost:  true,
	app.RequestVoiceToken:  true,
}

// Envelope is the WebSocket frame shape in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Decode validates the payload shape for the named message and returns the typed
// request. Shape failures are reported as app.ErrMalformedRequest.
func Decode(name string, data []byte) (app.Request, error) {
	kind := app.RequestKind(name)
	if !requestKinds[kind] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}

	v, err := parseValue(data)
	if err != nil {
		return nil, app.ErrMalformedRequest
	}

	switch kind {
	case app.RequestCreateLobby:
		if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			return app.CreateLobby{PlayerName: s.StringValue}, nil
		}
		f, err := object(v)
		if err != nil {
			return nil, err
		}
		var req app.CreateLobby
		if req.PlayerName, err = optionalString(f, "playerName"); err != nil {
			return nil, err
		}
		if req.LobbyName, err = optionalString(f, "lobbyName"); err != nil {
			return nil, err
		}
		return req, nil

	case app.RequestJoinLobby:
		f, err := object(v)
		if err != nil {
			return nil, err
		}
		var req app.JoinLobby
		if req.Code, err = requiredString(f, "code"); err != nil {
			return nil, err
		}
		if req.PlayerName, err = optionalString(f, "playerName"); err != nil {
			return nil, err
		}
		return req, nil

	case app.RequestLeaveLobby:
		// The code only identifies the lobby the client thinks it is in.
		if isNull(v) {
			return app.LeaveLobby{}, nil
		}
		code, err := codeOf(v)
		if err != nil {
			return nil, err
		}
		return app.LeaveLobby{Code: code}, nil

	case app.RequestStartGame:
		code, err := codeOf(v)
		if err != nil {
			return nil, err
		}
		return app.StartGame{Code: code}, nil

	case app.RequestAssignHost:
		f, err := object(v)
		if err != nil {
			return nil, err
		}
		var req app.AssignHost
		if req.Code, err = requiredString(f, "code"); err != nil {
			return nil, err
		}
		if req.NewHostID, err = requiredString(f, "newHostId"); err != nil {
			return nil, err
		}
		return req, nil

	case app.RequestVoiceToken:
		if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			return app.VoiceToken{Action: s.StringValue}, nil
		}
		f, err := object(v)
		if err != nil {
			return nil, err
		}
		action, err := requiredString(f, "action")
		if err != nil {
			return nil, err
		}
		return app.VoiceToken{Action: action}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
}

// DecodeCode reads a lobby code given bare or as {"code": ...}.
func DecodeCode(data []byte) (string, error) {
	v, err := parseValue(data)
	if err != nil {
		return "", app.ErrMalformedRequest
	}
	return codeOf(v)
}

// DecodeEnvelope splits a WebSocket text frame into message name and raw payload.
func DecodeEnvelope(frame []byte) (string, []byte, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return "", nil, app.ErrMalformedRequest
	}
	if env.Event == "" {
		return "", nil, app.ErrMalformedRequest
	}
	return env.Event, env.Data, nil
}

// EncodePayload renders the event payload alone, as carried in Nakama match data.
func EncodePayload(ev app.Event) ([]byte, error) {
	b, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", ev.Kind, err)
	}
	return b, nil
}

// EncodeEnvelope renders the event as a WebSocket text frame.
func EncodeEnvelope(ev app.Event) ([]byte, error) {
	payload, err := EncodePayload(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: string(ev.Kind), Data: payload})
}

func parseValue(data []byte) (*structpb.Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return structpb.NewNullValue(), nil
	}
	v := &structpb.Value{}
	if err := protojson.Unmarshal(data, v); err != nil {
		return nil, err
	}
	return v, nil
}

func isNull(v *structpb.Value) bool {
	_, ok := v.GetKind().(*structpb.Value_NullValue)
	return ok || v.GetKind() == nil
}

func object(v *structpb.Value) (map[string]*structpb.Value, error) {
	s, ok := v.GetKind().(*structpb.Value_StructValue)
	if !ok {
		return nil, app.ErrMalformedRequest
	}
	return s.StructValue.GetFields(), nil
}

// codeOf accepts a bare code string or an object carrying one.
func codeOf(v *structpb.Value) (string, error) {
	if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
		return s.StringValue, nil
	}
	f, err := object(v)
	if err != nil {
		return "", err
	}
	return requiredString(f, "code")
}

func requiredString(f map[string]*structpb.Value, key string) (string, error) {
	v, ok := f[key]
	if !ok || isNull(v) {
		return "", app.ErrMalformedRequest
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", app.ErrMalformedRequest
	}
	return s.StringValue, nil
}

// optionalString treats a missing or null field as empty so field-level checks
// such as the name requirement still apply.
func optionalString(f map[string]*structpb.Value, key string) (string, error) {
	v, ok := f[key]
	if !ok || isNull(v) {
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", app.ErrMalformedRequest
	}
	return s.StringValue, nil
}
