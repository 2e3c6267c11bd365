package wire

import (
	"encoding/json"
	"errors"
	"testing"

	"thirteen/internal/app"
	"thirteen/internal/domain"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		event string
		data  string
		want  app.Request
	}{
		{"create object", "createLobby", `{"playerName":"Alice","lobbyName":"Den"}`, app.CreateLobby{PlayerName: "Alice", LobbyName: "Den"}},
		{"create bare name", "createLobby", `"Alice"`, app.CreateLobby{PlayerName: "Alice"}},
		{"create missing name", "createLobby", `{}`, app.CreateLobby{}},
		{"join", "joinLobby", `{"code":"abcd","playerName":"Bob"}`, app.JoinLobby{Code: "abcd", PlayerName: "Bob"}},
		{"join null name", "joinLobby", `{"code":"ABCD","playerName":null}`, app.JoinLobby{Code: "ABCD"}},
		{"leave bare code", "leaveLobby", `"ABCD"`, app.LeaveLobby{Code: "ABCD"}},
		{"leave object", "leaveLobby", `{"code":"ABCD"}`, app.LeaveLobby{Code: "ABCD"}},
		{"leave empty", "leaveLobby", ``, app.LeaveLobby{}},
		{"start bare code", "startGame", `"ABCD"`, app.StartGame{Code: "ABCD"}},
		{"start object", "startGame", `{"code":"ABCD"}`, app.StartGame{Code: "ABCD"}},
		{"assign host", "assignHost", `{"code":"ABCD","newHostId":"c2"}`, app.AssignHost{Code: "ABCD", NewHostID: "c2"}},
		{"voice object", "requestVoiceToken", `{"action":"join"}`, app.VoiceToken{Action: "join"}},
		{"voice bare", "requestVoiceToken", `"login"`, app.VoiceToken{Action: "login"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.event, []byte(tc.data))
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("decode = %#v, want %#v", got, tc.want)
			}
			if string(got.Kind()) != tc.event {
				t.Fatalf("kind = %s, want %s", got.Kind(), tc.event)
			}
		})
	}
}

func TestDecodeRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name  string
		event string
		data  string
	}{
		{"not json", "createLobby", `{playerName`},
		{"create number", "createLobby", `42`},
		{"create name wrong type", "createLobby", `{"playerName":7}`},
		{"join bare string", "joinLobby", `"ABCD"`},
		{"join missing code", "joinLobby", `{"playerName":"Bob"}`},
		{"start missing", "startGame", ``},
		{"start array", "startGame", `["ABCD"]`},
		{"assign missing target", "assignHost", `{"code":"ABCD"}`},
		{"assign target number", "assignHost", `{"code":"ABCD","newHostId":3}`},
		{"voice missing action", "requestVoiceToken", `{}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.event, []byte(tc.data))
			if err != app.ErrMalformedRequest {
				t.Fatalf("err = %v, want ErrMalformedRequest", err)
			}
		})
	}
}

func TestDecodeUnknownEvent(t *testing.T) {
	_, err := Decode("playCards", []byte(`not even json`))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("err = %v, want ErrUnknownEvent", err)
	}
}

func TestDecodeEnvelope(t *testing.T) {
	name, data, err := DecodeEnvelope([]byte(`{"event":"joinLobby","data":{"code":"ABCD","playerName":"Bob"}}`))
	if err != nil {
		t.Fatalf("decode envelope error: %v", err)
	}
	if name != "joinLobby" {
		t.Fatalf("name = %q", name)
	}
	req, err := Decode(name, data)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if req != (app.JoinLobby{Code: "ABCD", PlayerName: "Bob"}) {
		t.Fatalf("request = %#v", req)
	}

	for _, frame := range []string{`nope`, `{"data":"x"}`, `[]`} {
		if _, _, err := DecodeEnvelope([]byte(frame)); err != app.ErrMalformedRequest {
			t.Fatalf("frame %s err = %v, want ErrMalformedRequest", frame, err)
		}
	}
}

func TestEncodeEnvelope(t *testing.T) {
	ev := app.Event{
		Kind: app.EventGameStarted,
		Payload: app.GameStartedPayload{
			Hand:      []domain.Card{domain.ThreeOfSpades, {Rank: domain.RankTen, Suit: domain.SuitHearts}},
			TurnIndex: 2,
			Players:   []string{"Alice", "Bob", "Carol", "Dave"},
		},
		Recipients: []string{"c1"},
	}

	frame, err := EncodeEnvelope(ev)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	var got struct {
		Event string `json:"event"`
		Data  struct {
			Hand []struct {
				Rank string `json:"rank"`
				Suit string `json:"suit"`
			} `json:"hand"`
			TurnIndex int      `json:"turnIndex"`
			Players   []string `json:"players"`
		} `json:"data"`
	}
	if err := json.Unmarshal(frame, &got); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if got.Event != "gameStarted" || got.Data.TurnIndex != 2 || len(got.Data.Players) != 4 {
		t.Fatalf("frame = %s", frame)
	}
	if len(got.Data.Hand) != 2 || got.Data.Hand[0].Rank != "3" || got.Data.Hand[0].Suit != "♠" || got.Data.Hand[1].Rank != "10" || got.Data.Hand[1].Suit != "♥" {
		t.Fatalf("hand = %+v", got.Data.Hand)
	}
}

func TestEncodeErrorPayloadIsString(t *testing.T) {
	b, err := EncodePayload(app.Event{Kind: app.EventErrorMessage, Payload: app.ErrLobbyFull.Message})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if string(b) != `"Lobby is full"` {
		t.Fatalf("payload = %s", b)
	}
}

func TestOpCodes(t *testing.T) {
	for op := OpCreateLobby; op <= OpRequestVoiceToken; op++ {
		name, ok := RequestName(op)
		if !ok {
			t.Fatalf("op %d has no request", op)
		}
		if _, err := Decode(name, nil); errors.Is(err, ErrUnknownEvent) {
			t.Fatalf("op %d maps to unknown request %q", op, name)
		}
	}
	if _, ok := RequestName(OpLobbyCreated); ok {
		t.Fatal("server op code decoded as request")
	}

	kinds := []app.EventKind{
		app.EventLobbyCreated, app.EventLobbyUpdated, app.EventGameStarted,
		app.EventGameMessage, app.EventErrorMessage, app.EventVoiceToken,
	}
	seen := make(map[int64]bool)
	for _, k := range kinds {
		op, ok := EventOpCode(k)
		if !ok || op < 100 || seen[op] {
			t.Fatalf("event %s op = %d, %v", k, op, ok)
		}
		seen[op] = true
	}
}

func TestDecodeCode(t *testing.T) {
	for _, data := range []string{`"abcd"`, `{"code":"abcd"}`} {
		code, err := DecodeCode([]byte(data))
		if err != nil || code != "abcd" {
			t.Fatalf("DecodeCode(%s) = %q, %v", data, code, err)
		}
	}
	if _, err := DecodeCode([]byte(`{}`)); err != app.ErrMalformedRequest {
		t.Fatalf("err = %v, want ErrMalformedRequest", err)
	}
}
