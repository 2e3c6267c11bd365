package nakama

import (
	"context"
	"database/sql"
	"testing"

	"github.com/heroiclabs/nakama-common/runtime"
)

// fakeInitializer records what InitModule registers.
type fakeInitializer struct {
	runtime.Initializer
	rpcs    []string
	matches map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule) (runtime.Match, error)
}

func (fi *fakeInitializer) RegisterRpc(id string, fn func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)) error {
	fi.rpcs = append(fi.rpcs, id)
	return nil
}

func (fi *fakeInitializer) RegisterMatch(name string, fn func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error)) error {
	if fi.matches == nil {
		fi.matches = make(map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule) (runtime.Match, error))
	}
	fi.matches[name] = fn
	return nil
}

func TestInitModuleSharesStateAcrossHubs(t *testing.T) {
	fi := &fakeInitializer{}
	if err := InitModule(context.Background(), noopLogger{}, nil, nil, fi); err != nil {
		t.Fatalf("InitModule error: %v", err)
	}

	want := []string{RpcLobbyHub, RpcLobbyInfo, RpcVoiceToken}
	if len(fi.rpcs) != len(want) {
		t.Fatalf("rpcs = %v, want %v", fi.rpcs, want)
	}
	for i, id := range want {
		if fi.rpcs[i] != id {
			t.Fatalf("rpcs = %v, want %v", fi.rpcs, want)
		}
	}

	factory, ok := fi.matches[MatchNameHub]
	if !ok {
		t.Fatalf("match %q not registered", MatchNameHub)
	}
	first, err := factory(context.Background(), noopLogger{}, nil, nil)
	if err != nil {
		t.Fatalf("factory error: %v", err)
	}
	second, err := factory(context.Background(), noopLogger{}, nil, nil)
	if err != nil {
		t.Fatalf("factory error: %v", err)
	}

	a, b := first.(*matchHandler), second.(*matchHandler)
	if a == b {
		t.Fatal("factory returned the same handler twice")
	}
	if a.svc != b.svc || a.presences != b.presences || a.presences == nil {
		t.Fatal("hub instances must share the service and presence table")
	}
}
