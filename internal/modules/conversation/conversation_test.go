package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"atlas/internal/trip"
)

func newRedisStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(NewRedisBackend(client), nil)
}

func TestStore_SaveAndLoadState(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	state := trip.NewState()
	state.Trip.Destination = "Rome"
	state.Trip.Duration = "5"
	state.Stage = trip.StageReadyForLookup

	if err := store.SaveState(ctx, "sess-1", state); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadState(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Trip.Destination != "Rome" || loaded.Trip.Duration != "5" {
		t.Errorf("loaded trip = %+v", loaded.Trip)
	}
	if loaded.Stage != trip.StageReadyForLookup {
		t.Errorf("loaded stage = %s", loaded.Stage)
	}
}

func TestStore_UnknownSession(t *testing.T) {
	store := newRedisStore(t)
	if _, err := store.LoadState(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestStore_DeleteState(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	if err := store.SaveState(ctx, "sess-1", trip.NewState()); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteState(ctx, "sess-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.LoadState(ctx, "sess-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound after delete", err)
	}
}

func TestService_SessionIsolation(t *testing.T) {
	svc := NewService(newRedisStore(t))
	ctx := context.Background()

	a, err := svc.StartSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.StartSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Fatal("sessions share an ID")
	}

	a.State.Trip.Destination = "Rome"
	if err := svc.Save(ctx, a); err != nil {
		t.Fatal(err)
	}

	loadedB, err := svc.Load(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loadedB.State.Trip.Destination != "" {
		t.Errorf("state leaked across sessions: %+v", loadedB.State.Trip)
	}
}

func TestService_LoadCreatesUnknownSession(t *testing.T) {
	svc := NewService(newRedisStore(t))

	sess, err := svc.Load(context.Background(), "client-chosen-id")
	if err != nil {
		t.Fatal(err)
	}
	if sess.ID != "client-chosen-id" {
		t.Errorf("id = %q", sess.ID)
	}
	if !sess.State.Trip.IsEmpty() || sess.State.Stage != trip.StageGathering {
		t.Errorf("fresh state expected, got %+v", sess.State)
	}
}

func TestMemoryBackend(t *testing.T) {
	store := NewStore(NewMemoryBackend(), nil)
	ctx := context.Background()

	state := trip.NewState()
	state.Trip.Origin = "Boston"
	if err := store.SaveState(ctx, "s", state); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.LoadState(ctx, "s")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Trip.Origin != "Boston" {
		t.Errorf("loaded = %+v", loaded.Trip)
	}

	if err := store.DeleteState(ctx, "s"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.LoadState(ctx, "s"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestTurnLogDisabledWithoutDB(t *testing.T) {
	store := NewStore(NewMemoryBackend(), nil)
	ctx := context.Background()

	if err := store.AppendTurn(ctx, Turn{SessionID: "s", Role: RoleUser, Message: "hi"}); err != nil {
		t.Fatal(err)
	}
	turns, err := store.ListTurns(ctx, "s", 10)
	if err != nil {
		t.Fatal(err)
	}
	if turns != nil {
		t.Errorf("turns = %v, want none without a database", turns)
	}
}
