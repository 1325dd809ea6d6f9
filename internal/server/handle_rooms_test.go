package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type testServer struct {
	*httptest.Server
	store    *SQLiteStore
	broker   *Broker
	presence *memoryPresence
	registry *Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := setupStore(t)
	broker := NewBroker()
	presence := newMemoryPresence()
	registry := NewRegistry(store, broker, discardLogger())
	t.Cleanup(registry.Close)

	r := chi.NewRouter()
	addRoutes(r, discardLogger(), store, registry, broker, presence, nil, nil)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	return &testServer{
		Server:   ts,
		store:    store,
		broker:   broker,
		presence: presence,
		registry: registry,
	}
}

// do sends a JSON request with an optional bearer token and decodes the
// response into out when the status matches.
func (ts *testServer) do(t *testing.T, method, path, token string, body any, wantStatus int, out any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status = %d, want %d", method, path, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
}

func (ts *testServer) login(t *testing.T, username string) LoginResponse {
	t.Helper()
	var resp LoginResponse
	ts.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: username}, http.StatusOK, &resp)
	return resp
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	first := ts.login(t, "alice")
	if first.UserID == "" || first.Token == "" {
		t.Fatalf("incomplete login response: %+v", first)
	}
	if first.Username != "alice" {
		t.Errorf("username = %q, want alice", first.Username)
	}

	// Same username resolves to the same identity with a fresh token.
	second := ts.login(t, "alice")
	if second.UserID != first.UserID {
		t.Errorf("second login userId = %s, want %s", second.UserID, first.UserID)
	}
	if second.Token == first.Token {
		t.Error("second login reused the token")
	}

	// Both tokens keep working.
	for _, token := range []string{first.Token, second.Token} {
		ts.do(t, http.MethodGet, "/api/rooms", token, nil, http.StatusOK, nil)
	}
}

func TestLoginValidation(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: " a "}, http.StatusBadRequest, nil)
	ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]int{"username": 3}, http.StatusBadRequest, nil)
}

func TestRoomsRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodGet, "/api/rooms", "", nil, http.StatusUnauthorized, nil)
	ts.do(t, http.MethodPost, "/api/rooms", "not-a-token", CreateRoomRequest{Name: "x"}, http.StatusUnauthorized, nil)
}

func TestCreateRoomValidation(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login(t, "alice")

	ts.do(t, http.MethodPost, "/api/rooms", alice.Token, CreateRoomRequest{Name: "  "}, http.StatusBadRequest, nil)
	ts.do(t, http.MethodPost, "/api/rooms", alice.Token, CreateRoomRequest{Name: "tiny", MaxPlayers: 4}, http.StatusBadRequest, nil)
	ts.do(t, http.MethodPost, "/api/rooms", alice.Token, CreateRoomRequest{Name: "huge", MaxPlayers: 11}, http.StatusBadRequest, nil)
}

func TestRoomLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login(t, "alice")
	bob := ts.login(t, "bob")

	var room Room
	ts.do(t, http.MethodPost, "/api/rooms", alice.Token, CreateRoomRequest{Name: "friday game"}, http.StatusCreated, &room)
	if room.HostID != alice.UserID {
		t.Errorf("hostId = %s, want %s", room.HostID, alice.UserID)
	}
	if room.MaxPlayers != 10 {
		t.Errorf("maxPlayers = %d, want default 10", room.MaxPlayers)
	}
	if room.Status != RoomWaiting {
		t.Errorf("status = %s, want %s", room.Status, RoomWaiting)
	}
	if len(room.Players) != 1 || room.Players[0].UserID != alice.UserID {
		t.Errorf("creator not on the roster: %+v", room.Players)
	}

	var rooms []Room
	ts.do(t, http.MethodGet, "/api/rooms", bob.Token, nil, http.StatusOK, &rooms)
	if len(rooms) != 1 || rooms[0].ID != room.ID {
		t.Fatalf("room listing = %+v, want the created room", rooms)
	}

	ts.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/join", bob.Token, nil, http.StatusOK, &room)
	if len(room.Players) != 2 {
		t.Fatalf("players after join = %d, want 2", len(room.Players))
	}

	// Joining again is a no-op.
	ts.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/join", bob.Token, nil, http.StatusOK, &room)
	if len(room.Players) != 2 {
		t.Fatalf("players after rejoin = %d, want 2", len(room.Players))
	}

	ts.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/ready", bob.Token, nil, http.StatusOK, &room)
	for _, p := range room.Players {
		if p.UserID == bob.UserID && !p.Ready {
			t.Error("bob not marked ready")
		}
	}

	var detail RoomDetailResponse
	ts.do(t, http.MethodGet, "/api/rooms/"+room.ID, bob.Token, nil, http.StatusOK, &detail)
	if detail.ID != room.ID {
		t.Errorf("detail id = %s, want %s", detail.ID, room.ID)
	}
	if detail.Online == nil {
		t.Error("online list missing from room detail")
	}

	// Host leaving hands the room to the next player.
	ts.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/leave", alice.Token, nil, http.StatusOK, &room)
	if room.HostID != bob.UserID {
		t.Errorf("hostId after handoff = %s, want %s", room.HostID, bob.UserID)
	}

	// Last player out deletes the room.
	var deleted map[string]bool
	ts.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/leave", bob.Token, nil, http.StatusOK, &deleted)
	if !deleted["deleted"] {
		t.Errorf("leave response = %+v, want deleted", deleted)
	}
	ts.do(t, http.MethodGet, "/api/rooms/"+room.ID, bob.Token, nil, http.StatusNotFound, nil)
}

func TestJoinRoomLimits(t *testing.T) {
	ts := newTestServer(t)
	host := ts.login(t, "host")

	var room Room
	ts.do(t, http.MethodPost, "/api/rooms", host.Token, CreateRoomRequest{Name: "small", MaxPlayers: 5}, http.StatusCreated, &room)

	for _, name := range []string{"p1", "p2", "p3", "p4"} {
		u := ts.login(t, name)
		ts.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/join", u.Token, nil, http.StatusOK, nil)
	}

	late := ts.login(t, "late")
	ts.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/join", late.Token, nil, http.StatusConflict, nil)
}

func TestJoinStartedRoom(t *testing.T) {
	ts := newTestServer(t)
	host := ts.login(t, "host")

	var room Room
	ts.do(t, http.MethodPost, "/api/rooms", host.Token, CreateRoomRequest{Name: "in progress"}, http.StatusCreated, &room)
	if err := ts.store.SetRoomStatus(context.Background(), room.ID, RoomPlaying); err != nil {
		t.Fatalf("setting room status: %v", err)
	}

	outsider := ts.login(t, "outsider")
	ts.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/join", outsider.Token, nil, http.StatusConflict, nil)
}

func TestLeaveRoomNotMember(t *testing.T) {
	ts := newTestServer(t)
	host := ts.login(t, "host")
	other := ts.login(t, "other")

	var room Room
	ts.do(t, http.MethodPost, "/api/rooms", host.Token, CreateRoomRequest{Name: "private"}, http.StatusCreated, &room)
	ts.do(t, http.MethodPost, "/api/rooms/"+room.ID+"/leave", other.Token, nil, http.StatusConflict, nil)
}
