package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/hailam/checkersplay/internal/board"
	"github.com/hailam/checkersplay/internal/engine"
	"github.com/hailam/checkersplay/internal/game"
	"github.com/hailam/checkersplay/internal/lobby"
	"github.com/hailam/checkersplay/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *storage.Storage) {
	t.Helper()
	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	l := lobby.New(game.DefaultRules(), engine.NewSeeded(7), store)
	srv := NewServer(l, store, nil)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, store
}

func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createRoom(t *testing.T, ts *httptest.Server) (lobby.Ticket, lobby.Ticket) {
	t.Helper()
	var host, guest lobby.Ticket
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/api/rooms", createBody{Player: "alice"}, &host))
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, ts.URL+"/api/rooms/"+host.Room+"/join", createBody{Player: "bob"}, &guest))
	return host, guest
}

func TestRoomLifecycle(t *testing.T) {
	ts, store := newTestServer(t)
	host, guest := createRoom(t, ts)
	base := ts.URL + "/api/rooms/" + host.Room

	var view lobby.View
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, base, nil, &view))
	assert.True(t, view.Started)
	assert.Equal(t, board.Red, view.State.Turn)
	assert.Equal(t, board.StartFEN, view.State.FEN)

	var moves struct {
		Square board.Square `json:"square"`
		Moves  []board.Move `json:"moves"`
	}
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, base+"/moves?square=c3", nil, &moves))
	assert.Equal(t, "c3", moves.Square.String())
	assert.Len(t, moves.Moves, 2)

	var errBody map[string]string
	assert.Equal(t, http.StatusConflict, do(t, http.MethodPost, base+"/move", moveBody{Token: guest.Token, Move: "f6-e5"}, &errBody))
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, http.MethodPost, base+"/move", moveBody{Token: host.Token, Move: "c3xe5"}, &errBody))
	assert.Contains(t, errBody["error"], "illegal move")
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, base+"/move", moveBody{Token: host.Token, Move: "zz"}, &errBody))
	assert.Equal(t, http.StatusForbidden, do(t, http.MethodPost, base+"/move", moveBody{Token: "nope", Move: "c3-d4"}, &errBody))

	require.Equal(t, http.StatusOK, do(t, http.MethodPost, base+"/move", moveBody{Token: host.Token, Move: "c3-d4"}, &view))
	assert.Equal(t, board.Black, view.State.Turn)
	assert.Equal(t, "c3-d4", view.State.LastMove.String())

	require.Equal(t, http.StatusOK, do(t, http.MethodPost, base+"/resign", seatBody{Token: guest.Token}, &view))
	assert.True(t, view.State.Over)
	assert.Equal(t, board.Red, view.State.Winner)
	assert.Equal(t, http.StatusGone, do(t, http.MethodPost, base+"/move", moveBody{Token: host.Token, Move: "d4-c5"}, &errBody))

	alice, err := store.LoadStats("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.Wins)

	var stats struct {
		Players []*storage.GameStats `json:"players"`
	}
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/stats", nil, &stats))
	assert.Len(t, stats.Players, 2)

	var bob storage.GameStats
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/stats?player=bob", nil, &bob))
	assert.Equal(t, 1, bob.Losses)
}

func TestErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, ts.URL+"/api/rooms/NOPE00", nil, &errBody))
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, ts.URL+"/api/rooms", createBody{}, &errBody))

	host, _ := createRoom(t, ts)
	assert.Equal(t, http.StatusConflict, do(t, http.MethodPost, ts.URL+"/api/rooms/"+host.Room+"/join", createBody{Player: "carol"}, &errBody))
	assert.Equal(t, "room is full", errBody["error"])

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/rooms", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGone, statusFor(game.ErrGameOver))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(game.ErrChainInProgress))
	assert.Equal(t, http.StatusConflict, statusFor(lobby.ErrNotYourTurn))
	assert.Equal(t, http.StatusNotFound, statusFor(lobby.ErrRoomNotFound))
}

func readMsg(t *testing.T, ctx context.Context, c *websocket.Conn) Msg {
	t.Helper()
	_, data, err := c.Read(ctx)
	require.NoError(t, err)
	var m Msg
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func sendMsg(t *testing.T, ctx context.Context, c *websocket.Conn, typ string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	data, err := json.Marshal(Msg{T: typ, M: raw})
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, websocket.MessageText, data))
}

func TestWebsocketRelay(t *testing.T) {
	ts, _ := newTestServer(t)
	host, guest := createRoom(t, ts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?room=" + host.Room
	red, _, err := websocket.Dial(ctx, wsURL+"&token="+host.Token, nil)
	require.NoError(t, err)
	defer red.Close(websocket.StatusNormalClosure, "")
	black, _, err := websocket.Dial(ctx, wsURL+"&token="+guest.Token, nil)
	require.NoError(t, err)
	defer black.Close(websocket.StatusNormalClosure, "")

	assert.Equal(t, "state", readMsg(t, ctx, red).T)
	assert.Equal(t, "state", readMsg(t, ctx, black).T)

	// Errors go to the sender only.
	sendMsg(t, ctx, black, "move", clientPayload{Move: "f6-e5"})
	m := readMsg(t, ctx, black)
	assert.Equal(t, "error", m.T)
	assert.Contains(t, string(m.M), "not your turn")

	sendMsg(t, ctx, red, "select", clientPayload{Square: "c3"})
	m = readMsg(t, ctx, red)
	require.Equal(t, "moves", m.T)
	assert.Contains(t, string(m.M), "c3-d4")

	// Accepted moves reach every subscriber.
	sendMsg(t, ctx, red, "move", clientPayload{Move: "c3-d4"})
	for _, c := range []*websocket.Conn{red, black} {
		m := readMsg(t, ctx, c)
		require.Equal(t, "state", m.T)
		var view lobby.View
		require.NoError(t, json.Unmarshal(m.M, &view))
		assert.Equal(t, board.Black, view.State.Turn)
		assert.Equal(t, "c3-d4", view.State.LastMove.String())
	}
}

func TestWebsocketUnknownRoom(t *testing.T) {
	ts, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?room=NOPE00", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
