package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/kstepanov/dmbridge-server/internal/auth"
	"github.com/kstepanov/dmbridge-server/internal/blob"
	"github.com/kstepanov/dmbridge-server/internal/config"
	"github.com/kstepanov/dmbridge-server/internal/core"
	"github.com/kstepanov/dmbridge-server/internal/store"
	"github.com/kstepanov/dmbridge-server/internal/store/sqlite"
)

type testEnv struct {
	ts    *httptest.Server
	store store.Store
	blobs *blob.MemStore
}

func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.Nop()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	registry := core.NewRegistry()
	presence := core.NewPresence(registry, &logger)
	blobs := blob.NewMemStore()
	router := core.NewRouter(registry, st, blobs, &logger)

	cfg := config.Default()
	cfg.AttachmentDir = t.TempDir()

	server := NewServer(registry, presence, router, authService, st, cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: st, blobs: blobs}
}

// registerUser creates a user over the REST API and returns its auth response.
func registerUser(t *testing.T, env *testEnv, username, password string) AuthResponse {
	t.Helper()

	body, _ := json.Marshal(RegisterRequest{Username: username, Password: password})
	resp, err := env.ts.Client().Post(env.ts.URL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		t.Fatalf("register %s: unexpected status %d", username, resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return authResp
}

// dialWS opens a websocket connection, optionally with a credential token.
func dialWS(t *testing.T, ctx context.Context, env *testEnv, token string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + env.ts.URL[len("http"):] + "/ws"
	if token != "" {
		wsURL += "?token=" + token
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })

	return conn
}

// wsFrame is a raw outbound frame; exactly one of Online (roster update)
// and MessageID (delivery) is meaningful depending on shape.
type wsFrame struct {
	Online    *[]rosterEntry `json:"online"`
	Text      string         `json:"text"`
	Sender    int64          `json:"sender"`
	Receiver  int64          `json:"receiver"`
	MessageID int64          `json:"_id"`
	File      *string        `json:"file"`
}

type rosterEntry struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

func (f wsFrame) isRoster() bool {
	return f.Online != nil
}

// readRosterWhere reads frames until a roster update satisfies the predicate.
func readRosterWhere(t *testing.T, ctx context.Context, conn *websocket.Conn, pred func([]rosterEntry) bool) []rosterEntry {
	t.Helper()
	for {
		var frame wsFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("read roster frame: %v", err)
		}
		if frame.isRoster() && pred(*frame.Online) {
			return *frame.Online
		}
	}
}

// readDelivery reads frames until a message delivery arrives.
func readDelivery(t *testing.T, ctx context.Context, conn *websocket.Conn) wsFrame {
	t.Helper()
	for {
		var frame wsFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("read delivery frame: %v", err)
		}
		if !frame.isRoster() {
			return frame
		}
	}
}
