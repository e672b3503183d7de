package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/kstepanov/dmbridge-server/internal/store"
)

func postJSON(t *testing.T, env *testEnv, path string, body any) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := env.ts.Client().Post(env.ts.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func getAuthed(t *testing.T, env *testEnv, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, env.ts.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	env := startTestServer(t)

	resp, err := env.ts.Client().Get(env.ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	env := startTestServer(t)

	first := registerUser(t, env, "alice", "password123")
	if first.Token == "" || first.ID == 0 || first.Username != "alice" {
		t.Fatalf("unexpected register response: %+v", first)
	}

	// Duplicate username conflicts.
	resp := postJSON(t, env, "/api/register", RegisterRequest{Username: "alice", Password: "password123"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", resp.StatusCode)
	}

	// Wrong password is unauthorized.
	resp = postJSON(t, env, "/api/login", LoginRequest{Username: "alice", Password: "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", resp.StatusCode)
	}

	resp = postJSON(t, env, "/api/login", LoginRequest{Username: "alice", Password: "password123"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if authResp.ID != first.ID {
		t.Fatalf("login returned different user id: %d vs %d", authResp.ID, first.ID)
	}

	// Login sets the token cookie.
	foundCookie := false
	for _, c := range resp.Cookies() {
		if c.Name == "token" && c.Value != "" {
			foundCookie = true
		}
	}
	if !foundCookie {
		t.Fatalf("login did not set token cookie")
	}
}

func TestProfileEndpoint(t *testing.T) {
	env := startTestServer(t)
	alice := registerUser(t, env, "alice", "password123")

	resp := getAuthed(t, env, "/api/profile", alice.Token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d", resp.StatusCode)
	}

	var profile ProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.UserID != alice.ID || profile.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	// Without a credential the endpoint is unauthorized.
	respNoAuth, err := env.ts.Client().Get(env.ts.URL + "/api/profile")
	if err != nil {
		t.Fatalf("profile without token: %v", err)
	}
	respNoAuth.Body.Close()
	if respNoAuth.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", respNoAuth.StatusCode)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	env := startTestServer(t)

	resp := postJSON(t, env, "/api/logout", struct{}{})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}

	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == "token" && c.Value == "" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("logout did not clear the token cookie")
	}
}

func TestPeopleExcludesPasswordHashes(t *testing.T) {
	env := startTestServer(t)
	alice := registerUser(t, env, "alice", "password123")
	registerUser(t, env, "bob", "password123")

	resp := getAuthed(t, env, "/api/people", alice.Token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("people: expected 200, got %d", resp.StatusCode)
	}

	var raw []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode people: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("expected 2 users, got %d", len(raw))
	}
	for _, entry := range raw {
		if _, leaked := entry["password_hash"]; leaked {
			t.Fatalf("password hash leaked: %+v", entry)
		}
		if _, leaked := entry["passwordHash"]; leaked {
			t.Fatalf("password hash leaked: %+v", entry)
		}
	}
}

func TestConversationEndpoint(t *testing.T) {
	env := startTestServer(t)
	alice := registerUser(t, env, "alice", "password123")
	bob := registerUser(t, env, "bob", "password123")
	carol := registerUser(t, env, "carol", "password123")

	ctx := context.Background()
	seed := []store.Message{
		{SenderID: alice.ID, ReceiverID: bob.ID, Text: "hey bob"},
		{SenderID: bob.ID, ReceiverID: alice.ID, Text: "hey alice"},
		{SenderID: carol.ID, ReceiverID: alice.ID, Text: "unrelated"},
	}
	for i := range seed {
		if err := env.store.SaveMessage(ctx, &seed[i]); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	resp := getAuthed(t, env, "/api/messages/"+strconv.FormatInt(bob.ID, 10), alice.Token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("messages: expected 200, got %d", resp.StatusCode)
	}

	var messages []MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages between alice and bob, got %d", len(messages))
	}
	if messages[0].Text != "hey bob" || messages[1].Text != "hey alice" {
		t.Fatalf("wrong order or content: %+v", messages)
	}

	// Bad user id in the path.
	resp = getAuthed(t, env, "/api/messages/not-a-number", alice.Token)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad user id, got %d", resp.StatusCode)
	}
}
