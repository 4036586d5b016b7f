package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

type fakeChat struct {
	result      contractx.ChatResult
	err         error
	calls       int
	lastUserID  string
	lastMessage string
}

func (f *fakeChat) HandleChat(ctx context.Context, userID, message string) (contractx.ChatResult, error) {
	f.calls++
	f.lastUserID = userID
	f.lastMessage = message
	if f.err != nil {
		return contractx.ChatResult{}, f.err
	}
	res := f.result
	if res.UserID == "" {
		res.UserID = userID
	}
	return res, nil
}

type fakeSnapshot struct {
	data       contractx.UserData
	err        error
	calls      int
	lastUserID string
}

func (f *fakeSnapshot) Snapshot(ctx context.Context, userID string) (contractx.UserData, error) {
	f.calls++
	f.lastUserID = userID
	if f.err != nil {
		return contractx.UserData{}, f.err
	}
	data := f.data
	if data.UserID == "" {
		data.UserID = userID
	}
	return data, nil
}

type fakeVerifier struct {
	userID  string
	err     error
	calls   int
	lastRaw string
}

func (f *fakeVerifier) Verify(raw string) (string, error) {
	f.calls++
	f.lastRaw = raw
	if f.err != nil {
		return "", f.err
	}
	return f.userID, nil
}

func newTestRouter(t *testing.T, deps Deps) http.Handler {
	t.Helper()

	if deps.Chat == nil {
		deps.Chat = &fakeChat{}
	}
	if deps.Store == nil {
		deps.Store = &fakeSnapshot{}
	}
	if deps.Verifier == nil {
		deps.Verifier = &fakeVerifier{userID: "user-1"}
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv.Router()
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestNewRequiresDeps(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{}
	store := &fakeSnapshot{}
	verifier := &fakeVerifier{userID: "user-1"}

	cases := []struct {
		name string
		deps Deps
	}{
		{name: "chat", deps: Deps{Store: store, Verifier: verifier}},
		{name: "store", deps: Deps{Chat: chat, Verifier: verifier}},
		{name: "verifier", deps: Deps{Chat: chat, Store: store}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := New(tc.deps); !errors.Is(err, contractx.ErrValidation) {
				t.Fatalf("New() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestChatAnswersUtterance(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{result: contractx.ChatResult{
		Message: "I've stored that in my memory.",
		Intent:  contractx.IntentStoreMemory,
		Actions: []contractx.Action{{Type: "memory_saved", Description: "Saved memory mem-1"}},
	}}
	verifier := &fakeVerifier{userID: "user-1"}
	router := newTestRouter(t, Deps{Chat: chat, Verifier: verifier})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(
		`{"message": "remember I like jazz", "idToken": "tok-1"}`,
	))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q, want %q", ct, "application/json")
	}

	var got contractx.ChatResult
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Message != "I've stored that in my memory." {
		t.Fatalf("message = %q, want confirmation", got.Message)
	}
	if got.Intent != contractx.IntentStoreMemory {
		t.Fatalf("intent = %q, want %q", got.Intent, contractx.IntentStoreMemory)
	}
	if got.UserID != "user-1" {
		t.Fatalf("user id = %q, want %q", got.UserID, "user-1")
	}
	if len(got.Actions) != 1 || got.Actions[0].Type != "memory_saved" {
		t.Fatalf("actions = %+v, want one memory_saved action", got.Actions)
	}

	if verifier.lastRaw != "tok-1" {
		t.Fatalf("verified token = %q, want %q", verifier.lastRaw, "tok-1")
	}
	if chat.lastUserID != "user-1" || chat.lastMessage != "remember I like jazz" {
		t.Fatalf("HandleChat called with (%q, %q)", chat.lastUserID, chat.lastMessage)
	}
}

func TestChatRejectsBadToken(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{}
	verifier := &fakeVerifier{err: errors.New("signature mismatch")}
	router := newTestRouter(t, Deps{Chat: chat, Verifier: verifier})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(
		`{"message": "remember I like jazz", "idToken": "forged"}`,
	))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if msg := errorBody(t, rec); msg != "invalid or missing token" {
		t.Fatalf("error = %q, want generic token message", msg)
	}
	if chat.calls != 0 {
		t.Fatalf("HandleChat called %d times, want 0", chat.calls)
	}
}

func TestChatRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	verifier := &fakeVerifier{userID: "user-1"}
	router := newTestRouter(t, Deps{Verifier: verifier})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if verifier.calls != 0 {
		t.Fatalf("Verify called %d times, want 0", verifier.calls)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{err: contractx.ErrEmptyInput}
	router := newTestRouter(t, Deps{Chat: chat})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(
		`{"message": "   ", "idToken": "tok-1"}`,
	))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg := errorBody(t, rec); msg != "message is required" {
		t.Fatalf("error = %q, want %q", msg, "message is required")
	}
}

func TestChatPersistenceFailureIsOpaque(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{err: fmt.Errorf("%w: insert memory: connection refused", contractx.ErrPersistence)}
	router := newTestRouter(t, Deps{Chat: chat})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(
		`{"message": "remember I like jazz", "idToken": "tok-1"}`,
	))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	msg := errorBody(t, rec)
	if msg != "internal error" {
		t.Fatalf("error = %q, want %q", msg, "internal error")
	}
	if strings.Contains(msg, "connection refused") {
		t.Fatalf("error body leaks collaborator detail: %q", msg)
	}
}

func TestUserDataReturnsSnapshot(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshot{data: contractx.UserData{
		Memories: []contractx.Memory{{ID: "mem-1", UserID: "user-7", Text: "likes jazz", Category: "preferences"}},
		Budget: &contractx.BudgetPeriod{
			ID:            "bp-1",
			UserID:        "user-7",
			MonthlyAmount: 3000,
			PeriodStart:   time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
	}}
	verifier := &fakeVerifier{userID: "user-7"}
	router := newTestRouter(t, Deps{Store: store, Verifier: verifier})

	req := httptest.NewRequest(http.MethodGet, "/user-data", nil)
	req.Header.Set("Authorization", "Bearer tok-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if verifier.lastRaw != "Bearer tok-7" {
		t.Fatalf("verified token = %q, want header value", verifier.lastRaw)
	}
	if store.lastUserID != "user-7" {
		t.Fatalf("snapshot user = %q, want %q", store.lastUserID, "user-7")
	}

	var got contractx.UserData
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.UserID != "user-7" {
		t.Fatalf("user id = %q, want %q", got.UserID, "user-7")
	}
	if len(got.Memories) != 1 || got.Memories[0].ID != "mem-1" {
		t.Fatalf("memories = %+v, want mem-1", got.Memories)
	}
	if got.Budget == nil || got.Budget.MonthlyAmount != 3000 {
		t.Fatalf("budget = %+v, want monthly 3000", got.Budget)
	}
}

func TestUserDataAcceptsQueryToken(t *testing.T) {
	t.Parallel()

	verifier := &fakeVerifier{userID: "user-7"}
	router := newTestRouter(t, Deps{Verifier: verifier})

	req := httptest.NewRequest(http.MethodGet, "/user-data?idToken=tok-q", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if verifier.lastRaw != "tok-q" {
		t.Fatalf("verified token = %q, want %q", verifier.lastRaw, "tok-q")
	}
}

func TestUserDataRejectsBadToken(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshot{}
	verifier := &fakeVerifier{err: errors.New("token has expired")}
	router := newTestRouter(t, Deps{Store: store, Verifier: verifier})

	req := httptest.NewRequest(http.MethodGet, "/user-data", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if store.calls != 0 {
		t.Fatalf("Snapshot called %d times, want 0", store.calls)
	}
}

func TestUserDataSnapshotFailure(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshot{err: fmt.Errorf("%w: query timeout", contractx.ErrPersistence)}
	router := newTestRouter(t, Deps{Store: store})

	req := httptest.NewRequest(http.MethodGet, "/user-data", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if msg := errorBody(t, rec); msg != "internal error" {
		t.Fatalf("error = %q, want %q", msg, "internal error")
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{}
	router := newTestRouter(t, Deps{Chat: chat})

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q, want request origin", got)
	}
	if chat.calls != 0 {
		t.Fatalf("HandleChat called %d times, want 0", chat.calls)
	}
}
