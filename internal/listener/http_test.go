package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-storyweave/internal/dynamic"
	"github.com/pixil98/go-storyweave/internal/ledger"
	"github.com/pixil98/go-storyweave/internal/placeholder"
	"github.com/pixil98/go-testutil"
)

type fakeService struct {
	result    dynamic.Result
	err       error
	story     string
	gotReq    dynamic.Request
	gotChoice dynamic.ChoiceRequest
	gotStory  []string
}

func (f *fakeService) Generate(_ context.Context, req dynamic.Request) (dynamic.Result, error) {
	f.gotReq = req
	return f.result, f.err
}

func (f *fakeService) RecordChoice(_ context.Context, req dynamic.ChoiceRequest) (*ledger.PlayerChoice, error) {
	f.gotChoice = req
	if f.err != nil {
		return nil, f.err
	}
	return &ledger.PlayerChoice{BlockID: req.BlockID, ChosenText: req.Text}, nil
}

func (f *fakeService) Story(_ context.Context, playerID string, storyIDs []string) string {
	f.gotStory = storyIDs
	return f.story
}

type upperInterpreter struct{}

func (upperInterpreter) Interpret(_ context.Context, text string, scope placeholder.Scope) string {
	return strings.ToUpper(text) + " for " + scope.PlayerID
}

func serve(t *testing.T, l *HTTPListener, method string, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	l.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHTTPListener_Dynamic(t *testing.T) {
	tests := map[string]struct {
		svc       *fakeService
		body      string
		expStatus int
		expBody   string
	}{
		"text": {
			svc:       &fakeService{result: dynamic.Result{Text: "The door opens."}},
			body:      `{"playerID":"p1","blockId":"d1","message":"go"}`,
			expStatus: http.StatusOK,
			expBody:   `"The door opens."`,
		},
		"options": {
			svc:       &fakeService{result: dynamic.Result{Options: []string{"North", "South"}}},
			body:      `{"playerID":"p1","blockId":"g1","generateOptions":true}`,
			expStatus: http.StatusOK,
			expBody:   `["North","South"]`,
		},
		"generation failure": {
			svc: &fakeService{err: &dynamic.GenerationError{
				Message: "calling language model",
				Stack:   []string{"idle", "awaiting-llm", "failed"},
				Detail:  "rate limited",
				Status:  429,
			}},
			body:      `{"playerID":"p1","blockId":"d1"}`,
			expStatus: http.StatusBadGateway,
			expBody:   `{"message":"calling language model","stack":["idle","awaiting-llm","failed"],"detail":"rate limited","status":429}`,
		},
		"invalid request": {
			svc:       &fakeService{err: fmt.Errorf("%w: playerID is required", dynamic.ErrInvalidRequest)},
			body:      `{"blockId":"d1"}`,
			expStatus: http.StatusBadRequest,
			expBody:   `{"error":"invalid request: playerID is required"}`,
		},
		"authored block is not dynamic": {
			svc:       &fakeService{err: fmt.Errorf("%w: block %q of type %q is not generated", dynamic.ErrInvalidRequest, "q1", "static")},
			body:      `{"playerID":"p1","blockId":"q1"}`,
			expStatus: http.StatusBadRequest,
			expBody:   `{"error":"invalid request: block \"q1\" of type \"static\" is not generated"}`,
		},
		"malformed body": {
			svc:       &fakeService{},
			body:      `{"playerID":`,
			expStatus: http.StatusBadRequest,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			l := NewHTTPListener(":0", tt.svc, upperInterpreter{})
			rec := serve(t, l, http.MethodPost, "/api/dynamic", tt.body)

			testutil.AssertEqual(t, "status", rec.Code, tt.expStatus)
			if tt.expBody != "" {
				testutil.AssertEqual(t, "body", strings.TrimSpace(rec.Body.String()), tt.expBody)
			}
		})
	}
}

func TestHTTPListener_DynamicPassesRequest(t *testing.T) {
	svc := &fakeService{result: dynamic.Result{Text: "ok"}}
	l := NewHTTPListener(":0", svc, upperInterpreter{})

	serve(t, l, http.MethodPost, "/api/dynamic",
		`{"message":"m","playerID":"p1","blockId":"d1","contextRefs":[{"value":"q1","includeAll":true}],"blockType":"dynamic","generateOptions":true,"storyId":"2"}`)

	testutil.AssertEqual(t, "player", svc.gotReq.PlayerID, "p1")
	testutil.AssertEqual(t, "block", svc.gotReq.BlockID, "d1")
	testutil.AssertEqual(t, "story", svc.gotReq.StoryID, "2")
	testutil.AssertEqual(t, "generate options", svc.gotReq.GenerateOptions, true)
	testutil.AssertEqual(t, "context refs", len(svc.gotReq.ContextRefs), 1)
	testutil.AssertEqual(t, "include all", svc.gotReq.ContextRefs[0].IncludeAll, true)
}

func TestHTTPListener_Choice(t *testing.T) {
	tests := map[string]struct {
		err       error
		expStatus int
	}{
		"recorded": {
			expStatus: http.StatusOK,
		},
		"already chosen": {
			err:       fmt.Errorf("block %q: %w", "q1", ledger.ErrChoiceRecorded),
			expStatus: http.StatusConflict,
		},
		"unknown block": {
			err:       dynamic.ErrUnknownBlock,
			expStatus: http.StatusNotFound,
		},
		"not generated": {
			err:       dynamic.ErrNotGenerated,
			expStatus: http.StatusConflict,
		},
		"bad index": {
			err:       ledger.ErrInvalidChoice,
			expStatus: http.StatusBadRequest,
		},
		"unexpected": {
			err:       fmt.Errorf("disk on fire"),
			expStatus: http.StatusInternalServerError,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			l := NewHTTPListener(":0", svc, upperInterpreter{})

			rec := serve(t, l, http.MethodPost, "/api/choice", `{"playerID":"p1","blockId":"q1","index":1,"text":"B"}`)
			testutil.AssertEqual(t, "status", rec.Code, tt.expStatus)
			testutil.AssertEqual(t, "index", svc.gotChoice.Index != nil && *svc.gotChoice.Index == 1, true)
		})
	}
}

func TestHTTPListener_Story(t *testing.T) {
	svc := &fakeService{story: "Intro\nHello A (choices given: A, B)"}
	l := NewHTTPListener(":0", svc, upperInterpreter{})

	rec := serve(t, l, http.MethodGet, "/api/players/p1/story?width=10&stories=1,%202", "")
	testutil.AssertEqual(t, "status", rec.Code, http.StatusOK)

	var resp struct {
		PlayerID string `json:"playerID"`
		Story    string `json:"story"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	testutil.AssertEqual(t, "player", resp.PlayerID, "p1")
	testutil.AssertEqual(t, "story", resp.Story, "Intro\nHello A\n(choices\ngiven: A,\nB)")
	testutil.AssertEqual(t, "stories", strings.Join(svc.gotStory, ","), "1,2")

	bad := serve(t, l, http.MethodGet, "/api/players/p1/story?width=wide", "")
	testutil.AssertEqual(t, "bad width", bad.Code, http.StatusBadRequest)
}

func TestHTTPListener_Interpret(t *testing.T) {
	l := NewHTTPListener(":0", &fakeService{}, upperInterpreter{})

	rec := serve(t, l, http.MethodPost, "/api/interpret", `{"text":"hi","playerID":"p1"}`)
	testutil.AssertEqual(t, "status", rec.Code, http.StatusOK)
	testutil.AssertEqual(t, "body", strings.TrimSpace(rec.Body.String()), `{"text":"HI for p1"}`)
}

func TestHTTPListener_Ambient(t *testing.T) {
	l := NewHTTPListener(":0", &fakeService{}, upperInterpreter{}, WithAllowedOrigins([]string{"http://reader.local"}))

	metrics := serve(t, l, http.MethodGet, "/metrics", "")
	testutil.AssertEqual(t, "metrics status", metrics.Code, http.StatusOK)
	testutil.AssertEqual(t, "metrics body", strings.Contains(metrics.Body.String(), "go_goroutines"), true)

	health := serve(t, l, http.MethodGet, "/health", "")
	testutil.AssertEqual(t, "health", strings.TrimSpace(health.Body.String()), `{"status":"ok"}`)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://reader.local")
	rec := httptest.NewRecorder()
	l.Handler().ServeHTTP(rec, req)
	testutil.AssertEqual(t, "cors", rec.Header().Get("Access-Control-Allow-Origin"), "http://reader.local")
}

func TestHTTPListener_Start(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	l := NewHTTPListener(addr, &fakeService{}, upperInterpreter{}, WithShutdownTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Start(ctx) }()

	var resp *http.Response
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err = http.Get("http://" + addr + "/health")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	_ = resp.Body.Close()
	testutil.AssertEqual(t, "status", resp.StatusCode, http.StatusOK)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
}
