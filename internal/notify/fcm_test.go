package notify

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rebuildhq/storeconnect/internal/cache/memory"
	"github.com/rebuildhq/storeconnect/internal/store/core"
)

// testServiceAccount genera una service account con una clave RSA real.
func testServiceAccount(t *testing.T, tokenURL string) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	sa, _ := json.Marshal(map[string]string{
		"client_email": "svc@test-project.iam.gserviceaccount.com",
		"private_key":  string(pemKey),
		"token_uri":    tokenURL,
	})
	return sa
}

// fcmFixture implementa FCMConfig para tests.
type fcmFixture struct {
	projectID string
	sa        []byte
	topics    []string
}

func (f *fcmFixture) FCMProjectID() string      { return f.projectID }
func (f *fcmFixture) FCMServiceAccount() []byte { return f.sa }
func (f *fcmFixture) FCMTopics() []string       { return f.topics }

// fakeDevices implementa core.DeviceRepository en memoria.
type fakeDevices struct {
	primary  []core.Device
	fallback []core.Device
}

func (f *fakeDevices) UpsertDevice(context.Context, core.Device) error { return nil }
func (f *fakeDevices) DeleteDevice(context.Context, string) error      { return nil }
func (f *fakeDevices) ListDevices(_ context.Context, primary bool) ([]core.Device, error) {
	if primary {
		return f.primary, nil
	}
	return f.fallback, nil
}

// fcmBackend simula el endpoint OAuth y el endpoint de envío.
type fcmBackend struct {
	mu         sync.Mutex
	tokenCalls int
	sends      []map[string]any
	failTopics bool
	failTokens bool
}

func (b *fcmBackend) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.tokenCalls++
		b.mu.Unlock()
		if err := r.ParseForm(); err != nil ||
			r.PostForm.Get("grant_type") != "urn:ietf:params:oauth:grant-type:jwt-bearer" ||
			r.PostForm.Get("assertion") == "" {
			http.Error(w, "bad grant", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-access-token",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/send", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-access-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var payload struct {
			Message map[string]any `json:"message"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)

		b.mu.Lock()
		b.sends = append(b.sends, payload.Message)
		failTopics, failTokens := b.failTopics, b.failTokens
		b.mu.Unlock()

		_, isTopic := payload.Message["topic"]
		if (isTopic && failTopics) || (!isTopic && failTokens) {
			http.Error(w, "delivery failed", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"name":"projects/test/messages/1"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (b *fcmBackend) sentTargets() (topics, tokens []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.sends {
		if v, ok := m["topic"].(string); ok {
			topics = append(topics, v)
		}
		if v, ok := m["token"].(string); ok {
			tokens = append(tokens, v)
		}
	}
	return topics, tokens
}

func newTestFCM(t *testing.T, backend *fcmBackend, cfg *fcmFixture, devices *fakeDevices) *FCMService {
	t.Helper()
	srv := backend.start(t)
	cfg.sa = testServiceAccount(t, srv.URL+"/token")
	if cfg.projectID == "" {
		cfg.projectID = "test-project"
	}
	svc := NewFCMService(cfg, devices, memory.New(time.Minute))
	svc.endpoint = srv.URL + "/send"
	return svc
}

func TestSendEventPrefersTopics(t *testing.T) {
	backend := &fcmBackend{}
	svc := newTestFCM(t, backend,
		&fcmFixture{topics: []string{"orders", "alerts"}},
		&fakeDevices{primary: []core.Device{{Token: "tok-a"}}},
	)

	sent, err := svc.SendEvent(context.Background(), Message{Event: "order.status.updated", Title: "Order"})
	if err != nil {
		t.Fatalf("SendEvent: %v", err)
	}
	if sent != 2 {
		t.Fatalf("sent = %d, want 2 (solo topics)", sent)
	}
	topics, tokens := backend.sentTargets()
	if len(topics) != 2 || len(tokens) != 0 {
		t.Fatalf("targets = topics %v tokens %v, want solo topics", topics, tokens)
	}
}

func TestSendEventFallsBackToPrimaryTokens(t *testing.T) {
	backend := &fcmBackend{failTopics: true}
	svc := newTestFCM(t, backend,
		&fcmFixture{topics: []string{"orders"}},
		&fakeDevices{
			primary:  []core.Device{{Token: "tok-a"}, {Token: "tok-b"}},
			fallback: []core.Device{{Token: "tok-z"}},
		},
	)

	sent, err := svc.SendEvent(context.Background(), Message{Event: "order.status.updated"})
	if err != nil {
		t.Fatalf("SendEvent: %v", err)
	}
	if sent != 2 {
		t.Fatalf("sent = %d, want 2 (tokens primarios)", sent)
	}
	_, tokens := backend.sentTargets()
	if len(tokens) != 2 {
		t.Fatalf("tokens enviados = %v, want tok-a y tok-b", tokens)
	}
}

func TestSendEventFallsBackToFallbackTokens(t *testing.T) {
	backend := &fcmBackend{failTopics: true}
	svc := newTestFCM(t, backend,
		&fcmFixture{topics: []string{"orders"}},
		&fakeDevices{fallback: []core.Device{{Token: "tok-z"}}},
	)

	sent, err := svc.SendEvent(context.Background(), Message{Event: "order.status.updated"})
	if err != nil {
		t.Fatalf("SendEvent: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1 (fallback)", sent)
	}
	_, tokens := backend.sentTargets()
	if len(tokens) != 1 || tokens[0] != "tok-z" {
		t.Fatalf("tokens enviados = %v, want [tok-z]", tokens)
	}
}

func TestSendEventAllTiersFail(t *testing.T) {
	backend := &fcmBackend{failTopics: true, failTokens: true}
	svc := newTestFCM(t, backend,
		&fcmFixture{topics: []string{"orders"}},
		&fakeDevices{
			primary:  []core.Device{{Token: "tok-a"}},
			fallback: []core.Device{{Token: "tok-z"}},
		},
	)

	sent, err := svc.SendEvent(context.Background(), Message{Event: "order.status.updated"})
	if err != nil {
		t.Fatalf("SendEvent: %v", err)
	}
	if sent != 0 {
		t.Fatalf("sent = %d, want 0", sent)
	}

	// Los tres niveles se intentan en orden: topic, token primario, fallback
	backend.mu.Lock()
	attempts := len(backend.sends)
	backend.mu.Unlock()
	if attempts != 3 {
		t.Fatalf("intentos = %d, want 3", attempts)
	}
	topics, tokens := backend.sentTargets()
	if len(topics) != 1 || topics[0] != "orders" {
		t.Fatalf("topics intentados = %v, want [orders]", topics)
	}
	if len(tokens) != 2 || tokens[0] != "tok-a" || tokens[1] != "tok-z" {
		t.Fatalf("tokens intentados = %v, want [tok-a tok-z]", tokens)
	}
}

func TestAccessTokenIsCached(t *testing.T) {
	backend := &fcmBackend{}
	svc := newTestFCM(t, backend, &fcmFixture{topics: []string{"orders"}}, &fakeDevices{})

	for i := 0; i < 3; i++ {
		if _, err := svc.SendEvent(context.Background(), Message{Event: "e"}); err != nil {
			t.Fatalf("SendEvent #%d: %v", i, err)
		}
	}

	backend.mu.Lock()
	calls := backend.tokenCalls
	backend.mu.Unlock()
	if calls != 1 {
		t.Fatalf("token endpoint llamado %d veces, want 1", calls)
	}
}

func TestStringifyData(t *testing.T) {
	out := stringifyData("order.status.updated", map[string]any{
		"order_id": 42,
		"total":    19.99,
		"paid":     true,
		"ref":      "ABC",
		"lines":    []any{map[string]any{"sku": "X"}},
		"note":     nil,
	})

	want := map[string]string{
		"event":    "order.status.updated",
		"order_id": "42",
		"total":    "19.99",
		"paid":     "true",
		"ref":      "ABC",
		"lines":    `[{"sku":"X"}]`,
		"note":     "",
	}
	for k, v := range want {
		if out[k] != v {
			t.Fatalf("data[%q] = %q, want %q", k, out[k], v)
		}
	}
}

func TestSendEventUnconfigured(t *testing.T) {
	svc := NewFCMService(&fcmFixture{}, &fakeDevices{}, memory.New(time.Minute))
	if _, err := svc.SendEvent(context.Background(), Message{Event: "e"}); err == nil {
		t.Fatal("esperaba error con FCM sin configurar")
	}
}
