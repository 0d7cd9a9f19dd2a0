package settings

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore implementa Store en memoria para tests.
type memStore struct {
	s     Settings
	has   bool
	saves int
}

func (m *memStore) Load(context.Context) (Settings, error) {
	if !m.has {
		return Settings{}, ErrNotFound
	}
	return m.s, nil
}

func (m *memStore) Save(_ context.Context, s Settings) error {
	m.s = s
	m.has = true
	m.saves++
	return nil
}

func noEnv(string) (string, bool) { return "", false }

func newTestService(t *testing.T, st *memStore) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), st, WithLookup(noEnv))
	require.NoError(t, err)
	return svc
}

func TestEnsureCredentials(t *testing.T) {
	st := &memStore{}
	svc := newTestService(t, st)

	require.NoError(t, svc.EnsureCredentials(context.Background()))

	key := svc.APIKey()
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{40}$`), key)

	secret, err := svc.JWTSecret()
	require.NoError(t, err)
	assert.Len(t, secret, JWTSecretBytes)

	// Idempotente: segunda llamada no regenera ni guarda
	saves := st.saves
	require.NoError(t, svc.EnsureCredentials(context.Background()))
	assert.Equal(t, saves, st.saves)
	assert.Equal(t, key, svc.APIKey())
}

func TestRotateAPIKey(t *testing.T) {
	st := &memStore{}
	svc := newTestService(t, st)
	require.NoError(t, svc.EnsureCredentials(context.Background()))

	old := svc.APIKey()
	rotated, err := svc.RotateAPIKey(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, old, rotated)
	assert.Equal(t, rotated, svc.APIKey())
}

func TestTokenTTLFloors(t *testing.T) {
	cases := []struct {
		name string
		secs int
		want time.Duration
	}{
		{"default cuando no hay valor", 0, DefaultTokenTTL},
		{"piso de 5 minutos", 60, MinTokenTTL},
		{"valor configurado", 7200, 2 * time.Hour},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			st := &memStore{s: Settings{TokenTTLSeconds: c.secs}, has: true}
			svc := newTestService(t, st)
			assert.Equal(t, c.want, svc.TokenTTL())
		})
	}
}

func TestRateLimitFloor(t *testing.T) {
	st := &memStore{s: Settings{RateLimitPerMinute: -5}, has: true}
	svc := newTestService(t, st)
	assert.Equal(t, 1, svc.RateLimitPerMinute())

	st2 := &memStore{}
	svc2 := newTestService(t, st2)
	assert.Equal(t, DefaultRateLimitPerMinute, svc2.RateLimitPerMinute())
}

func TestSetAllowedIPsRejectsInvalidEntry(t *testing.T) {
	st := &memStore{s: Settings{AllowedIPs: []string{"10.0.0.1"}}, has: true}
	svc := newTestService(t, st)

	err := svc.SetAllowedIPs(context.Background(), []string{"192.168.0.0/16", "nonsense"})
	require.Error(t, err)
	// La lista previa queda intacta
	assert.Equal(t, []string{"10.0.0.1"}, svc.AllowedIPs())

	require.NoError(t, svc.SetAllowedIPs(context.Background(), []string{"192.168.0.0/16", "2001:db8::1"}))
	assert.Equal(t, []string{"192.168.0.0/16", "2001:db8::1"}, svc.AllowedIPs())
}

func TestScopesDefaults(t *testing.T) {
	svc := newTestService(t, &memStore{})
	assert.Equal(t, DefaultScopes, svc.Scopes())

	st := &memStore{s: Settings{Scopes: []string{"orders.read"}}, has: true}
	svc2 := newTestService(t, st)
	assert.Equal(t, []string{"orders.read"}, svc2.Scopes())
}

func TestEnvOverrides(t *testing.T) {
	env := map[string]string{
		"STORECONNECT_API_KEY":               "env-key",
		"STORECONNECT_RATE_LIMIT_PER_MINUTE": "120",
		"STORECONNECT_ALLOWED_IPS":           "10.0.0.1, 10.0.0.2",
		"STORECONNECT_DEV_MODE":              "true",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	st := &memStore{s: Settings{APIKey: "stored-key", RateLimitPerMinute: 30}, has: true}
	svc, err := NewService(context.Background(), st, WithLookup(lookup))
	require.NoError(t, err)

	assert.Equal(t, "env-key", svc.APIKey())
	assert.Equal(t, 120, svc.RateLimitPerMinute())
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, svc.AllowedIPs())
	assert.True(t, svc.DevMode())
}

func TestSetWebhookValidatesURL(t *testing.T) {
	st := &memStore{s: Settings{WebhookURL: "https://prev.example/hook"}, has: true}
	svc := newTestService(t, st)

	for _, bad := range []string{"not a url", "/solo/path", "example.com/hook", "https://"} {
		err := svc.SetWebhook(context.Background(), bad, "s3cret")
		require.Error(t, err, "url %q", bad)
	}
	// La configuración previa queda intacta tras un rechazo
	assert.Equal(t, "https://prev.example/hook", svc.WebhookURL())

	require.NoError(t, svc.SetWebhook(context.Background(), "https://hooks.example/orders", "s3cret"))
	assert.Equal(t, "https://hooks.example/orders", svc.WebhookURL())
	assert.Equal(t, "s3cret", svc.WebhookSecret())

	// URL vacía desactiva el canal
	require.NoError(t, svc.SetWebhook(context.Background(), "", ""))
	assert.Equal(t, "", svc.WebhookURL())
}

func TestSetEnvOverrides(t *testing.T) {
	st := &memStore{}
	svc := newTestService(t, st)

	err := svc.SetEnvOverrides(context.Background(), []string{"lower_case=1"})
	require.Error(t, err)
	err = svc.SetEnvOverrides(context.Background(), []string{"SIN_IGUAL"})
	require.Error(t, err)

	lines := []string{
		"# comentario",
		"",
		"STORECONNECT_RATE_LIMIT_PER_MINUTE= 90 ",
	}
	require.NoError(t, svc.SetEnvOverrides(context.Background(), lines))
	assert.Equal(t, 90, svc.RateLimitPerMinute())

	// La variable real de entorno gana sobre el override guardado.
	env := map[string]string{"STORECONNECT_RATE_LIMIT_PER_MINUTE": "45"}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }
	svc2, err := NewService(context.Background(), st, WithLookup(lookup))
	require.NoError(t, err)
	assert.Equal(t, 45, svc2.RateLimitPerMinute())
}

func TestFCMTopicsFiltersInvalid(t *testing.T) {
	st := &memStore{s: Settings{FCMTopics: []string{"orders", "bad topic", "news_1"}}, has: true}
	svc := newTestService(t, st)
	assert.Equal(t, []string{"orders", "news_1"}, svc.FCMTopics())

	err := svc.SetFCMTopics(context.Background(), []string{"ok", "not ok"})
	require.Error(t, err)
}

func TestSecretPreview(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"short", "short"},
		{"12345678", "12345678"},
		{"123456789", "1234•6789"},
		{"abcdefghijkl", "abcd••••ijkl"},
	}
	for _, c := range cases {
		if got := SecretPreview(c.in); got != c.want {
			t.Fatalf("SecretPreview(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFSStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFSStore(dir)
	require.NoError(t, err)

	_, err = st.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	in := Settings{APIKey: "k", JWTSecret: "s", TokenTTLSeconds: 900, FCMTopics: []string{"orders"}}
	require.NoError(t, st.Save(context.Background(), in))

	out, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
