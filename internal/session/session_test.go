package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/railsahayak/internal/models"
)

func TestDemoAuthenticatorDefaults(t *testing.T) {
	id, err := DemoAuthenticator{}.SignIn(context.Background(), Credentials{Provider: models.ProviderGoogle})
	if err != nil {
		t.Fatal(err)
	}
	if id.UID != "mock-google-id" || id.DisplayName != "Demo User" || id.Email != "demo@railsahayak.com" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestProfileFromIdentityFallbacks(t *testing.T) {
	tests := []struct {
		id       Identity
		name     string
		avatarOK func(string) bool
	}{
		{Identity{UID: "1", DisplayName: "Meera", PhotoURL: "https://img/x.png"}, "Meera", func(a string) bool { return a == "https://img/x.png" }},
		{Identity{UID: "2", Email: "ravi.k@example.com"}, "ravi.k", func(a string) bool { return strings.Contains(a, "name=ravi.k&background=random") }},
		{Identity{UID: "3"}, "Traveller", func(a string) bool { return strings.HasPrefix(a, "https://ui-avatars.com/api/?name=Traveller") }},
	}
	for _, tc := range tests {
		p := ProfileFromIdentity(tc.id, "")
		if p.Name != tc.name || !tc.avatarOK(p.Avatar) {
			t.Fatalf("%s: got name=%q avatar=%q", tc.id.UID, p.Name, p.Avatar)
		}
		if p.Level != "Scout" || p.Points != 100 || p.Provider != models.ProviderEmail {
			t.Fatalf("%s: unexpected gamification %+v", tc.id.UID, p)
		}
	}
}

func TestFirebasePasswordSignIn(t *testing.T) {
	var gotPath, gotKey string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotKey = r.URL.Path, r.URL.Query().Get("key")
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"INVALID_PASSWORD"}}`))
			return
		}
		w.Write([]byte(`{"localId":"uid-1","email":"asha@example.com","displayName":""}`))
	}))
	defer srv.Close()

	f := &FirebaseAuthenticator{Endpoint: srv.URL, APIKey: "fb-key", Client: srv.Client()}
	id, err := f.SignIn(context.Background(), Credentials{Provider: models.ProviderEmail, Email: "asha@example.com", Password: "secret"})
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/accounts:signInWithPassword" || gotKey != "fb-key" || id.UID != "uid-1" {
		t.Fatalf("unexpected call %s key=%s id=%+v", gotPath, gotKey, id)
	}

	_, err = f.SignIn(context.Background(), Credentials{Provider: models.ProviderEmail, Email: "asha@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) || !strings.Contains(err.Error(), "INVALID_PASSWORD") {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestFirebaseGoogleSignIn(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:signInWithIdp" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"localId":"g-1","email":"a@b.c","displayName":"Asha","photoUrl":"https://p/1.png"}`))
	}))
	defer srv.Close()

	f := &FirebaseAuthenticator{Endpoint: srv.URL, Client: srv.Client()}
	id, err := f.SignIn(context.Background(), Credentials{Provider: models.ProviderGoogle, IDToken: "tok"})
	if err != nil {
		t.Fatal(err)
	}
	if id.PhotoURL != "https://p/1.png" || !strings.Contains(body["postBody"].(string), "id_token=tok") {
		t.Fatalf("unexpected identity %+v body %v", id, body)
	}
	if _, err := f.SignIn(context.Background(), Credentials{Provider: models.ProviderGoogle}); !errors.Is(err, ErrUnsupportedLogin) {
		t.Fatalf("expected unsupported login, got %v", err)
	}
}

type recordingCleaner struct{ cleared []string }

func (r *recordingCleaner) Clear(s string) { r.cleared = append(r.cleared, s) }

func TestManagerLoginProfileLogout(t *testing.T) {
	store := NewMemoryProfileStore()
	m := NewManager(DemoAuthenticator{}, store, time.Hour, nil)
	c := &recordingCleaner{}
	m.OnLogout(c)
	ctx := context.Background()

	token, p, err := m.Login(ctx, Credentials{Provider: models.ProviderEmail, Name: "Asha"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Asha" || p.ID != "mock-email-id" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if _, ok, _ := store.Get(ctx, KeyPrefix+token); !ok {
		t.Fatal("expected fallback copy written")
	}

	// a fresh manager sharing the store restores the session
	m2 := NewManager(DemoAuthenticator{}, store, time.Hour, nil)
	if got, err := m2.Profile(ctx, token); err != nil || got.Name != "Asha" {
		t.Fatalf("expected restore from store, got %+v %v", got, err)
	}

	if err := m.Logout(ctx, token); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Profile(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected no session after logout, got %v", err)
	}
	if _, ok, _ := store.Get(ctx, KeyPrefix+token); ok {
		t.Fatal("fallback copy survived logout")
	}
	if len(c.cleared) != 1 || c.cleared[0] != token {
		t.Fatalf("expected session state cleared, got %v", c.cleared)
	}
}

func TestManagerSessionExpires(t *testing.T) {
	store := NewMemoryProfileStore()
	m := NewManager(DemoAuthenticator{}, store, time.Hour, nil)
	now := time.Now()
	clock := func() time.Time { return now }
	m.Now, store.Now = clock, clock
	ctx := context.Background()

	token, _, err := m.Login(ctx, Credentials{Provider: models.ProviderEmail})
	if err != nil {
		t.Fatal(err)
	}
	now = now.Add(30 * time.Minute)
	if _, err := m.Profile(ctx, token); err != nil {
		t.Fatalf("session should still be valid: %v", err)
	}

	now = now.Add(48 * time.Hour)
	if _, err := m.Profile(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected expired session, got %v", err)
	}

	// sessions never logged out are dropped on the next login
	stale, _, _ := m.Login(ctx, Credentials{Provider: models.ProviderEmail})
	now = now.Add(2 * time.Hour)
	m.Login(ctx, Credentials{Provider: models.ProviderGoogle})
	m.mu.RLock()
	_, kept := m.profiles[stale]
	n := len(m.profiles)
	m.mu.RUnlock()
	if kept || n != 1 {
		t.Fatalf("expected expired sessions pruned, %d left", n)
	}
}

func TestManagerRestoredSessionFollowsStoreExpiry(t *testing.T) {
	store := NewMemoryProfileStore()
	now := time.Now()
	store.Now = func() time.Time { return now }
	ctx := context.Background()

	token, _, _ := NewManager(DemoAuthenticator{}, store, time.Hour, nil).Login(ctx, Credentials{Provider: models.ProviderEmail})
	other := NewManager(DemoAuthenticator{}, store, time.Hour, nil)
	if _, err := other.Profile(ctx, token); err != nil {
		t.Fatalf("expected restore from store: %v", err)
	}
	now = now.Add(2 * time.Hour)
	if _, err := other.Profile(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("restored session outlived the store copy: %v", err)
	}
}

// gatedStore pauses Get after reading so a logout can run in between.
type gatedStore struct {
	*MemoryProfileStore
	read, release chan struct{}
}

func (g *gatedStore) Get(ctx context.Context, key string) (models.UserProfile, bool, error) {
	p, ok, err := g.MemoryProfileStore.Get(ctx, key)
	g.read <- struct{}{}
	<-g.release
	return p, ok, err
}

func TestLogoutDuringRestoreStaysLoggedOut(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryProfileStore()
	token, _, _ := NewManager(DemoAuthenticator{}, mem, time.Hour, nil).Login(ctx, Credentials{Provider: models.ProviderEmail})

	g := &gatedStore{MemoryProfileStore: mem, read: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(DemoAuthenticator{}, g, time.Hour, nil)

	done := make(chan error, 1)
	go func() {
		_, err := m.Profile(ctx, token)
		done <- err
	}()
	<-g.read
	if err := m.Logout(ctx, token); err != nil {
		t.Fatal(err)
	}
	close(g.release)
	if err := <-done; err != nil {
		t.Fatalf("in-flight lookup failed: %v", err)
	}

	go func() { <-g.read }()
	if _, err := m.Profile(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("token valid again after logout: %v", err)
	}
}

func TestMemoryProfileStoreExpiry(t *testing.T) {
	s := NewMemoryProfileStore()
	now := time.Now()
	s.Now = func() time.Time { return now }
	s.Put(context.Background(), "k", models.UserProfile{ID: "1"}, time.Minute)
	now = now.Add(2 * time.Minute)
	if _, ok, _ := s.Get(context.Background(), "k"); ok {
		t.Fatal("expected expired entry")
	}
}

type fakeKV struct {
	data map[string]string
	ttl  time.Duration
	err  error
}

func (f *fakeKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key], f.ttl = value, ttl
	return nil
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeKV) Del(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func TestRedisProfileStore(t *testing.T) {
	kv := &fakeKV{data: map[string]string{}}
	s := NewRedisProfileStore(kv)
	ctx := context.Background()

	if err := s.Put(ctx, "railSahayak_demo_user:t1", models.UserProfile{ID: "u1", Name: "Asha"}, time.Hour); err != nil {
		t.Fatal(err)
	}
	if kv.ttl != time.Hour || !strings.Contains(kv.data["railSahayak_demo_user:t1"], `"name":"Asha"`) {
		t.Fatalf("unexpected stored value %v ttl=%v", kv.data, kv.ttl)
	}
	p, ok, err := s.Get(ctx, "railSahayak_demo_user:t1")
	if err != nil || !ok || p.ID != "u1" {
		t.Fatalf("unexpected get %+v %v %v", p, ok, err)
	}
	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	kv.err = errors.New("connection refused")
	if _, _, err := s.Get(ctx, "railSahayak_demo_user:t1"); err == nil {
		t.Fatal("expected redis error surfaced")
	}
}
