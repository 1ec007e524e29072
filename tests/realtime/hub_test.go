package realtime_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/config"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/realtime"
)

const hubTestTenant = domain.TenantID("test-tenant")

func newTestHub() *realtime.Hub {
	cfg := &config.RealtimeConfig{
		Enabled:        true,
		WriteTimeout:   2,
		PingInterval:   1,
		SendBufferSize: 4,
	}
	return realtime.NewHub(cfg, zap.NewNop())
}

// streamServer wraps the hub in a handler that injects the authenticated
// user, the way the auth middleware does in the real router
func streamServer(t *testing.T, hub *realtime.Hub, userID uuid.UUID) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithUserContext(r.Context(), &auth.UserContext{
			UserID:      userID,
			DisplayName: "Stream User",
			TenantID:    hubTestTenant,
		})
		hub.ServeHTTP(w, r.WithContext(ctx))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialStream(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

func TestHub_PublishReachesConnectedClient(t *testing.T) {
	hub := newTestHub()
	defer hub.Shutdown(context.Background())

	userID := uuid.New()
	srv := streamServer(t, hub, userID)
	conn := dialStream(t, srv)
	defer conn.Close()

	notification := &domain.NotificationDTO{
		ID:     uuid.New(),
		UserID: userID,
		Title:  "Stage changed",
		Unread: true,
	}

	// Registration happens on the server goroutine, so publish until the
	// event lands rather than racing a single send against the upgrade
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				hub.Publish(hubTestTenant, userID, notification)
			}
		}
	}()
	defer close(done)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"event":"notification"`)
	assert.Contains(t, string(msg), "Stage changed")
}

func TestHub_PublishIgnoresOtherUsers(t *testing.T) {
	hub := newTestHub()
	defer hub.Shutdown(context.Background())

	userID := uuid.New()
	srv := streamServer(t, hub, userID)
	conn := dialStream(t, srv)
	defer conn.Close()

	hub.Publish(hubTestTenant, uuid.New(), &domain.NotificationDTO{
		ID:    uuid.New(),
		Title: "Not yours",
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	_, msg, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no delivery for another user, got %s", msg)
	}
}

// Publishes race disconnects and shutdown; a send on a closed client channel
// would panic and fail the run.
func TestHub_PublishSurvivesConcurrentDisconnect(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()
	srv := streamServer(t, hub, userID)

	notification := &domain.NotificationDTO{
		ID:     uuid.New(),
		UserID: userID,
		Title:  "Racing event",
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					hub.Publish(hubTestTenant, userID, notification)
				}
			}
		}()
	}

	for i := 0; i < 10; i++ {
		conn := dialStream(t, srv)
		time.Sleep(5 * time.Millisecond)
		conn.Close()
	}

	hub.Shutdown(context.Background())
	close(stop)
	wg.Wait()
}
