package live_api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"ms-ordering/internal/auth"
	callsdb "ms-ordering/internal/calls/db"
	catalogdb "ms-ordering/internal/catalog/db"
	"ms-ordering/internal/database/dbtest"
	"ms-ordering/internal/feed"
	"ms-ordering/internal/live"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
	orderdb "ms-ordering/internal/order/db"
	"ms-ordering/internal/tables"
	tablesdb "ms-ordering/internal/tables/db"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const token = "table2-access-token-xyz"

type env struct {
	server *httptest.Server
	orders *order.OrderService
	bus    *feed.Bus
	table  *models.Table
	item   *models.MenuItem
}

func setup(t *testing.T) *env {
	db := dbtest.New(t)
	table := dbtest.Table(t, db, "r1", 2, token, time.Now().Add(-time.Hour))
	cat := dbtest.Category(t, db, "r1", models.SlugBrunch)
	item := dbtest.Item(t, db, "r1", cat.ID, "Tiramisu", 700, false)

	bus := feed.NewBus()
	store := &orderdb.DB{Bun: db}
	svc := order.NewOrderService(store, tables.NewResolver(&tablesdb.DB{Bun: db}), &catalogdb.DB{Bun: db}, bus, nil,
		logger.NewTestLogger(), order.Config{DefaultRestaurantID: "r1"})

	h := NewHandler(bus, svc, store, &callsdb.DB{Bun: db}, live.NewMemoryLedger(0), Config{
		RefreshInterval: time.Minute,
		Heartbeat:       time.Minute,
	}, logger.NewTestLogger())

	chef := &models.StaffProfile{ID: "chef", Role: models.RoleKitchen, RestaurantID: "r1"}
	r := chi.NewRouter()
	r.Get("/api/live/table", h.Table)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(auth.WithStaff(req.Context(), chef)))
			})
		})
		r.Get("/api/live/kitchen", h.Kitchen)
		r.Get("/api/live/calls", h.Calls)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return &env{server: server, orders: svc, bus: bus, table: table, item: item}
}

// events reads "event:" names from an open stream.
func events(t *testing.T, ctx context.Context, target string) (<-chan string, *http.Response) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
				out <- name
			}
		}
	}()
	return out, resp
}

func expect(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		assert.Equal(t, want, got)
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", want)
	}
}

func TestKitchenStreamAnnouncesArrivals(t *testing.T) {
	e := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, resp := events(t, ctx, e.server.URL+"/api/live/kitchen")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream;charset=UTF-8", resp.Header.Get("Content-Type"))
	expect(t, stream, "connected")
	expect(t, stream, "snapshot")

	require.Eventually(t, func() bool { return e.bus.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
	_, err := e.orders.PlaceOrder(ctx, models.OrderRequest{
		TableNumber: 2,
		AccessToken: token,
		Lines:       []models.OrderLineRequest{{ItemID: e.item.ID}},
	})
	require.NoError(t, err)

	expect(t, stream, "snapshot")
	expect(t, stream, "arrival")
}

func TestCallsStream(t *testing.T) {
	e := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, resp := events(t, ctx, e.server.URL+"/api/live/calls")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	expect(t, stream, "connected")
	expect(t, stream, "snapshot")
}

func TestTableStream(t *testing.T) {
	e := setup(t)

	resp, err := http.Get(e.server.URL + "/api/live/table?tableNumber=2")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(e.server.URL + "/api/live/table?tableNumber=2&accessToken=wrong-token-000000000")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := url.Values{"tableNumber": {"2"}, "accessToken": {token}}
	stream, resp := events(t, ctx, e.server.URL+"/api/live/table?"+q.Encode())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	expect(t, stream, "connected")
	expect(t, stream, "snapshot")

	require.Eventually(t, func() bool { return e.bus.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
	_, err = e.orders.PlaceOrder(ctx, models.OrderRequest{
		TableNumber: 2,
		AccessToken: token,
		Lines:       []models.OrderLineRequest{{ItemID: e.item.ID}},
	})
	require.NoError(t, err)
	expect(t, stream, "snapshot")
}
