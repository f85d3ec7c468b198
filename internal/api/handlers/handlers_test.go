package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxiride/ride-hailing/internal/api/handlers"
	"github.com/taxiride/ride-hailing/internal/api/routes"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/internal/domain/rider"
	"github.com/taxiride/ride-hailing/internal/service/directory"
	"github.com/taxiride/ride-hailing/internal/service/geocoding"
	"github.com/taxiride/ride-hailing/internal/service/lifecycle"
	"github.com/taxiride/ride-hailing/internal/service/pricing"
	"github.com/taxiride/ride-hailing/internal/store/memory"
	"github.com/taxiride/ride-hailing/pkg/cache"
	apperrors "github.com/taxiride/ride-hailing/pkg/errors"
	"github.com/taxiride/ride-hailing/pkg/logger"
	"github.com/taxiride/ride-hailing/pkg/monitoring"
	"github.com/taxiride/ride-hailing/pkg/websocket"
)

type memoryKV struct {
	values map[string]string
}

func (m *memoryKV) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryKV) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if b, ok := value.([]byte); ok {
		m.values[key] = string(b)
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryKV) SetNX(ctx context.Context, key string, value interface{}, exp time.Duration) *redis.BoolCmd {
	if _, ok := m.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.Set(ctx, key, value, exp)
	return redis.NewBoolResult(true, nil)
}

func (m *memoryKV) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.values, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

type testServer struct {
	t       *testing.T
	router  *gin.Engine
	store   *memory.Store
	hub     *websocket.Hub
	kv      *memoryKV
	riderID uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memory.New()
	policy, err := pricing.NewFlatRatePolicy(pricing.DefaultConfig())
	require.NoError(t, err)
	manager, err := lifecycle.NewManager(lifecycle.Deps{
		Store:     st,
		Directory: directory.NewService(st.Drivers(), logger.NewNop()),
		Pricing:   policy,
		Geocoder:  geocoding.NewStubGeocoder(),
		Logger:    logger.NewNop(),
	})
	require.NoError(t, err)

	kv := &memoryKV{values: map[string]string{}}
	idempotency := cache.NewIdempotency(kv, time.Hour)
	hub := websocket.NewHub(logger.NewNop())
	h := handlers.NewHandlers(manager, idempotency, hub, logger.NewNop())

	reg := prometheus.NewRegistry()
	router := gin.New()
	routes.SetupRoutes(router, h, routes.Options{
		Metrics:  monitoring.NewMetrics(reg),
		Gatherer: reg,
	})

	s := &testServer{t: t, router: router, store: st, hub: hub, kv: kv, riderID: uuid.New()}
	require.NoError(t, st.Riders().Create(context.Background(), &rider.Rider{ID: s.riderID, Name: "Anna"}))
	return s
}

func (s *testServer) addDriver(vt driver.VehicleType) uuid.UUID {
	s.t.Helper()
	ctx := context.Background()
	id := uuid.New()
	require.NoError(s.t, s.store.Drivers().Create(ctx, &driver.Driver{
		ID: id, Name: "Jan", StarRating: 4.5, IsAvailable: true, IsVerified: true,
	}))
	require.NoError(s.t, s.store.Drivers().SaveVehicle(ctx, &driver.Vehicle{
		DriverID: id, Type: vt, Make: "Toyota", Model: "Corolla", Color: "White", IsActive: true,
	}))
	return id
}

func (s *testServer) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) createRide() string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/v1/rides", gin.H{
		"rider_id":        s.riderID,
		"pickup_address":  "ul. Mickiewicza 15, Kraków",
		"dropoff_address": "Rynek Główny 1, Kraków",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode(s.t, w)["ride_id"].(string)
}

func TestRideFlow(t *testing.T) {
	s := newTestServer(t)
	d1 := s.addDriver(driver.VehicleStandard)
	d2 := s.addDriver(driver.VehicleComfort)

	rideID := s.createRide()

	w := s.do(http.MethodGet, "/v1/rides/"+rideID+"/offers?sort=price", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["count"])

	w = s.do(http.MethodPost, "/v1/rides/"+rideID+"/accept-offer", gin.H{"driver_id": d2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ride := decode(t, w)["ride"].(map[string]interface{})
	assert.Equal(t, "accepted", ride["status"])
	assert.Equal(t, d2.String(), ride["driver_id"])

	w = s.do(http.MethodPost, "/v1/rides/"+rideID+"/accept-offer", gin.H{"driver_id": d1})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeInvalidState, decode(t, w)["code"])

	w = s.do(http.MethodPost, "/v1/rides/"+rideID+"/start", gin.H{"driver_id": d2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/rides/"+rideID+"/complete", gin.H{"final_price": 42.0, "payment_method": "card"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 42.0, decode(t, w)["fare"])

	w = s.do(http.MethodPost, "/v1/rides/"+rideID+"/rate", gin.H{"rating": 5, "comment": "Super"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/v1/drivers/"+d2.String()+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.Equal(t, 42.0, stats["total_earnings"])
	assert.Equal(t, 5.0, stats["average_rating"])

	w = s.do(http.MethodGet, "/v1/history?user_id="+s.riderID.String()+"&role=rider", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = s.do(http.MethodPost, "/v1/rides/"+rideID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateRide_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{name: "Missing fields", body: gin.H{"rider_id": s.riderID}, status: http.StatusBadRequest, code: apperrors.CodeValidation},
		{name: "Bad rider id", body: gin.H{"rider_id": "nope", "pickup_address": "a", "dropoff_address": "b"}, status: http.StatusBadRequest, code: apperrors.CodeValidation},
		{name: "Unknown rider", body: gin.H{"rider_id": uuid.New(), "pickup_address": "Rynek Główny 1", "dropoff_address": "ul. Długa 10"}, status: http.StatusNotFound, code: apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/v1/rides", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w)["code"])
		})
	}
}

func TestCreateRide_NoDrivers(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/v1/rides", gin.H{
		"rider_id":        s.riderID,
		"pickup_address":  "Rynek Główny 1, Kraków",
		"dropoff_address": "ul. Długa 10, Kraków",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["has_drivers"])
	assert.Equal(t, "no_drivers_available", body["status"])
}

func TestCreateRide_IdempotencyKeyReplays(t *testing.T) {
	s := newTestServer(t)
	s.addDriver(driver.VehicleStandard)
	body := gin.H{
		"rider_id":        s.riderID,
		"pickup_address":  "ul. Mickiewicza 15, Kraków",
		"dropoff_address": "Rynek Główny 1, Kraków",
	}

	first := s.do(http.MethodPost, "/v1/rides", body, "Idempotency-Key", "req-1")
	require.Equal(t, http.StatusCreated, first.Code)
	second := s.do(http.MethodPost, "/v1/rides", body, "Idempotency-Key", "req-1")
	require.Equal(t, http.StatusCreated, second.Code)

	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, decode(t, first)["ride_id"], decode(t, second)["ride_id"])

	rides, err := s.store.Rides().ListByRider(context.Background(), s.riderID, 10)
	require.NoError(t, err)
	assert.Len(t, rides, 1)

	third := s.do(http.MethodPost, "/v1/rides", body, "Idempotency-Key", "req-2")
	assert.NotEqual(t, decode(t, first)["ride_id"], decode(t, third)["ride_id"])
}

// TestCreateRide_IdempotencyKeyInProgress tests that a key held by an unfinished request is not run twice
func TestCreateRide_IdempotencyKeyInProgress(t *testing.T) {
	s := newTestServer(t)
	s.addDriver(driver.VehicleStandard)
	body := gin.H{
		"rider_id":        s.riderID,
		"pickup_address":  "ul. Mickiewicza 15, Kraków",
		"dropoff_address": "Rynek Główny 1, Kraków",
	}
	s.kv.values["idempotency:create_ride:req-1"] = `{"status":0}`

	w := s.do(http.MethodPost, "/v1/rides", body, "Idempotency-Key", "req-1")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeInvalidState, decode(t, w)["code"])
	assert.Contains(t, s.kv.values, "idempotency:create_ride:req-1", "the holder keeps its reservation")

	rides, err := s.store.Rides().ListByRider(context.Background(), s.riderID, 10)
	require.NoError(t, err)
	assert.Empty(t, rides)
}

// TestCreateRide_FailedRequestReleasesKey tests that a rejected request leaves its key free for a retry
func TestCreateRide_FailedRequestReleasesKey(t *testing.T) {
	s := newTestServer(t)
	s.addDriver(driver.VehicleStandard)

	w := s.do(http.MethodPost, "/v1/rides", gin.H{"rider_id": s.riderID}, "Idempotency-Key", "req-1")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, s.kv.values, "idempotency:create_ride:req-1")

	w = s.do(http.MethodPost, "/v1/rides", gin.H{
		"rider_id":        s.riderID,
		"pickup_address":  "ul. Mickiewicza 15, Kraków",
		"dropoff_address": "Rynek Główny 1, Kraków",
	}, "Idempotency-Key", "req-1")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get("Idempotent-Replayed"))
}

func TestRideEndpoints_BadInput(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/v1/rides/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/v1/rides/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	rideID := s.createRide()
	w = s.do(http.MethodPost, "/v1/rides/"+rideID+"/status", gin.H{"status": "accepted"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/v1/rides/"+rideID+"/complete", gin.H{"payment_method": "card"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "final_price is required")

	w = s.do(http.MethodGet, "/v1/history?user_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpenRidesAndDriverEndpoints(t *testing.T) {
	s := newTestServer(t)
	d := s.addDriver(driver.VehicleStandard)
	s.createRide()

	w := s.do(http.MethodGet, "/v1/rides/open", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = s.do(http.MethodPost, "/v1/drivers/"+d.String()+"/location", gin.H{"latitude": 50.06, "longitude": 19.94})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/drivers/"+d.String()+"/location", gin.H{"latitude": 95.0, "longitude": 19.94})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/v1/drivers/"+d.String()+"/availability", gin.H{"available": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["is_available"])

	w = s.do(http.MethodPost, "/v1/drivers/"+d.String()+"/availability", gin.H{"available": true, "latitude": 50.0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/v1/drivers/"+d.String()+"/active-rides", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["count"])
}

func TestCompareScheduleAndAddresses(t *testing.T) {
	s := newTestServer(t)
	s.addDriver(driver.VehicleStandard)
	s.addDriver(driver.VehiclePremium)

	w := s.do(http.MethodPost, "/v1/offers/compare", gin.H{
		"pickup_address":  "ul. Mickiewicza 15, Kraków",
		"dropoff_address": "Rynek Główny 1, Kraków",
		"comfort_only":    true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = s.do(http.MethodPost, "/v1/reservations", gin.H{
		"rider_id":        s.riderID,
		"pickup_address":  "ul. Mickiewicza 15, Kraków",
		"dropoff_address": "Rynek Główny 1, Kraków",
		"scheduled_at":    time.Now().Add(10 * time.Minute).UTC().Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/v1/reservations", gin.H{
		"rider_id":        s.riderID,
		"pickup_address":  "ul. Mickiewicza 15, Kraków",
		"dropoff_address": "Rynek Główny 1, Kraków",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/addresses/validate", gin.H{"address": "ul. Nieistniejąca 5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/v1/addresses/validate", gin.H{"address": "Rynek Główny 1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["valid"])

	w = s.do(http.MethodGet, "/v1/addresses/suggestions?q=ul.", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotZero(t, decode(t, w)["count"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.hub.Run(ctx)
	for _, c := range []*websocket.Client{
		websocket.NewClient(s.hub, nil, uuid.NewString(), websocket.UserTypeRider, logger.NewNop()),
		websocket.NewClient(s.hub, nil, uuid.NewString(), websocket.UserTypeDriver, logger.NewNop()),
		websocket.NewClient(s.hub, nil, uuid.NewString(), websocket.UserTypeDriver, logger.NewNop()),
	} {
		s.hub.Register(c)
	}
	require.Eventually(t, func() bool { return s.hub.GetActiveConnections() == 3 }, time.Second, 5*time.Millisecond)

	w := s.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(3), body["websocket_connections"])
	assert.Equal(t, float64(1), body["websocket_riders"])
	assert.Equal(t, float64(2), body["websocket_drivers"])

	w = s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ride_lifecycle_http_requests_total")
}

func TestWebSocket_RejectsBadQuery(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/v1/ws?user_id=abc&user_type=rider", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/v1/ws?user_id="+uuid.NewString()+"&user_type=admin", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
