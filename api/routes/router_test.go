package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/northwind-labs/storefront/internal/auth"
	"github.com/northwind-labs/storefront/internal/cart"
	"github.com/northwind-labs/storefront/internal/checkout"
	"github.com/northwind-labs/storefront/internal/orders"
	"github.com/northwind-labs/storefront/internal/products"
	"github.com/northwind-labs/storefront/internal/users"
	pkgAuth "github.com/northwind-labs/storefront/pkg/auth"
	"github.com/northwind-labs/storefront/pkg/auth/session"
	"github.com/northwind-labs/storefront/pkg/config"
	"github.com/northwind-labs/storefront/pkg/db/dbtest"
	"github.com/northwind-labs/storefront/pkg/db/models"
	"github.com/northwind-labs/storefront/pkg/enums"
	"github.com/northwind-labs/storefront/pkg/logger"
	"github.com/northwind-labs/storefront/pkg/metrics"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

// memorySessions issues refresh tokens in memory and treats any access id as live until revoked.
type memorySessions struct {
	mu      sync.Mutex
	tokens  map[string]string
	owners  map[string]uuid.UUID
	revoked map[string]bool
}

func newMemorySessions() *memorySessions {
	return &memorySessions{tokens: map[string]string{}, owners: map[string]uuid.UUID{}, revoked: map[string]bool{}}
}

func (m *memorySessions) Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := "refresh-" + uuid.NewString()
	m.tokens[accessID] = token
	m.owners[accessID] = userID
	return token, nil
}

func (m *memorySessions) Rotate(ctx context.Context, oldAccessID, provided string) (*session.Rotation, error) {
	m.mu.Lock()
	token, ok := m.tokens[oldAccessID]
	owner := m.owners[oldAccessID]
	if !ok || token != provided {
		m.mu.Unlock()
		return nil, session.ErrInvalidRefreshToken
	}
	delete(m.tokens, oldAccessID)
	m.revoked[oldAccessID] = true
	m.mu.Unlock()

	accessID := session.NewAccessID()
	next, _ := m.Generate(ctx, accessID, owner)
	return &session.Rotation{UserID: owner, AccessID: accessID, RefreshToken: next}, nil
}

func (m *memorySessions) Revoke(ctx context.Context, accessID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[accessID] = true
	delete(m.tokens, accessID)
	return nil
}

func (m *memorySessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.revoked[accessID], nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

type testApp struct {
	router http.Handler
	cfg    *config.Config
	conn   *gorm.DB
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8 * 1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
			MinLength:        6,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	cfg := testConfig()
	client := dbtest.Open(t)
	conn := client.DB()
	sessions := newMemorySessions()

	userRepo := users.NewRepository(conn)
	productRepo := products.NewRepository(conn)

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	require.NoError(t, err)
	productSvc, err := products.NewService(productRepo)
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cart.NewRepository(conn), productRepo)
	require.NoError(t, err)
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Tx:   client,
		Bind: checkout.GormBinder(conn),
		Mode: checkout.ModeTransactional,
	})
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.NewRepository(conn), logger.Nop(), nil)
	require.NoError(t, err)
	userSvc, err := users.NewService(userRepo)
	require.NoError(t, err)

	router := NewRouter(Deps{
		Config:         cfg,
		Logger:         logger.Nop(),
		DB:             stubPinger{},
		Sessions:       sessions,
		Auth:           authSvc,
		Products:       productSvc,
		Cart:           cartSvc,
		Checkout:       checkoutSvc,
		Orders:         orderSvc,
		Users:          userSvc,
		HTTPMetrics:    metrics.NewHTTPMetrics(prometheus.NewRegistry()),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
	})
	return testApp{router: router, cfg: cfg, conn: conn}
}

func (a testApp) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(a.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

func (a testApp) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	a.router.ServeHTTP(resp, req)

	var env envelope
	if resp.Body.Len() > 0 && resp.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	}
	return resp, env
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	resp, env := app.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, env.Success)

	resp, _ = app.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp, env = app.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code, "redis is not configured")
	assert.Equal(t, "DEPENDENCY_ERROR", env.Error.Code)

	resp, _ = app.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "# metrics")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/cart", "/api/orders/myorders", "/api/users", "/api/auth/me"} {
		resp, env := app.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code, path)
	}
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	app := newTestApp(t)
	customer := dbtest.CreateUser(t, app.conn, enums.UserRoleUser)
	admin := dbtest.CreateUser(t, app.conn, enums.UserRoleAdmin)

	resp, env := app.do(t, http.MethodGet, "/api/users", app.tokenFor(t, customer), nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	resp, _ = app.do(t, http.MethodPost, "/api/products", app.tokenFor(t, customer), map[string]any{
		"name": "Lamp", "description": "desk lamp", "price": 20, "category": "home", "stock": 3,
	})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp, env = app.do(t, http.MethodGet, "/api/users", app.tokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var page struct {
		Items      []users.UserDTO `json:"items"`
		Pagination struct {
			Limit int `json:"limit"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 10, page.Pagination.Limit)
}

func TestAdminManagesCatalog(t *testing.T) {
	app := newTestApp(t)
	admin := dbtest.CreateUser(t, app.conn, enums.UserRoleAdmin)
	token := app.tokenFor(t, admin)

	resp, env := app.do(t, http.MethodPost, "/api/products", token, map[string]any{
		"name": "Lamp", "description": "desk lamp", "price": -1, "category": "home", "stock": 3,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	resp, env = app.do(t, http.MethodPost, "/api/products", token, map[string]any{
		"name": "Lamp", "description": "desk lamp", "price": 20, "category": " Home ", "stock": 3,
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	var created struct {
		Product products.ProductDTO `json:"product"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "home", created.Product.Category)

	resp, _ = app.do(t, http.MethodDelete, "/api/products/"+created.Product.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp, env = app.do(t, http.MethodGet, "/api/products?category=home", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var page struct {
		Items []products.ProductDTO `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Empty(t, page.Items)

	resp, env = app.do(t, http.MethodGet, "/api/products?sortBy=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestBrowserSessionCookies(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "nobody@example.com", "password": "secret1",
	})
	assert.Empty(t, resp.Result().Cookies(), "failed login sets no cookies")

	resp, _ = app.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Grace", "email": "grace@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	cookies := map[string]*http.Cookie{}
	for _, c := range resp.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, "token")
	require.Contains(t, cookies, "refreshToken")
	assert.True(t, cookies["token"].HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookies["token"].SameSite)
	assert.Equal(t, 3600, cookies["token"].MaxAge)
	assert.Equal(t, 7200, cookies["refreshToken"].MaxAge)

	send := func(method, path string, jar ...*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		for _, c := range jar {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		return rec
	}

	me := send(http.MethodGet, "/api/auth/me", cookies["token"])
	assert.Equal(t, http.StatusOK, me.Code, me.Body.String())

	refreshed := send(http.MethodPost, "/api/auth/refresh", cookies["token"], cookies["refreshToken"])
	require.Equal(t, http.StatusOK, refreshed.Code, refreshed.Body.String())
	rotated := map[string]*http.Cookie{}
	for _, c := range refreshed.Result().Cookies() {
		rotated[c.Name] = c
	}
	require.Contains(t, rotated, "token")
	assert.NotEqual(t, cookies["refreshToken"].Value, rotated["refreshToken"].Value)

	stale := send(http.MethodGet, "/api/auth/me", cookies["token"])
	assert.Equal(t, http.StatusUnauthorized, stale.Code, "rotated access id is revoked")

	out := send(http.MethodPost, "/api/auth/logout", rotated["token"])
	require.Equal(t, http.StatusOK, out.Code, out.Body.String())
	for _, c := range out.Result().Cookies() {
		assert.Empty(t, c.Value, c.Name)
		assert.Negative(t, c.MaxAge, c.Name)
	}
}

func TestCustomerOrderLifecycle(t *testing.T) {
	app := newTestApp(t)
	product := dbtest.CreateProduct(t, app.conn, "Mug", "25.00", 5)
	admin := dbtest.CreateUser(t, app.conn, enums.UserRoleAdmin)
	stranger := dbtest.CreateUser(t, app.conn, enums.UserRoleUser)

	resp, env := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Ada", "email": "Ada@Example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var registered auth.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &registered))
	assert.Equal(t, "ada@example.com", registered.User.Email)
	token := registered.Token

	resp, _ = app.do(t, http.MethodPost, "/api/cart", token, map[string]any{"productId": product.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp, env = app.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"orderItems":      []map[string]any{{"product": product.ID, "quantity": 2}},
		"shippingAddress": map[string]any{"address": "1 Main St", "city": "Springfield", "postalCode": "12345", "country": "US"},
		"paymentMethod":   "card",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, "Order created successfully", env.Message)
	var placed struct {
		Order map[string]any `json:"order"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &placed))
	assert.EqualValues(t, 50, placed.Order["itemsPrice"])
	assert.EqualValues(t, 5, placed.Order["taxPrice"])
	assert.EqualValues(t, 10, placed.Order["shippingPrice"])
	assert.EqualValues(t, 65, placed.Order["totalPrice"])
	orderID := placed.Order["id"].(string)

	resp, env = app.do(t, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var current struct {
		Cart cart.CartDTO `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &current))
	assert.Empty(t, current.Cart.Items)

	resp, _ = app.do(t, http.MethodGet, "/api/orders/"+orderID, app.tokenFor(t, stranger), nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp, env = app.do(t, http.MethodGet, "/api/orders/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "ORDER_NOT_FOUND", env.Error.Code)

	resp, _ = app.do(t, http.MethodPut, "/api/orders/"+orderID+"/deliver", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp, env = app.do(t, http.MethodPut, "/api/orders/"+orderID+"/pay", token, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var paid struct {
		Order orders.OrderDTO `json:"order"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &paid))
	assert.True(t, paid.Order.IsPaid)
	require.NotNil(t, paid.Order.PaymentResult)
	assert.Equal(t, orders.DefaultPaymentID, paid.Order.PaymentResult.ID)

	resp, _ = app.do(t, http.MethodPut, "/api/orders/"+orderID+"/deliver", app.tokenFor(t, admin), nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp, env = app.do(t, http.MethodGet, "/api/orders/myorders", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var mine struct {
		Orders []orders.OrderDTO `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine.Orders, 1)
	assert.True(t, mine.Orders[0].IsDelivered)

	resp, _ = app.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	resp, _ = app.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestPlaceOrderRejectsEmptyOrder(t *testing.T) {
	app := newTestApp(t)
	customer := dbtest.CreateUser(t, app.conn, enums.UserRoleUser)

	resp, env := app.do(t, http.MethodPost, "/api/orders", app.tokenFor(t, customer), map[string]any{
		"orderItems":      []any{},
		"shippingAddress": map[string]any{"address": "1 Main St", "city": "Springfield", "postalCode": "12345", "country": "US"},
		"paymentMethod":   "card",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "EMPTY_ORDER", env.Error.Code)
	assert.Equal(t, "No order items", env.Message)
}
