package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	httpHandler "prepaid-wallet-service/internal/adapter/http/handler"
	redisStorage "prepaid-wallet-service/internal/adapter/storage/redis"
	"prepaid-wallet-service/internal/service"
	"prepaid-wallet-service/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack on in-memory storage: miniredis
// behind the idempotency cache, map-backed repos behind the services, and a
// recording notifier standing in for SMTP. The HTTP layer, middleware,
// handlers and services are the real ones.

type testApp struct {
	server   *httptest.Server
	redis    *miniredis.Miniredis
	notifier *recordingNotifier
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)

	clientRepo := newInMemoryClientRepo()
	walletRepo := newInMemoryWalletRepo()
	transactor := newLockingTransactor()
	notifier := newRecordingNotifier()

	log := logger.New("debug", false)
	clientSvc := service.NewClientService(clientRepo, walletRepo, transactor, log)
	ledgerSvc := service.NewLedgerService(clientRepo, walletRepo, transactor, log)
	paymentSvc := service.NewPaymentService(ledgerSvc, notifier, idempotencyCache, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		ClientSvc:  clientSvc,
		LedgerSvc:  ledgerSvc,
		PaymentSvc: paymentSvc,
		Logger:     log,
	})

	return &testApp{
		server:   httptest.NewServer(router),
		redis:    mr,
		notifier: notifier,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
	Error   string                 `json:"error"`
}

func (a *testApp) post(t *testing.T, path, body string, headers map[string]string) (int, envelope) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (a *testApp) get(t *testing.T, path string) (int, envelope) {
	t.Helper()

	resp, err := http.Get(a.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (a *testApp) register(t *testing.T, document, phone string) {
	t.Helper()
	body := fmt.Sprintf(
		`{"document":"%s","name":"Ana Silva","email":"ana@example.com","phone":"%s"}`,
		document, phone,
	)
	code, env := a.post(t, "/api/v1/wallet/register", body, nil)
	require.Equal(t, http.StatusCreated, code)
	require.True(t, env.Success)
}

func (a *testApp) recharge(t *testing.T, document, phone string, amount int64) int64 {
	t.Helper()
	body := fmt.Sprintf(`{"document":"%s","phone":"%s","amount":%d}`, document, phone, amount)
	code, env := a.post(t, "/api/v1/wallet/recharge", body, nil)
	require.Equal(t, http.StatusOK, code)
	return int64(env.Data["balance"].(float64))
}

func (a *testApp) initiate(t *testing.T, document, phone string, amount int64) string {
	t.Helper()
	body := fmt.Sprintf(`{"document":"%s","phone":"%s","amount":%d}`, document, phone, amount)
	code, env := a.post(t, "/api/v1/wallet/payment", body, nil)
	require.Equal(t, http.StatusCreated, code)
	return env.Data["sessionId"].(string)
}

func TestWalletLifecycle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// Register
	app.register(t, "CC-100200300", "3001234567")

	// Fresh wallet starts at zero
	code, env := app.get(t, "/api/v1/wallet/balance?document=CC-100200300&phone=3001234567")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), env.Data["balance"])

	// Recharge 100
	balance := app.recharge(t, "CC-100200300", "3001234567", 100)
	assert.Equal(t, int64(100), balance)

	// Initiate payment of 40
	sessionID := app.initiate(t, "CC-100200300", "3001234567", 40)
	require.NotEmpty(t, sessionID)

	// Token was "delivered" to the registered email, not returned over HTTP
	token := app.notifier.tokenFor(sessionID)
	require.Regexp(t, `^\d{6}$`, token)
	assert.Equal(t, "ana@example.com", app.notifier.recipientFor(sessionID))

	// Confirm with the delivered token
	body := fmt.Sprintf(`{"sessionId":"%s","token":"%s","amount":40}`, sessionID, token)
	code, env = app.post(t, "/api/v1/wallet/confirm-payment", body, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(60), env.Data["newBalance"])

	// Balance reflects the debit
	code, env = app.get(t, "/api/v1/wallet/balance?document=CC-100200300&phone=3001234567")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(60), env.Data["balance"])

	// Replaying the same confirm fails: the session was consumed, so the
	// verify step no longer finds it.
	code, env = app.post(t, "/api/v1/wallet/confirm-payment", body, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_TOKEN", env.Error)

	// Balance unchanged by the replay
	code, env = app.get(t, "/api/v1/wallet/balance?document=CC-100200300&phone=3001234567")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(60), env.Data["balance"])
}

func TestRegister_DuplicateDocument(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "CC-111", "3001111111")

	body := `{"document":"CC-111","name":"Impostor","email":"other@example.com","phone":"3009999999"}`
	code, env := app.post(t, "/api/v1/wallet/register", body, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CLIENT_EXISTS", env.Error)
}

func TestRecharge_WrongPhone(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "CC-222", "3002222222")

	body := `{"document":"CC-222","phone":"3009999999","amount":100}`
	code, env := app.post(t, "/api/v1/wallet/recharge", body, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "CLIENT_NOT_FOUND", env.Error)
}

func TestConfirm_WrongTokenDoesNotConsumeSession(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "CC-333", "3003333333")
	app.recharge(t, "CC-333", "3003333333", 100)
	sessionID := app.initiate(t, "CC-333", "3003333333", 40)
	token := app.notifier.tokenFor(sessionID)

	// Find a wrong 6-digit token
	wrong := "000000"
	if wrong == token {
		wrong = "000001"
	}

	body := fmt.Sprintf(`{"sessionId":"%s","token":"%s","amount":40}`, sessionID, wrong)
	code, env := app.post(t, "/api/v1/wallet/confirm-payment", body, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_TOKEN", env.Error)

	// Balance untouched
	code, env = app.get(t, "/api/v1/wallet/balance?document=CC-333&phone=3003333333")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(100), env.Data["balance"])

	// The right token still works after a failed guess
	body = fmt.Sprintf(`{"sessionId":"%s","token":"%s","amount":40}`, sessionID, token)
	code, env = app.post(t, "/api/v1/wallet/confirm-payment", body, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(60), env.Data["newBalance"])
}

func TestInitiate_NewSessionReplacesOld(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "CC-444", "3004444444")
	app.recharge(t, "CC-444", "3004444444", 100)

	oldSession := app.initiate(t, "CC-444", "3004444444", 40)
	oldToken := app.notifier.tokenFor(oldSession)

	newSession := app.initiate(t, "CC-444", "3004444444", 40)
	newToken := app.notifier.tokenFor(newSession)
	require.NotEqual(t, oldSession, newSession)

	// Old pair is dead
	body := fmt.Sprintf(`{"sessionId":"%s","token":"%s","amount":40}`, oldSession, oldToken)
	code, env := app.post(t, "/api/v1/wallet/confirm-payment", body, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_TOKEN", env.Error)

	// New pair works
	body = fmt.Sprintf(`{"sessionId":"%s","token":"%s","amount":40}`, newSession, newToken)
	code, env = app.post(t, "/api/v1/wallet/confirm-payment", body, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(60), env.Data["newBalance"])
}

func TestInitiate_SurvivesNotifierOutage(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "CC-555", "3005555555")
	app.recharge(t, "CC-555", "3005555555", 100)

	app.notifier.fail = true
	body := `{"document":"CC-555","phone":"3005555555","amount":40}`
	code, env := app.post(t, "/api/v1/wallet/payment", body, nil)
	assert.Equal(t, http.StatusCreated, code)
	assert.NotEmpty(t, env.Data["sessionId"])
}

func TestConfirm_InsufficientFundsLeavesSessionPending(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "CC-666", "3006666666")
	app.recharge(t, "CC-666", "3006666666", 30)
	sessionID := app.initiate(t, "CC-666", "3006666666", 50)
	token := app.notifier.tokenFor(sessionID)

	// Not enough balance
	body := fmt.Sprintf(`{"sessionId":"%s","token":"%s","amount":50}`, sessionID, token)
	code, env := app.post(t, "/api/v1/wallet/confirm-payment", body, nil)
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "INSUFFICIENT_FUNDS", env.Error)

	// Session survived the rejection: top up and retry with the same token
	app.recharge(t, "CC-666", "3006666666", 30)
	code, env = app.post(t, "/api/v1/wallet/confirm-payment", body, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(10), env.Data["newBalance"])
}

func TestConfirm_IdempotencyKeyReplaysResult(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "CC-777", "3007777777")
	app.recharge(t, "CC-777", "3007777777", 100)
	sessionID := app.initiate(t, "CC-777", "3007777777", 40)
	token := app.notifier.tokenFor(sessionID)

	headers := map[string]string{"X-Idempotency-Key": "retry-abc"}
	body := fmt.Sprintf(`{"sessionId":"%s","token":"%s","amount":40}`, sessionID, token)

	code, env := app.post(t, "/api/v1/wallet/confirm-payment", body, headers)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(60), env.Data["newBalance"])

	// Same key: the result is replayed, no second debit
	code, env = app.post(t, "/api/v1/wallet/confirm-payment", body, headers)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(60), env.Data["newBalance"])

	code, env = app.get(t, "/api/v1/wallet/balance?document=CC-777&phone=3007777777")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(60), env.Data["balance"])
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
