package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/stacklend-io/risk-engine/e2etest/container"
	"github.com/stacklend-io/risk-engine/internal/api"
	"github.com/stacklend-io/risk-engine/internal/clients/oracleclient"
	"github.com/stacklend-io/risk-engine/internal/config"
	"github.com/stacklend-io/risk-engine/internal/db"
	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/observability/metrics"
	"github.com/stacklend-io/risk-engine/internal/queue"
	"github.com/stacklend-io/risk-engine/internal/services"
	"github.com/stacklend-io/risk-engine/internal/utils/clock"
)

const testOwnerID = "protocol-owner"

var (
	eventuallyWaitTimeOut = 40 * time.Second
	eventuallyPollTime    = 1 * time.Second
)

type TestManager struct {
	Config       *config.Config
	DbClient     *db.Database
	QueueManager *queue.QueueManager
	Service      *services.Service
	Oracle       *stubOracle

	manager     *container.Manager
	apiServer   *api.Server
	baseURL     string
	amqpChannel *amqp.Channel
}

// stubOracle is an in-process price feed serving the tickers endpoint the
// oracle client expects.
type stubOracle struct {
	server *httptest.Server

	mu      sync.Mutex
	tickers map[string]oracleclient.Ticker
}

func newStubOracle() *stubOracle {
	oracle := &stubOracle{
		tickers: make(map[string]oracleclient.Ticker),
	}
	oracle.server = httptest.NewServer(http.HandlerFunc(oracle.handle))
	return oracle
}

func (o *stubOracle) SetTicker(symbol string, price, volatility uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tickers[symbol] = oracleclient.Ticker{Symbol: symbol, Price: price, Volatility: volatility}
}

func (o *stubOracle) handle(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if symbol, ok := strings.CutPrefix(r.URL.Path, "/v1/tickers/"); ok {
		ticker, found := o.tickers[symbol]
		if !found {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(ticker)
		return
	}

	tickers := make([]oracleclient.Ticker, 0, len(o.tickers))
	for _, ticker := range o.tickers {
		tickers = append(tickers, ticker)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"tickers": tickers})
}

// StartManager boots the full engine against containerized mongo and
// rabbitmq plus an in-process stub oracle, and returns once the API answers
// its healthcheck.
func StartManager(t *testing.T) *TestManager {
	t.Helper()
	ctx := context.Background()

	manager, err := container.NewManager(t)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, manager.ClearResources())
	})

	mongoResource, err := manager.RunMongoResource(t)
	require.NoError(t, err)
	rabbitResource, err := manager.RunRabbitResource(t)
	require.NoError(t, err)

	oracle := newStubOracle()
	t.Cleanup(oracle.server.Close)

	cfg := defaultRiskEngineConfig(t)
	cfg.Db.Address = fmt.Sprintf("mongodb://localhost:%s/", mongoResource.GetPort("27017/tcp"))
	cfg.Queue.Url = "localhost:" + rabbitResource.GetPort("5672/tcp")
	cfg.Oracle.Endpoint = oracle.server.URL

	// mongo accepts connections before auth is fully initialized
	require.Eventually(t, func() bool {
		return model.Setup(ctx, &cfg.Db) == nil
	}, eventuallyWaitTimeOut, eventuallyPollTime)

	dbClient, err := db.New(ctx, cfg.Db)
	require.NoError(t, err)
	require.NoError(t, dbClient.Ping(ctx))

	var queueManager *queue.QueueManager
	require.Eventually(t, func() bool {
		queueManager, err = queue.NewQueueManager(&cfg.Queue)
		return err == nil
	}, eventuallyWaitTimeOut, eventuallyPollTime)
	t.Cleanup(func() {
		_ = queueManager.Stop()
	})

	oracleClient := oracleclient.NewOracleClientWithMetrics(oracleclient.NewClient(cfg.Oracle))
	service := services.NewService(cfg, db.NewDbWithMetrics(dbClient), oracleClient, queueManager, clock.System())

	metrics.Init(cfg.Metrics.GetMetricsPort())

	require.NoError(t, queueManager.SubscribePriceEvents(ctx, service.ProcessPriceUpdateEvent))
	service.StartRiskEngine(ctx)

	apiServer := api.New(&cfg.Api, service)
	go func() {
		if serveErr := apiServer.Start(); serveErr != nil && serveErr != http.ErrServerClosed {
			t.Errorf("api server stopped: %v", serveErr)
		}
	}()
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = apiServer.Stop(stopCtx)
	})

	tm := &TestManager{
		Config:       cfg,
		DbClient:     dbClient,
		QueueManager: queueManager,
		Service:      service,
		Oracle:       oracle,
		manager:      manager,
		apiServer:    apiServer,
		baseURL:      fmt.Sprintf("http://%s", cfg.Api.ListenAddr()),
	}
	tm.amqpChannel = tm.openAmqpChannel(t)

	// wait for the server to start
	require.Eventually(t, func() bool {
		resp, healthErr := http.Get(tm.baseURL + "/healthcheck")
		if healthErr != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, eventuallyWaitTimeOut, eventuallyPollTime)

	return tm
}

func defaultRiskEngineConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Db: config.DbConfig{
			Username: container.MongoUsername,
			Password: container.MongoPassword,
			DbName:   container.MongoDatabase,
		},
		Oracle: &config.OracleConfig{
			Timeout:         5 * time.Second,
			MaxRetryTimes:   3,
			RetryInterval:   100 * time.Millisecond,
			RefreshInterval: 1 * time.Second,
		},
		Queue: config.QueueConfig{
			QueueUser:              container.RabbitUsername,
			QueuePassword:          container.RabbitPassword,
			QueueProcessingTimeout: 5 * time.Second,
			MsgMaxRetryAttempts:    3,
			ReQueueDelayTime:       1 * time.Second,
		},
		Metrics: config.MetricsConfig{
			Host: "127.0.0.1",
			Port: freePort(t),
		},
		Api: config.ApiConfig{
			Host:         "127.0.0.1",
			Port:         freePort(t),
			WriteTimeout: 30 * time.Second,
			ReadTimeout:  10 * time.Second,
			IdleTimeout:  2 * time.Minute,
		},
		Poller: config.PollerConfig{
			MonitorPollingInterval: 1 * time.Hour,
			AtRiskPositionsLimit:   100,
		},
		Risk: config.RiskConfig{
			OwnerID:                    testOwnerID,
			MonitoringInterval:         600,
			PriceFreshnessWindow:       900,
			EnableLiquidationDetection: true,
			EnableStressTesting:        true,
			EnableCorrelationAnalysis:  true,
			MonitoringIntensity:        50,
		},
	}
}

func freePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}

func (tm *TestManager) openAmqpChannel(t *testing.T) *amqp.Channel {
	t.Helper()

	conn, err := amqp.Dial(tm.Config.Queue.AmqpURI())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	channel, err := conn.Channel()
	require.NoError(t, err)
	return channel
}

// ConsumeOne pops the next message from the given queue, failing the test if
// none arrives in time.
func (tm *TestManager) ConsumeOne(t *testing.T, queueName string) []byte {
	t.Helper()

	consumerTag := queueName + "-e2e"
	deliveries, err := tm.amqpChannel.Consume(queueName, consumerTag, true, false, false, false, nil)
	require.NoError(t, err)
	defer func() {
		_ = tm.amqpChannel.Cancel(consumerTag, false)
	}()

	select {
	case delivery := <-deliveries:
		return delivery.Body
	case <-time.After(eventuallyWaitTimeOut):
		t.Fatalf("no message arrived on %s", queueName)
		return nil
	}
}

// PublishPriceUpdate pushes a raw price update event onto the feed queue.
func (tm *TestManager) PublishPriceUpdate(t *testing.T, ev queue.PriceUpdateEvent) {
	t.Helper()

	body, err := json.Marshal(ev)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, tm.amqpChannel.PublishWithContext(
		ctx, "", queue.PriceUpdatesQueue, false, false,
		amqp.Publishing{ContentType: "application/json", Body: body},
	))
}

func (tm *TestManager) request(t *testing.T, method, path, caller string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, tm.baseURL+path, reader)
	require.NoError(t, err)
	if caller != "" {
		req.Header.Set(api.CallerIDHeader, caller)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeInto[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
