package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"orderly/backend/internal/auth"
	"orderly/backend/internal/config"
	"orderly/backend/internal/database"
	"orderly/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrapping test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	database.DB = db

	config.AppConfig = &config.Config{
		ServiceTokenSecret:     "test-secret",
		SessionTTLMinutes:      120,
		DefaultMaxParticipants: 8,
		JoinRateWindowSeconds:  60,
		JoinRateMaxFailures:    3,
	}
}

// setupRouter wires the same routes as cmd/server.
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()

	apiV1 := router.Group("/api/v1")
	{
		groupOrders := apiV1.Group("/group-orders")
		{
			groupOrders.POST("", CreateGroupOrder)
			groupOrders.GET("/:code", GetGroupOrder)
			groupOrders.POST("/:code/join", JoinGroupOrder)
			groupOrders.POST("/:code/leave", LeaveGroupOrder)
			groupOrders.PUT("/:code/cart", UpdateParticipantCart)
			groupOrders.DELETE("/:code/participants/:participantID", KickParticipant)
		}
		merchants := apiV1.Group("/merchants")
		{
			merchants.GET("/:merchantID/stock", GetStockSnapshot)
			merchants.GET("/:merchantID/stock/stream", StreamStock)
		}
	}

	internalV1 := router.Group("/internal/v1")
	internalV1.Use(auth.ServiceAuthMiddleware())
	{
		internalV1.POST("/stock/decrement", CommitStockDecrement)
		internalV1.POST("/stock/items", CreateStockItem)
		internalV1.GET("/merchants/:merchantID/group-orders", ListMerchantGroupOrders)
	}

	return router
}

// doJSON performs a request with an optional JSON body and decodes the JSON
// response into a generic map.
func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var parsed map[string]interface{}
	if len(rec.Body.Bytes()) > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, parsed
}

// createGroupOrder opens a session over HTTP and returns (code, hostDeviceID).
func createGroupOrder(t *testing.T, router *gin.Engine, maxParticipants int) (string, string) {
	t.Helper()
	status, body := doJSON(t, router, http.MethodPost, "/api/v1/group-orders", gin.H{
		"host_name":        "Dana",
		"merchant_id":      1,
		"max_participants": maxParticipants,
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, body = %v", status, body)
	}
	return body["code"].(string), body["device_id"].(string)
}

func serviceHeader(t *testing.T) map[string]string {
	t.Helper()
	token, err := jwt.GenerateServiceToken("checkout")
	if err != nil {
		t.Fatalf("minting service token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}
