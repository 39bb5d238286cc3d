package contracts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	orderApp "github.com/davicafu/eventshop/internal/order/application"
	orderDomain "github.com/davicafu/eventshop/internal/order/domain"
	orderHTTP "github.com/davicafu/eventshop/internal/order/infra/inbound/http"
	sharedEvents "github.com/davicafu/eventshop/internal/shared/events"
	"github.com/davicafu/eventshop/tests/mocks"
)

func newOrderRouter() (*gin.Engine, *mocks.InMemoryOrderRepo, *mocks.RecordingPublisher) {
	gin.SetMode(gin.TestMode)
	repo := mocks.NewInMemoryOrderRepo()
	pub := mocks.NewRecordingPublisher()
	service := orderApp.NewOrderService(repo, pub, zap.NewNop())

	r := gin.New()
	orderHTTP.RegisterOrderRoutes(r, orderHTTP.NewOrderHandler(service))
	return r, repo, pub
}

func TestCreateOrder_HTTPContract(t *testing.T) {
	router, repo, pub := newOrderRouter()

	body, _ := json.Marshal(map[string]interface{}{
		"customer_id": uuid.NewString(),
		"items": []map[string]interface{}{
			{"product_id": uuid.NewString(), "quantity": 2, "unit_price": 10.0},
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data orderDomain.Order `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, orderDomain.StatusCreated, resp.Data.Status)
	assert.Equal(t, 20.0, resp.Data.Total)

	assert.Len(t, repo.Orders, 1)
	assert.Len(t, pub.ByType(sharedEvents.OrderCreated), 1)
}

func TestCreateOrder_InvalidBody(t *testing.T) {
	router, repo, _ := newOrderRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/", bytes.NewReader([]byte(`{"items": []}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.Orders)
}

func TestGetOrder_NotFoundContract(t *testing.T) {
	router, _, _ := newOrderRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error.Kind)
}

func TestConfirmPayment_ConflictContract(t *testing.T) {
	router, repo, _ := newOrderRouter()

	// Pedido ya pagado persistido directamente en el mock.
	order := &orderDomain.Order{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Status:     orderDomain.StatusPaid,
		Items:      []orderDomain.OrderItem{{ProductID: uuid.New(), Quantity: 1, UnitPrice: 5}},
	}
	assert.NoError(t, repo.Add(context.Background(), order))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/orders/%s/payment", order.ID), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}
