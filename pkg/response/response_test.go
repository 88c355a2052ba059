package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-1")
	return c, w
}

type decoded struct {
	Status    int             `json:"status"`
	RequestID string          `json:"request_id"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      map[string]any  `json:"data"`
	Error     json.RawMessage `json:"error"`
}

func TestSuccess_WritesEnvelopeToResponse(t *testing.T) {
	c, w := testContext()

	Success(c, http.StatusCreated, gin.H{"id": "u1"}, "account created", nil)

	require.Equal(t, http.StatusCreated, w.Code)
	var got decoded
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got), "body must carry the envelope")
	assert.Equal(t, http.StatusCreated, got.Status)
	assert.Equal(t, "req-1", got.RequestID)
	assert.True(t, got.Success)
	assert.Equal(t, "account created", got.Message)
	assert.Equal(t, "u1", got.Data["id"])
}

func TestError_WritesEnvelopeToResponse(t *testing.T) {
	c, w := testContext()

	Error[any](c, http.StatusConflict, "User already registered",
		gin.H{"code": "user_already_exists"})

	require.Equal(t, http.StatusConflict, w.Code)
	var got decoded
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.False(t, got.Success)
	assert.Equal(t, "User already registered", got.Message)

	var detail struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(got.Error, &detail))
	assert.Equal(t, "user_already_exists", detail.Code)
}

func TestZeroStatusDefaults(t *testing.T) {
	c, w := testContext()
	Success[any](c, 0, nil, "ok", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	c2, w2 := testContext()
	Error[any](c2, 0, "bad", nil)
	assert.Equal(t, http.StatusBadRequest, w2.Code)
}
