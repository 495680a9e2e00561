package signing

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"signroom-service/internal/pkg/integrity"
	"signroom-service/internal/pkg/response"
	"signroom-service/internal/repository/memory"
	service "signroom-service/internal/service/signing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRouter(t *testing.T) (*gin.Engine, *service.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	hasher, err := integrity.NewHasher([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	svc := service.NewService(store, store.Signatures(), hasher, service.DefaultSessionLifetime, zap.NewNop())
	h := NewSigningHandler(svc, nil, zap.NewNop())

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions/:session_id", h.GetSession)
	api.POST("/sessions/:session_id/complete", h.CompleteSignature)
	api.DELETE("/sessions/:session_id", h.CancelSession)
	api.GET("/contracts/:contract_id/signatures", h.ListContractSignatures)
	api.GET("/signatures/:signature_id/integrity", h.ValidateIntegrity)
	return r, svc
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "handler-test/1.0")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func createBody() map[string]any {
	return map[string]any{
		"contract_id":       "c-1",
		"signer_email":      "a@b.com",
		"contract_snapshot": map[string]string{"total": "$100"},
	}
}

func TestCreateSessionEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/sessions", createBody())
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)

	data := env.Data.(map[string]any)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, "c-1", data["contract_id"])
	assert.Equal(t, "pending", data["status"])
	// The descriptor must not echo the snapshot back.
	assert.NotContains(t, data, "contract_snapshot")
}

func TestCreateSessionEndpointRejectsBadEmail(t *testing.T) {
	r, _ := newTestRouter(t)

	body := createBody()
	body["signer_email"] = "nope"
	w, env := doJSON(t, r, http.MethodPost, "/api/v1/sessions", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestSignerFlow(t *testing.T) {
	r, _ := newTestRouter(t)

	_, env := doJSON(t, r, http.MethodPost, "/api/v1/sessions", createBody())
	id := env.Data.(map[string]any)["id"].(string)

	// Signer fetches the session, snapshot included.
	w, env := doJSON(t, r, http.MethodGet, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	view := env.Data.(map[string]any)
	assert.Equal(t, "c-1", view["contract_id"])
	assert.Contains(t, view, "contract_snapshot")

	// Signer completes.
	w, env = doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/complete",
		map[string]any{"signature_data": "A. Signer"})
	assert.Equal(t, http.StatusCreated, w.Code)
	receipt := env.Data.(map[string]any)
	sigID := receipt["id"].(string)
	assert.NotEmpty(t, sigID)
	assert.Equal(t, "c-1", receipt["contract_id"])

	// Double submit is a conflict, not a second record.
	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/complete",
		map[string]any{"signature_data": "A. Signer"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Audit listing shows exactly one entry.
	w, env = doJSON(t, r, http.MethodGet, "/api/v1/contracts/c-1/signatures", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	list := env.Data.([]any)
	require.Len(t, list, 1)
	entry := list[0].(map[string]any)
	assert.Equal(t, "handler-test/1.0", entry["user_agent"])

	// And the stored record validates.
	w, env = doJSON(t, r, http.MethodGet, "/api/v1/signatures/"+sigID+"/integrity", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	check := env.Data.(map[string]any)
	assert.Equal(t, true, check["valid"])
}

func TestGetUnknownSession(t *testing.T) {
	r, _ := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/sessions/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}

func TestCompleteCancelledSessionIsGone(t *testing.T) {
	r, _ := newTestRouter(t)

	_, env := doJSON(t, r, http.MethodPost, "/api/v1/sessions", createBody())
	id := env.Data.(map[string]any)["id"].(string)

	w, _ := doJSON(t, r, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/complete",
		map[string]any{"signature_data": "A. Signer"})
	assert.Equal(t, http.StatusGone, w.Code)
}

// The staff identity extracted by the auth middleware must land in the audit
// logs of the staff mutations, not be discarded.
func TestStaffActionsAreAudited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	store := memory.NewStore()
	hasher, err := integrity.NewHasher([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	svc := service.NewService(store, store.Signatures(), hasher, service.DefaultSessionLifetime, zap.NewNop())
	h := NewSigningHandler(svc, nil, zap.New(core))

	asStaff := func(c *gin.Context) {
		c.Set("staff_email", "ops@example.com")
		c.Set("roles", []string{"staff"})
	}
	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/sessions", asStaff, h.CreateSession)
	api.DELETE("/sessions/:session_id", asStaff, h.CancelSession)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/sessions", createBody())
	require.Equal(t, http.StatusCreated, w.Code)
	id := env.Data.(map[string]any)["id"].(string)

	w, _ = doJSON(t, r, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	created := logs.FilterMessage("staff created signing session").All()
	require.Len(t, created, 1)
	assert.Equal(t, "ops@example.com", created[0].ContextMap()["staff_email"])
	assert.Equal(t, id, created[0].ContextMap()["session_id"])

	cancelled := logs.FilterMessage("staff cancelled signing session").All()
	require.Len(t, cancelled, 1)
	assert.Equal(t, "ops@example.com", cancelled[0].ContextMap()["staff_email"])
}

func TestListSignaturesEmptyContract(t *testing.T) {
	r, _ := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/contracts/untouched/signatures", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	list, ok := env.Data.([]any)
	require.True(t, ok)
	assert.Empty(t, list)
}
