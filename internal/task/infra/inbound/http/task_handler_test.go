package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/hexacrud/internal/infra/db/memory"
	sharedApp "github.com/davicafu/hexacrud/internal/shared/application"
	"github.com/davicafu/hexacrud/internal/task/application"
	taskDomain "github.com/davicafu/hexacrud/internal/task/domain"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	repo := memory.NewDocumentRepo[taskDomain.Task](memory.NewOutbox())
	svc := application.NewTaskService(repo, nil, zap.NewNop(), sharedApp.Options{MaxPageSize: 50})
	r := gin.New()
	RegisterTaskRoutes(r, NewTaskHandler(svc, zap.NewNop()))
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createTask(t *testing.T, r http.Handler, title string, assignee uuid.UUID) taskDomain.Task {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/tasks", map[string]any{"title": title, "assigneeId": assignee})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var task taskDomain.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	return task
}

func TestTaskRoutes_CreateRequiresTitle(t *testing.T) {
	r := newRouter()

	rec := do(t, r, http.MethodPost, "/tasks", map[string]any{"description": "sin título"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskRoutes_CompleteAndList(t *testing.T) {
	r := newRouter()
	user := uuid.New()
	first := createTask(t, r, "Primera", user)
	second := createTask(t, r, "Segunda", user)
	createTask(t, r, "Ajena", uuid.New())
	assert.Equal(t, taskDomain.TaskPending, first.Status)

	// --- Completar ---
	rec := do(t, r, http.MethodPost, "/tasks/"+first.ID.String()+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var completed taskDomain.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completed))
	assert.Equal(t, taskDomain.TaskCompleted, completed.Status)

	// Completar dos veces es un conflicto.
	rec = do(t, r, http.MethodPost, "/tasks/"+first.ID.String()+"/complete", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// --- Listar pendientes (estado por defecto) ---
	rec = do(t, r, http.MethodGet, "/tasks/assignee/"+user.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []taskDomain.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	rec = do(t, r, http.MethodGet, "/tasks/assignee/"+user.String()+"?status=completed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var done []taskDomain.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &done))
	require.Len(t, done, 1)
	assert.Equal(t, first.ID, done[0].ID)

	// --- Fallar ---
	rec = do(t, r, http.MethodPost, "/tasks/"+second.ID.String()+"/fail", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTaskRoutes_Errors(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name   string
		method string
		path   string
		code   int
	}{
		{"id inválido", http.MethodPost, "/tasks/not-a-uuid/complete", http.StatusBadRequest},
		{"usuario inválido", http.MethodGet, "/tasks/assignee/not-a-uuid", http.StatusBadRequest},
		{"estado desconocido", http.MethodGet, "/tasks/assignee/" + uuid.NewString() + "?status=archived", http.StatusBadRequest},
		{"página demasiado grande", http.MethodGet, "/tasks/assignee/" + uuid.NewString() + "?page=1&pageSize=500", http.StatusBadRequest},
		{"tarea inexistente", http.MethodPost, "/tasks/" + uuid.NewString() + "/complete", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, tt.method, tt.path, nil)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestTaskRoutes_Filter(t *testing.T) {
	r := newRouter()
	user := uuid.New()
	createTask(t, r, "Alfa", user)
	createTask(t, r, "Beta", user)
	createTask(t, r, "Gamma", uuid.New())

	rec := do(t, r, http.MethodPost, "/tasks/filter", map[string]any{
		"filters": []any{
			map[string]any{"by": "assigneeId", "operator": "eq", "value": user.String()},
		},
		"order":      []any{map[string]any{"by": "title", "operator": "desc"}},
		"pagination": map[string]any{"page": 1, "pageSize": 10},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tasks []taskDomain.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 2)
	assert.Equal(t, "Beta", tasks[0].Title)
	assert.Equal(t, "Alfa", tasks[1].Title)
}
