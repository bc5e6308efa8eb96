package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grievance_desk/backend/internal/config"
	"github.com/grievance_desk/backend/internal/db"
	"github.com/grievance_desk/backend/internal/service"
	"github.com/grievance_desk/backend/internal/triage"
)

const adminKey = "secret"

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := db.NewMemoryStore()
	require.NoError(t, db.SeedDemo(context.Background(), store))
	rules, err := triage.DefaultRuleset()
	require.NoError(t, err)

	clock := func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) }
	intake := service.NewIntake(store, triage.NewClassifier(rules).WithClock(clock), service.Options{
		Hours:  service.WorkingHours{Start: 9, End: 17, Location: time.UTC},
		Logger: zerolog.Nop(),
		Now:    clock,
	})
	cfg := config.Config{AdminKey: adminKey, CORSAllowed: "*"}
	return Router(cfg, store, intake, zerolog.Nop())
}

type call struct {
	method  string
	path    string
	body    any
	headers map[string]string
}

func do(t *testing.T, r *gin.Engine, c call) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func submit(t *testing.T, r *gin.Engine, category string) map[string]any {
	t.Helper()
	code, body := do(t, r, call{
		method: http.MethodPost,
		path:   "/api/grievances",
		body: map[string]any{
			"title":       "Water pipe burst emergency flooding",
			"description": "The street is under water",
			"category":    category,
		},
		headers: map[string]string{"X-Actor-Id": "citizen-7"},
	})
	require.Equal(t, http.StatusCreated, code, body)
	return body
}

func TestCreateGrievanceAutoAssigns(t *testing.T) {
	r := newTestServer(t)

	body := submit(t, r, "water_supply")

	g := body["grievance"].(map[string]any)
	assert.Equal(t, "assigned", g["status"])
	assert.Equal(t, "municipal-officer-1", g["assigned_officer"])
	assert.Equal(t, "citizen-7", g["citizen_id"])
	assert.Equal(t, "urgent", g["priority"])
	decision := body["decision"].(map[string]any)
	assert.Equal(t, "municipal-officer-1", decision["officer"].(map[string]any)["id"])
	assert.Len(t, decision["ranking"], 2)
}

func TestCreateGrievanceValidation(t *testing.T) {
	r := newTestServer(t)

	code, body := do(t, r, call{
		method: http.MethodPost,
		path:   "/api/grievances",
		body:   map[string]any{"title": "x", "category": "parks", "citizen_id": "c1"},
	})

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))
}

func TestCreateGrievanceWithoutUnitReportsReason(t *testing.T) {
	r := newTestServer(t)

	body := submit(t, r, "other")

	assert.Equal(t, "NO_UNIT_FOR_CATEGORY", body["assignment_reason"])
	g := body["grievance"].(map[string]any)
	assert.Equal(t, "pending", g["status"])

	code, preview := do(t, r, call{method: http.MethodGet, path: "/api/grievances/" + g["id"].(string) + "/routing"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "NO_UNIT_FOR_CATEGORY", errorCode(preview))
}

func TestGrievanceNotFound(t *testing.T) {
	r := newTestServer(t)

	code, body := do(t, r, call{method: http.MethodGet, path: "/api/grievances/missing"})

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "GRIEVANCE_NOT_FOUND", errorCode(body))
}

func TestAssignRequiresAdminKeyAndIsIdempotent(t *testing.T) {
	r := newTestServer(t)
	id := submit(t, r, "water_supply")["grievance"].(map[string]any)["id"].(string)
	path := "/api/grievances/" + id + "/assign"

	code, body := do(t, r, call{method: http.MethodPost, path: path})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	code, body = do(t, r, call{method: http.MethodPost, path: path, headers: map[string]string{"X-Admin-Key": adminKey}})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_ASSIGNED", errorCode(body))
}

func TestReassignChangesOfficer(t *testing.T) {
	r := newTestServer(t)
	id := submit(t, r, "water_supply")["grievance"].(map[string]any)["id"].(string)
	headers := map[string]string{"X-Admin-Key": adminKey, "X-Actor-Id": "admin-1", "X-Actor-Role": "admin"}

	code, body := do(t, r, call{
		method:  http.MethodPost,
		path:    "/api/grievances/" + id + "/reassign",
		body:    map[string]any{"officer_id": "municipal-officer-2"},
		headers: headers,
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "municipal-officer-2", body["assigned_officer"])
	assert.Equal(t, "assigned", body["status"])

	code, body = do(t, r, call{
		method:  http.MethodPost,
		path:    "/api/grievances/" + id + "/reassign",
		body:    map[string]any{"officer_id": "nobody"},
		headers: headers,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_OFFICER", errorCode(body))
}

func TestStatusAndFeedbackFlow(t *testing.T) {
	r := newTestServer(t)
	id := submit(t, r, "water_supply")["grievance"].(map[string]any)["id"].(string)
	officer := map[string]string{"X-Actor-Id": "municipal-officer-1", "X-Actor-Role": "officer"}
	base := "/api/grievances/" + id

	code, body := do(t, r, call{method: http.MethodPost, path: base + "/feedback", body: map[string]any{"rating": 5}, headers: map[string]string{"X-Actor-Id": "citizen-7"}})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "FEEDBACK_NOT_ALLOWED", errorCode(body))

	code, body = do(t, r, call{method: http.MethodPost, path: base + "/status", body: map[string]any{"status": "resolved", "comment": "Pipe replaced"}, headers: officer})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "resolved", body["status"])
	assert.NotNil(t, body["resolved_at"])

	code, body = do(t, r, call{method: http.MethodPost, path: base + "/status", body: map[string]any{"status": "done"}, headers: officer})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_STATUS", errorCode(body))

	code, body = do(t, r, call{method: http.MethodPost, path: base + "/feedback", body: map[string]any{"rating": 4}, headers: map[string]string{"X-Actor-Id": "citizen-8"}})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "NOT_SUBMITTER", errorCode(body))

	code, body = do(t, r, call{method: http.MethodPost, path: base + "/feedback", body: map[string]any{"rating": 9}, headers: map[string]string{"X-Actor-Id": "citizen-7"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_RATING", errorCode(body))

	code, body = do(t, r, call{method: http.MethodPost, path: base + "/feedback", body: map[string]any{"rating": 4, "comment": "Quick fix"}, headers: map[string]string{"X-Actor-Id": "citizen-7"}})
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 4, body["feedback"].(map[string]any)["rating"])
}

func TestUnknownActorRoleRejected(t *testing.T) {
	r := newTestServer(t)

	code, body := do(t, r, call{method: http.MethodGet, path: "/api/units", headers: map[string]string{"X-Actor-Id": "x", "X-Actor-Role": "mayor"}})

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_ACTOR", errorCode(body))
}

func TestClassifyDoesNotStore(t *testing.T) {
	r := newTestServer(t)

	code, body := do(t, r, call{
		method: http.MethodPost,
		path:   "/api/classify",
		body:   map[string]any{"title": "School teacher absent", "category": "education"},
	})

	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, false, body["defaulted"])
	assert.Equal(t, "education", body["triage"].(map[string]any)["suggested_unit"])

	_, list := do(t, r, call{method: http.MethodGet, path: "/api/grievances"})
	assert.Empty(t, list["items"])
}

func TestProcessAndLatestRun(t *testing.T) {
	r := newTestServer(t)

	code, body := do(t, r, call{method: http.MethodGet, path: "/api/runs/latest"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	submit(t, r, "other")
	code, body = do(t, r, call{method: http.MethodPost, path: "/api/process?debug=1", headers: map[string]string{"X-Admin-Key": adminKey}})
	require.Equal(t, http.StatusOK, code, body)
	counts := body["counts"].(map[string]any)
	assert.EqualValues(t, 1, counts["unassigned"])

	code, body = do(t, r, call{method: http.MethodGet, path: "/api/runs/latest"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, service.RunStatusSuccess, body["status"])
}

func TestDirectoryListings(t *testing.T) {
	r := newTestServer(t)

	code, body := do(t, r, call{method: http.MethodGet, path: "/api/units"})
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["items"], len(db.DemoUnits()))

	code, body = do(t, r, call{method: http.MethodGet, path: "/api/officers?unit=police"})
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["items"], 2)
}

func TestInProgressSelfAssignChecksDirectory(t *testing.T) {
	r := newTestServer(t)
	id := submit(t, r, "other")["grievance"].(map[string]any)["id"].(string)
	path := "/api/grievances/" + id + "/status"

	code, body := do(t, r, call{
		method:  http.MethodPost,
		path:    path,
		body:    map[string]any{"status": "in_progress"},
		headers: map[string]string{"X-Actor-Id": "municipal-officer-1", "X-Actor-Role": "officer", "X-Actor-Unit": "municipal"},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_OFFICER", errorCode(body))

	code, body = do(t, r, call{
		method:  http.MethodPost,
		path:    path,
		body:    map[string]any{"status": "in_progress"},
		headers: map[string]string{"X-Actor-Id": "admin-1", "X-Actor-Role": "admin"},
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "in_progress", body["status"])
	assert.Nil(t, body["assigned_officer"])
}

func TestListGrievancesEchoesAppliedPage(t *testing.T) {
	r := newTestServer(t)

	code, body := do(t, r, call{method: http.MethodGet, path: "/api/grievances?limit=1000&offset=-3"})

	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 50, body["limit"])
	assert.EqualValues(t, 0, body["offset"])
}
