package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lessonhub/internal/auth"
	"lessonhub/internal/config"
	"lessonhub/internal/testutil"
	"lessonhub/pkg/models"
)

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	cfg    config.Config
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Auth.JWTSecret = "handler-test-secret"
	db := testutil.DB(t)
	return &testServer{t: t, db: db, cfg: cfg, router: newRouter(cfg, db, testutil.Logger(t))}
}

func (s *testServer) token(u models.User) string {
	s.t.Helper()
	tok, err := auth.SignJWT([]byte(s.cfg.Auth.JWTSecret), u.ID, u.Username, time.Hour)
	if err != nil {
		s.t.Fatalf("SignJWT: %v", err)
	}
	return tok
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				s.t.Fatalf("encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestLessonProgressScenario(t *testing.T) {
	s := newTestServer(t)
	u1 := testutil.CreateUser(t, s.db, "u1")
	p1 := testutil.CreateProduct(t, s.db, "P1")
	l := models.Lesson{ID: 5, ProductID: p1.ID, Title: "L1", DurationSeconds: 600}
	if err := s.db.Create(&l).Error; err != nil {
		t.Fatalf("create lesson: %v", err)
	}
	tok := s.token(u1)

	rec := s.do(http.MethodPost, "/api/subscribe", tok, map[string]any{"lesson": 5, "viewed_time_seconds": 120})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first subscribe: want=%d got=%d body=%s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	created := decode[models.LessonView](t, rec)
	if created.ViewedTimeSeconds != 120 || created.LessonID != 5 || created.UserID != u1.ID {
		t.Fatalf("first subscribe body: got=%+v", created)
	}

	rec = s.do(http.MethodPost, "/api/subscribe", tok, map[string]any{"lesson": 5, "viewed_time_seconds": 300})
	if rec.Code != http.StatusOK {
		t.Fatalf("second subscribe: want=%d got=%d body=%s", http.StatusOK, rec.Code, rec.Body.String())
	}
	updated := decode[models.LessonView](t, rec)
	if updated.ViewedTimeSeconds != 300 || updated.ID != created.ID {
		t.Fatalf("second subscribe body: got=%+v", updated)
	}

	rec = s.do(http.MethodGet, "/api/lesson-status", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("lesson-status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	views := decode[[]models.LessonView](t, rec)
	if len(views) != 1 || views[0].LessonID != 5 || views[0].ViewedTimeSeconds != 300 {
		t.Fatalf("lesson-status body: got=%+v", views)
	}
}

func TestSubscribeUnknownLesson(t *testing.T) {
	s := newTestServer(t)
	u := testutil.CreateUser(t, s.db, "u1")
	tok := s.token(u)

	for _, body := range []any{
		map[string]any{"lesson": 404, "viewed_time_seconds": 1},
		map[string]any{"viewed_time_seconds": 1},
	} {
		rec := s.do(http.MethodPost, "/api/subscribe", tok, body)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("subscribe %v: want=%d got=%d", body, http.StatusNotFound, rec.Code)
		}
		env := decode[struct {
			Error struct {
				Message string `json:"message"`
				Code    string `json:"code"`
			} `json:"error"`
		}](t, rec)
		if env.Error.Code != "not_found" || env.Error.Message == "" {
			t.Fatalf("error envelope: got=%+v", env)
		}
	}
	if n := testutil.CountViews(t, s.db); n != 0 {
		t.Fatalf("rows: want=0 got=%d", n)
	}
}

func TestSubscribeAcceptsStringLessonID(t *testing.T) {
	s := newTestServer(t)
	u := testutil.CreateUser(t, s.db, "u1")
	p := testutil.CreateProduct(t, s.db, "P1")
	l := testutil.CreateLesson(t, s.db, p.ID, "L1", 600)
	tok := s.token(u)

	rec := s.do(http.MethodPost, "/api/subscribe", tok, fmt.Sprintf(`{"lesson": "%d", "viewed_time_seconds": 30}`, l.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("string id: want=%d got=%d body=%s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if v := decode[models.LessonView](t, rec); v.LessonID != l.ID || v.ViewedTimeSeconds != 30 {
		t.Fatalf("string id body: got=%+v", v)
	}

	rec = s.do(http.MethodPost, "/api/subscribe", tok, `{"lesson": "five"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
}

func TestSubscribeValidation(t *testing.T) {
	s := newTestServer(t)
	u := testutil.CreateUser(t, s.db, "u1")
	p := testutil.CreateProduct(t, s.db, "P1")
	l := testutil.CreateLesson(t, s.db, p.ID, "L1", 600)
	tok := s.token(u)

	rec := s.do(http.MethodPost, "/api/subscribe", tok, `{"lesson": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed json: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
	rec = s.do(http.MethodPost, "/api/subscribe", tok, map[string]any{"lesson": l.ID, "viewed_time_seconds": -5})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative time: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/users", "", map[string]any{
		"username": "x", "password": strings.Repeat("a", 80),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("register: want=%d got=%d body=%s", http.StatusBadRequest, rec.Code, rec.Body.String())
	}
	env := decode[struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}](t, rec)
	if env.Error.Code != "validation" {
		t.Fatalf("error code: want=validation got=%q", env.Error.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodGet, "/api/users/1"},
		{http.MethodGet, "/api/lesson-status"},
		{http.MethodPost, "/api/subscribe"},
	}
	for _, r := range routes {
		rec := s.do(r.method, r.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: want=%d got=%d", r.method, r.path, http.StatusUnauthorized, rec.Code)
		}
	}
}

func TestRegisterLoginAndUserEndpoints(t *testing.T) {
	s := newTestServer(t)

	reg := map[string]any{
		"username": "alice", "password": "s3cret!", "email": "alice@example.com",
		"first_name": "Alice", "last_name": "Liddell",
	}
	rec := s.do(http.MethodPost, "/api/users", "", reg)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: want=%d got=%d body=%s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("register: response leaks password field: %s", rec.Body.String())
	}

	rec = s.do(http.MethodPost, "/api/users", "", reg)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
	rec = s.do(http.MethodPost, "/api/users", "", map[string]any{"username": "bob"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
	rec = s.do(http.MethodPost, "/api/users", "", map[string]any{"username": "bob", "password": "x", "email": "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad email: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"username": "alice", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: want=%d got=%d", http.StatusUnauthorized, rec.Code)
	}
	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"username": "alice", "password": "s3cret!"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: want=%d got=%d body=%s", http.StatusOK, rec.Code, rec.Body.String())
	}
	tok := decode[struct {
		Token string `json:"token"`
	}](t, rec).Token
	if tok == "" {
		t.Fatalf("login: empty token")
	}

	rec = s.do(http.MethodGet, "/api/users/me", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: want=%d got=%d", http.StatusOK, rec.Code)
	}
	me := decode[models.User](t, rec)
	if me.Username != "alice" || me.Email != "alice@example.com" || me.FirstName != "Alice" || me.LastName != "Liddell" {
		t.Fatalf("me: got=%+v", me)
	}

	testutil.CreateUser(t, s.db, "bob")
	rec = s.do(http.MethodGet, "/api/users", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("list: response leaks password field: %s", rec.Body.String())
	}
	users := decode[[]models.User](t, rec)
	if len(users) != 2 {
		t.Fatalf("list: want=2 got=%d", len(users))
	}

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d", users[1].ID), tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if got := decode[models.User](t, rec); got.Username != "bob" {
		t.Fatalf("retrieve: got=%+v", got)
	}
	if rec = s.do(http.MethodGet, "/api/users/999", tok, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("retrieve missing: want=%d got=%d", http.StatusNotFound, rec.Code)
	}
	if rec = s.do(http.MethodGet, "/api/users/abc", tok, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("retrieve bad id: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
}

func TestProductStatsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/product-stats", "", nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("empty stats: code=%d body=%s", rec.Code, rec.Body.String())
	}

	u1 := testutil.CreateUser(t, s.db, "u1")
	testutil.CreateUser(t, s.db, "u2")
	testutil.CreateUser(t, s.db, "u3")
	p := testutil.CreateProduct(t, s.db, "P1")
	l := testutil.CreateLesson(t, s.db, p.ID, "L1", 100)
	testutil.CreateView(t, s.db, u1.ID, l.ID, true, 95)

	rec = s.do(http.MethodGet, "/api/product-stats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: want=%d got=%d", http.StatusOK, rec.Code)
	}
	rows := decode[[]models.ProductStats](t, rec)
	if len(rows) != 1 {
		t.Fatalf("stats rows: want=1 got=%d", len(rows))
	}
	r := rows[0]
	if r.Name != "P1" || r.TotalViews != 1 || r.TotalViewTime != 95 || r.TotalStudents != 1 {
		t.Fatalf("stats row: got=%+v", r)
	}
	if math.Abs(r.PurchasePercentage-100.0/3) > 1e-9 {
		t.Fatalf("purchase_percentage: want=%v got=%v", 100.0/3, r.PurchasePercentage)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: want=%d got=%d", http.StatusOK, rec.Code)
	}
}
