package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fakenews-detector/internal/core/auth"
	"fakenews-detector/internal/domain"
	"fakenews-detector/internal/inference"
)

// ---- in-memory stores ----

type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]*domain.User{}} }

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.users {
		if e.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	cp := *u
	cp.CreatedAt = time.Now()
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) Update(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.users[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	e.Name, e.Email, e.PasswordHash, e.Theme = u.Name, u.Email, u.PasswordHash, u.Theme
	return nil
}

type memHistory struct {
	mu   sync.Mutex
	recs []domain.HistoryRecord
}

func (m *memHistory) Append(_ context.Context, rec *domain.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.CreatedAt = time.Now()
	m.recs = append(m.recs, *rec)
	return nil
}

func (m *memHistory) ListByUser(_ context.Context, userID string, limit, offset int) ([]domain.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.HistoryRecord
	for i := len(m.recs) - 1; i >= 0; i-- { // newest first
		if m.recs[i].UserID == userID {
			out = append(out, m.recs[i])
		}
	}
	if offset > 0 && offset < len(out) {
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memHistory) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

// ---- adapter fakes ----

type fakeClassifier struct {
	mu     sync.Mutex
	calls  int
	result inference.Result
	err    error
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) (*inference.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r := f.result
	return &r, nil
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, _ io.Reader) (string, error) {
	return f.text, f.err
}

// ---- harness ----

type env struct {
	engine     *gin.Engine
	users      *memUsers
	history    *memHistory
	classifier *fakeClassifier
	extractor  *fakeExtractor
	jwter      *auth.JWTer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := &env{
		users:      newMemUsers(),
		history:    &memHistory{},
		classifier: &fakeClassifier{result: inference.Result{Prediction: domain.LabelReal, Confidence: 93.2}},
		extractor:  &fakeExtractor{},
		jwter:      &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: 24 * time.Hour},
	}
	e.engine = NewAPIEngine(Deps{
		Log:        zap.NewNop(),
		JWT:        e.jwter,
		Users:      e.users,
		History:    e.history,
		Classifier: e.classifier,
		OCR:        e.extractor,
	}, Options{CORSOrigins: []string{"http://localhost:5173"}})
	return e
}

func (e *env) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	}
	return w, out
}

func (e *env) signupAndLogin(t *testing.T, name, email, password string) string {
	t.Helper()
	w, _ := e.do(t, http.MethodPost, "/signup", "", gin.H{"name": name, "email": email, "password": password})
	require.Equal(t, http.StatusCreated, w.Code)
	w, out := e.do(t, http.MethodPost, "/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// ---- tests ----

func TestSignupLoginAnalyzeHistoryScenario(t *testing.T) {
	e := newEnv(t)

	w, out := e.do(t, http.MethodPost, "/signup", "", gin.H{"name": "Alice", "email": "alice@x.com", "password": "pw123456"})
	require.Equal(t, http.StatusCreated, w.Code)
	user := out["user"].(map[string]any)
	require.Equal(t, "alice@x.com", user["email"])
	require.NotContains(t, w.Body.String(), "pw123456")
	require.NotContains(t, w.Body.String(), "passwordHash")

	w, out = e.do(t, http.MethodPost, "/login", "", gin.H{"email": "alice@x.com", "password": "pw123456"})
	require.Equal(t, http.StatusOK, w.Code)
	token := out["token"].(string)

	// Token subject is the signed-up user's id.
	claims, err := e.jwter.Parse(token)
	require.NoError(t, err)
	require.Equal(t, user["id"], claims.Subject)

	w, out = e.do(t, http.MethodPost, "/analyzeText", token, gin.H{"text": "Scientists confirm water on Mars"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, []string{"Fake", "Real"}, out["prediction"])
	conf := out["confidence"].(float64)
	require.GreaterOrEqual(t, conf, 0.0)
	require.LessOrEqual(t, conf, 100.0)
	require.Equal(t, "Scientists confirm water on Mars", out["text"])
	historyID := out["historyId"].(string)
	require.NotEmpty(t, historyID)

	w, out = e.do(t, http.MethodGet, "/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := out["history"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	require.Equal(t, historyID, first["id"])
	require.Equal(t, "Scientists confirm water on Mars", first["text"])
	_, err = time.Parse(time.RFC3339, first["createdAt"].(string))
	require.NoError(t, err)
}

func TestHistoryNewestFirst(t *testing.T) {
	e := newEnv(t)
	token := e.signupAndLogin(t, "Alice", "alice@x.com", "pw123456")

	var ids []string
	for i := 0; i < 3; i++ {
		w, out := e.do(t, http.MethodPost, "/analyzeText", token, gin.H{"text": fmt.Sprintf("headline %d", i)})
		require.Equal(t, http.StatusOK, w.Code)
		ids = append(ids, out["historyId"].(string))
	}

	w, out := e.do(t, http.MethodGet, "/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := out["history"].([]any)
	require.Len(t, items, 3)
	for i, it := range items {
		require.Equal(t, ids[len(ids)-1-i], it.(map[string]any)["id"])
	}

	// Optional pagination.
	w, out = e.do(t, http.MethodGet, "/history?limit=1&offset=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items = out["history"].([]any)
	require.Len(t, items, 1)
	require.Equal(t, ids[1], items[0].(map[string]any)["id"])
}

func TestSignupValidationAndConflict(t *testing.T) {
	e := newEnv(t)

	for _, body := range []gin.H{
		{"email": "a@x.com", "password": "pw"},
		{"name": "A", "password": "pw"},
		{"name": "A", "email": "a@x.com"},
		{"name": "", "email": "a@x.com", "password": "pw"},
	} {
		w, out := e.do(t, http.MethodPost, "/signup", "", body)
		require.Equal(t, http.StatusBadRequest, w.Code, "body: %v", body)
		require.NotEmpty(t, out["message"])
	}

	w, _ := e.do(t, http.MethodPost, "/signup", "", gin.H{"name": "A", "email": "a@x.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, w.Code)
	w, out := e.do(t, http.MethodPost, "/signup", "", gin.H{"name": "B", "email": "a@x.com", "password": "pw2"})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "email already exists", out["message"])
}

func TestLoginFailuresAreUniform(t *testing.T) {
	e := newEnv(t)
	e.signupAndLogin(t, "Alice", "alice@x.com", "pw123456")

	w1, out1 := e.do(t, http.MethodPost, "/login", "", gin.H{"email": "alice@x.com", "password": "wrong"})
	w2, out2 := e.do(t, http.MethodPost, "/login", "", gin.H{"email": "nobody@x.com", "password": "pw123456"})
	require.Equal(t, http.StatusUnauthorized, w1.Code)
	require.Equal(t, http.StatusUnauthorized, w2.Code)
	// Same answer for unknown email and wrong password.
	require.Equal(t, out1["message"], out2["message"])
}

func TestAnalyzeTextRequiresAuth(t *testing.T) {
	e := newEnv(t)

	w, _ := e.do(t, http.MethodPost, "/analyzeText", "", gin.H{"text": "x"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = e.do(t, http.MethodPost, "/analyzeText", "garbage.token.here", gin.H{"text": "x"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	expired := &auth.JWTer{Secret: e.jwter.Secret, Issuer: e.jwter.Issuer, TTL: -5 * time.Minute}
	tok, err := expired.Issue("someone")
	require.NoError(t, err)
	w, _ = e.do(t, http.MethodPost, "/analyzeText", tok, gin.H{"text": "x"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	require.Equal(t, 0, e.classifier.callCount())
	require.Equal(t, 0, e.history.count())
}

func TestAnalyzeTextEmptyInput(t *testing.T) {
	e := newEnv(t)
	token := e.signupAndLogin(t, "Alice", "alice@x.com", "pw123456")

	for _, body := range []gin.H{{}, {"text": ""}, {"text": "   "}} {
		w, out := e.do(t, http.MethodPost, "/analyzeText", token, body)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "no text provided", out["message"])
	}
	// Validation failed before the model or the store were touched.
	require.Equal(t, 0, e.classifier.callCount())
	require.Equal(t, 0, e.history.count())
}

func TestAnalyzeTextInferenceFailure(t *testing.T) {
	e := newEnv(t)
	token := e.signupAndLogin(t, "Alice", "alice@x.com", "pw123456")
	e.classifier.err = inference.ErrInference

	w, out := e.do(t, http.MethodPost, "/analyzeText", token, gin.H{"text": "some claim"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "analysis failed", out["message"])
	require.Equal(t, 0, e.history.count())
}

func (e *env) doImage(t *testing.T, token string, withFile bool) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if withFile {
		part, err := mw.CreateFormFile("image", "headline.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("not-really-a-png"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyzeImage", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestAnalyzeImage(t *testing.T) {
	e := newEnv(t)
	token := e.signupAndLogin(t, "Alice", "alice@x.com", "pw123456")

	w, out := e.doImage(t, token, false)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "no image uploaded", out["message"])

	// OCR found nothing: success with an empty-text marker, no inference,
	// no history record.
	e.extractor.text = ""
	w, out = e.doImage(t, token, true)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "", out["text"])
	require.NotContains(t, out, "prediction")
	require.NotContains(t, out, "confidence")
	require.Equal(t, 0, e.classifier.callCount())
	require.Equal(t, 0, e.history.count())

	e.extractor.text = "Breaking news from Mars"
	w, out = e.doImage(t, token, true)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Breaking news from Mars", out["text"])
	require.Contains(t, []string{"Fake", "Real"}, out["prediction"])
	require.NotEmpty(t, out["historyId"])
	require.Equal(t, 1, e.history.count())

	// No durable image storage: the record keeps a null image reference.
	recs, err := e.history.ListByUser(context.Background(), claimsSubject(t, e, token), 0, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Nil(t, recs[0].ImageURL)
	require.Equal(t, "Breaking news from Mars", recs[0].InputText)
}

func claimsSubject(t *testing.T, e *env, token string) string {
	t.Helper()
	claims, err := e.jwter.Parse(token)
	require.NoError(t, err)
	return claims.Subject
}

func TestProfileGetAndUpdate(t *testing.T) {
	e := newEnv(t)
	token := e.signupAndLogin(t, "Alice", "alice@x.com", "pw123456")

	w, out := e.do(t, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	u := out["user"].(map[string]any)
	require.Equal(t, "Alice", u["name"])
	require.Equal(t, "dark", u["themePreference"])

	w, out = e.do(t, http.MethodPut, "/profile", token, gin.H{"name": "Alice B"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Alice B", out["user"].(map[string]any)["name"])

	// Password change requires the current password.
	w, _ = e.do(t, http.MethodPut, "/profile", token, gin.H{"password": "newpw"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = e.do(t, http.MethodPut, "/profile", token, gin.H{"password": "newpw", "currentPassword": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = e.do(t, http.MethodPut, "/profile", token, gin.H{"password": "newpw", "currentPassword": "pw123456"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = e.do(t, http.MethodPost, "/login", "", gin.H{"email": "alice@x.com", "password": "pw123456"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = e.do(t, http.MethodPost, "/login", "", gin.H{"email": "alice@x.com", "password": "newpw"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestProfileEmailConflict(t *testing.T) {
	e := newEnv(t)
	e.signupAndLogin(t, "Bob", "bob@x.com", "pw123456")
	token := e.signupAndLogin(t, "Alice", "alice@x.com", "pw123456")

	w, out := e.do(t, http.MethodPut, "/profile", token, gin.H{"email": "bob@x.com"})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "email already exists", out["message"])
}

func TestSettings(t *testing.T) {
	e := newEnv(t)
	token := e.signupAndLogin(t, "Alice", "alice@x.com", "pw123456")

	w, out := e.do(t, http.MethodPut, "/settings", token, gin.H{"theme": "solarized"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid theme", out["message"])

	// The rejected value must not have been written.
	w, out = e.do(t, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "dark", out["user"].(map[string]any)["themePreference"])

	w, out = e.do(t, http.MethodPut, "/settings", token, gin.H{"theme": "light"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "light", out["theme"])

	w, out = e.do(t, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "light", out["user"].(map[string]any)["themePreference"])
}

func TestHealthAndBanner(t *testing.T) {
	e := newEnv(t)

	w, _ := e.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, out := e.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "AI Fake News Detector API", out["message"])
}
