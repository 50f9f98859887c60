package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"notes-api/internal/auth"
	"notes-api/internal/domain"
	"notes-api/internal/repository/sqlite"
	"notes-api/internal/service"
)

type testAPI struct {
	router *gin.Engine
	notes  service.NoteService
	users  service.UserService
	tokens *auth.Tokens
}

func newTestAPI(t *testing.T, enforceOwnership bool) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	require.NoError(t, sqlite.Migrate(context.Background(), db, logger))

	userRepo := sqlite.NewUserRepository(db)
	noteRepo := sqlite.NewNoteRepository(db)
	tokens := auth.NewTokens("test-secret", 0)

	api := &testAPI{
		notes:  service.NewNoteService(noteRepo, userRepo, enforceOwnership),
		users:  service.NewUserService(userRepo, noteRepo, auth.NewHasher(bcrypt.MinCost), tokens),
		tokens: tokens,
	}

	api.router = gin.New()
	NewHandler(api.notes, api.users, tokens, logger, db.PingContext, true).RegisterRoutes(api.router)
	return api
}

func (a *testAPI) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// seed creates user U with two notes and returns U's token.
func (a *testAPI) seed(t *testing.T) (string, *domain.User) {
	t.Helper()
	ctx := context.Background()

	user, err := a.users.Register(ctx, "testuser", "Test User", "testpassword")
	require.NoError(t, err)
	login, err := a.users.Login(ctx, "testuser", "testpassword")
	require.NoError(t, err)

	_, err = a.notes.Create(ctx, "HTML is easy", true, user.ID)
	require.NoError(t, err)
	_, err = a.notes.Create(ctx, "Browser can execute only JavaScript", false, user.ID)
	require.NoError(t, err)
	return login.Token, user
}

func (a *testAPI) listNotes(t *testing.T) []NoteResponse {
	t.Helper()
	rec := a.do(t, http.MethodGet, "/api/notes", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return decode[[]NoteResponse](t, rec)
}

func contents(notes []NoteResponse) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Content
	}
	return out
}

func TestNotesScenario(t *testing.T) {
	api := newTestAPI(t, false)
	token, _ := api.seed(t)

	rec := api.do(t, http.MethodGet, "/api/notes", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	notes := decode[[]NoteResponse](t, rec)
	require.Len(t, notes, 2)
	assert.Contains(t, contents(notes), "HTML is easy")

	newNote := map[string]any{"content": "async/await simplifies making async calls", "important": true}
	rec = api.do(t, http.MethodPost, "/api/notes", newNote, bearer(token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[NoteResponse](t, rec)
	assert.Equal(t, "async/await simplifies making async calls", created.Content)
	assert.True(t, created.Important)

	notes = api.listNotes(t)
	require.Len(t, notes, 3)
	assert.Equal(t, 1, strings.Count(strings.Join(contents(notes), "\n"), "async/await simplifies making async calls"))

	rec = api.do(t, http.MethodPost, "/api/notes", map[string]any{"content": "Note without token", "important": true}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "token")
	assert.Len(t, api.listNotes(t), 3)
}

func TestCreateNote_InvalidToken(t *testing.T) {
	api := newTestAPI(t, false)
	api.seed(t)

	// misspelled header name: no token is sent at all
	rec := api.do(t, http.MethodPost, "/api/notes", map[string]any{"content": "Note without token"},
		http.Header{"Authotization": []string{"Bearer invalidtoken123"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/notes", map[string]any{"content": "Note with bad token"}, bearer("invalidtoken123"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "token")

	forged, err := auth.NewTokens("other-secret", 0).Issue(domain.NewID(), "mallory")
	require.NoError(t, err)
	rec = api.do(t, http.MethodPost, "/api/notes", map[string]any{"content": "forged"}, bearer(forged))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Len(t, api.listNotes(t), 2)
}

func TestCreateNote_InvalidData(t *testing.T) {
	api := newTestAPI(t, false)
	token, _ := api.seed(t)

	rec := api.do(t, http.MethodPost, "/api/notes", map[string]any{"important": true}, bearer(token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/notes", `{"content":`, bearer(token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Len(t, api.listNotes(t), 2)
}

func TestCreateNote_OwnerFromToken(t *testing.T) {
	api := newTestAPI(t, false)
	token, user := api.seed(t)

	body := map[string]any{"content": "mine", "userId": domain.NewID()}
	rec := api.do(t, http.MethodPost, "/api/notes", body, bearer(token))
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decode[NoteResponse](t, rec)
	require.NotNil(t, created.User)
	assert.Equal(t, user.ID, created.User.ID)
	assert.Equal(t, "testuser", created.User.Username)
	assert.False(t, created.Important)
}

func TestGetNote(t *testing.T) {
	api := newTestAPI(t, false)
	api.seed(t)
	first := api.listNotes(t)[0]

	rec := api.do(t, http.MethodGet, "/api/notes/"+first.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[NoteResponse](t, rec)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, first.Content, got.Content)
	assert.Equal(t, first.Important, got.Important)
	require.NotNil(t, got.User)
	assert.Equal(t, "Test User", got.User.Name)

	rec = api.do(t, http.MethodGet, "/api/notes/"+domain.NewID(), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/notes/5a3d5da59070081a82a3445", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "malformatted id", decode[map[string]string](t, rec)["error"])
}

func TestListNotes_ImportantFilter(t *testing.T) {
	api := newTestAPI(t, false)
	api.seed(t)

	rec := api.do(t, http.MethodGet, "/api/notes?important=true", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decode[[]NoteResponse](t, rec)
	require.Len(t, notes, 1)
	assert.Equal(t, "HTML is easy", notes[0].Content)

	rec = api.do(t, http.MethodGet, "/api/notes?important=maybe", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateNote(t *testing.T) {
	api := newTestAPI(t, false)
	api.seed(t)
	target := api.listNotes(t)[0]

	rec := api.do(t, http.MethodPut, "/api/notes/"+target.ID, map[string]any{"content": "New Content", "important": false}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	rec = api.do(t, http.MethodGet, "/api/notes/"+target.ID, nil, nil)
	got := decode[NoteResponse](t, rec)
	assert.Equal(t, "New Content", got.Content)
	assert.False(t, got.Important)

	notes := api.listNotes(t)
	assert.Len(t, notes, 2)
	assert.Contains(t, contents(notes), "New Content")

	rec = api.do(t, http.MethodPut, "/api/notes/"+domain.NewID(), map[string]any{"content": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPut, "/api/notes/"+target.ID, map[string]any{"content": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteNote_Idempotent(t *testing.T) {
	api := newTestAPI(t, false)
	api.seed(t)
	target := api.listNotes(t)[0]

	rec := api.do(t, http.MethodDelete, "/api/notes/"+target.ID, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	notes := api.listNotes(t)
	assert.Len(t, notes, 1)
	assert.NotContains(t, contents(notes), target.Content)

	rec = api.do(t, http.MethodDelete, "/api/notes/"+target.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, api.listNotes(t), 1)

	rec = api.do(t, http.MethodDelete, "/api/notes/not-an-id", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOwnershipEnforced(t *testing.T) {
	api := newTestAPI(t, true)
	ownerToken, _ := api.seed(t)
	target := api.listNotes(t)[0]

	_, err := api.users.Register(context.Background(), "intruder", "", "secret")
	require.NoError(t, err)
	login, err := api.users.Login(context.Background(), "intruder", "secret")
	require.NoError(t, err)

	body := map[string]any{"content": "changed", "important": true}

	rec := api.do(t, http.MethodPut, "/api/notes/"+target.ID, body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPut, "/api/notes/"+target.ID, body, bearer(login.Token))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/notes/"+target.ID, nil, bearer(login.Token))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, api.listNotes(t), 2)

	rec = api.do(t, http.MethodPut, "/api/notes/"+target.ID, body, bearer(ownerToken))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/notes/"+target.ID, nil, bearer(ownerToken))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, api.listNotes(t), 1)
}

func TestUsers(t *testing.T) {
	api := newTestAPI(t, false)
	_, err := api.users.Register(context.Background(), "root", "", "sekret")
	require.NoError(t, err)

	newUser := map[string]any{"username": "mluukkai", "name": "Matti Luukkainen", "password": "salainen"}
	rec := api.do(t, http.MethodPost, "/api/users", newUser, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.NotContains(t, rec.Body.String(), "salainen")
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "hash")

	created := decode[UserResponse](t, rec)
	assert.Equal(t, "mluukkai", created.Username)
	assert.NotNil(t, created.Notes)

	rec = api.do(t, http.MethodPost, "/api/users", map[string]any{"username": "root", "name": "Superuser", "password": "salainen"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "expected `username` to be unique")

	rec = api.do(t, http.MethodPost, "/api/users", map[string]any{"username": "ab", "password": "salainen"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(t, http.MethodPost, "/api/users", map[string]any{"username": "valid", "password": "pw"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/users", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[[]UserResponse](t, rec)
	require.Len(t, users, 2)
	assert.Equal(t, "root", users[0].Username)
	assert.Equal(t, "mluukkai", users[1].Username)

	rec = api.do(t, http.MethodGet, "/api/users/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Matti Luukkainen", decode[UserResponse](t, rec).Name)

	rec = api.do(t, http.MethodGet, "/api/users/"+domain.NewID(), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsers_ListIncludesNotes(t *testing.T) {
	api := newTestAPI(t, false)
	api.seed(t)

	rec := api.do(t, http.MethodGet, "/api/users", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[[]UserResponse](t, rec)
	require.Len(t, users, 1)
	require.Len(t, users[0].Notes, 2)
	assert.Equal(t, "HTML is easy", users[0].Notes[0].Content)
	assert.True(t, users[0].Notes[0].Important)
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t, false)
	_, user := api.seed(t)

	rec := api.do(t, http.MethodPost, "/api/login", map[string]any{"username": "testuser", "password": "testpassword"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[LoginResponse](t, rec)
	assert.Equal(t, "testuser", resp.Username)
	assert.Equal(t, "Test User", resp.Name)

	identity, err := api.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)

	rec = api.do(t, http.MethodPost, "/api/login", map[string]any{"username": "testuser", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid username or password", decode[map[string]string](t, rec)["error"])

	rec = api.do(t, http.MethodPost, "/api/login", map[string]any{"username": "ghost", "password": "testpassword"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/login", map[string]any{"username": "testuser"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownEndpointAndHealth(t *testing.T) {
	api := newTestAPI(t, false)

	rec := api.do(t, http.MethodGet, "/api/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown endpoint", decode[map[string]string](t, rec)["error"])

	rec = api.do(t, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodOptions, "/api/notes", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGzipWhenAccepted(t *testing.T) {
	api := newTestAPI(t, false)
	api.seed(t)

	rec := api.do(t, http.MethodGet, "/api/notes", nil, http.Header{"Accept-Encoding": []string{"gzip"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

type failingNotes struct {
	service.NoteService
}

func (failingNotes) List(context.Context, domain.NoteFilter) ([]domain.Note, error) {
	return nil, errors.New("connection reset by peer")
}

func (failingNotes) EnforcesOwnership() bool { return false }

func TestInternalErrorsAreHidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)

	router := gin.New()
	unhealthy := func(context.Context) error { return errors.New("store down") }
	NewHandler(failingNotes{}, nil, auth.NewTokens("k", 0), logger, unhealthy, false).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.Contains(t, logs.String(), "connection reset by peer")

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
