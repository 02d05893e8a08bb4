package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testPassword = "correct-horse-9"

type harness struct {
	t        *testing.T
	router   *gin.Engine
	db       *gorm.DB
	mr       *miniredis.Miniredis
	mediaDir string
}

func newHarness(t *testing.T, tweak ...func(*config.Config)) *harness {
	t.Helper()
	db := testhelpers.NewSQLiteDB(t)
	client, mr := testhelpers.NewRedisClient(t)
	mediaDir := t.TempDir()

	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: "local", MediaDir: mediaDir, MediaURL: "/media"},
		API:     config.APIConfig{PageSize: 6, MaxPageSize: 100, Domain: "foodgram.example"},
		RateLimit: config.RateLimitConfig{
			LoginLimit:         100,
			LoginWindow:        time.Minute,
			RecipeCreateLimit:  100,
			RecipeCreateWindow: time.Hour,
		},
	}
	for _, fn := range tweak {
		fn(cfg)
	}

	images, err := service.NewLocalImageStore(mediaDir, cfg.Storage.MediaURL)
	require.NoError(t, err)
	auth := service.NewAuthService(db, service.NewRedisTokenStore(client), "api-test-secret", time.Hour,
		service.WithPasswordCost(bcrypt.MinCost))
	recipes := service.NewRecipeService(db, images, cfg.API.Domain)

	r := router.SetupRouter(router.Dependencies{
		Config:        cfg,
		DB:            db,
		Redis:         client,
		Authenticator: auth,
		Services: api.Services{
			Auth:         auth,
			Users:        service.NewUserService(db, images),
			Catalog:      service.NewCatalogService(db),
			Recipes:      recipes,
			Interactions: service.NewInteractionService(db, recipes),
		},
	})
	return &harness{t: t, router: r, db: db, mr: mr, mediaDir: mediaDir}
}

// do sends body as JSON unless it is already an io.Reader.
func (h *harness) do(method, path string, body interface{}, token string, headers ...string) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		raw, err := json.Marshal(b)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// signup registers a user through the API and logs them in.
func (h *harness) signup(email, username string) (uint, string) {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/users/", map[string]string{
		"email":      email,
		"username":   username,
		"first_name": "First",
		"last_name":  "Last",
		"password":   testPassword,
	}, "")
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		ID uint `json:"id"`
	}](h.t, w)
	return created.ID, h.login(email)
}

func (h *harness) login(email string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/auth/token/login/", map[string]string{"email": email, "password": testPassword}, "")
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	return decode[struct {
		AuthToken string `json:"auth_token"`
	}](h.t, w).AuthToken
}

func (h *harness) makeStaff(id uint) {
	h.t.Helper()
	require.NoError(h.t, h.db.Model(&models.User{}).Where("id = ?", id).Update("is_staff", true).Error)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields"`
}
