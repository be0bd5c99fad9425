package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/versecraft/api/internal/auth"
	"github.com/versecraft/api/internal/handler"
	"github.com/versecraft/api/internal/middleware"
	"github.com/versecraft/api/internal/service"
	"github.com/versecraft/api/internal/store"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app   *fiber.App
	store *store.Store
}

// setupApp creates a Fiber app identical to main.go but with unconfigured
// external clients, so services fall back to their mock paths. Skips when
// Redis is not reachable.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	// Redis (localhost — DB 15 to avoid collision with dev data)
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { asynqClient.Close() })

	validate := validator.New()

	songStore, err := store.New(filepath.Join(t.TempDir(), "e2e.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { songStore.Close() })

	// Unconfigured Groq client → structure service uses mock generation
	structureService := service.NewStructureService(nil, songStore)
	lyricsService := service.NewLyricsService(songStore)
	workflowService := service.NewWorkflowService(redisClient, asynqClient)

	workflowHandler := handler.NewWorkflowHandler(workflowService, validate)
	structureHandler := handler.NewStructureHandler(structureService, validate)
	lyricsHandler := handler.NewLyricsHandler(structureService, lyricsService, validate)

	// Auth middleware — legacy HMAC only
	authMiddleware := middleware.NewLegacyAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"groq":   false,
				"studio": false,
				"r2":     false,
				"auth":   true,
			},
		})
	})

	api := app.Group("/api", authMiddleware.Authenticate())

	// Very high rate limits so tests don't get blocked
	songs := api.Group("/songs")
	songs.Post("/create", rateLimiter.SongsLimit(10000), workflowHandler.Create)
	songs.Get("/status/:jobId", workflowHandler.Status)
	songs.Get("/result/:jobId", workflowHandler.Result)
	songs.Post("/cancel/:jobId", workflowHandler.Cancel)

	structures := api.Group("/structures", rateLimiter.StructuresLimit(10000))
	structures.Post("/generate", structureHandler.Generate)

	lyrics := api.Group("/lyrics")
	lyrics.Get("/:book/:chapter", lyricsHandler.Preview)

	return &testApp{app: app, store: songStore}
}

// seedChapter stores verse text so structure/lyrics endpoints have data
func seedChapter(t *testing.T, ta *testApp, book string, chapter, verses int) {
	t.Helper()
	ctx := context.Background()
	for v := 1; v <= verses; v++ {
		if err := ta.store.InsertVerse(ctx, book, chapter, v, "verse text"); err != nil {
			t.Fatalf("failed to seed verse: %v", err)
		}
	}
}

// generateToken creates a legacy HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	claims := auth.LegacyClaims{
		UserID: "test-user-123",
		Email:  "test@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "versecraft-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
