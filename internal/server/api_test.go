package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pulse/internal/clock"
	"pulse/internal/config"
	"pulse/internal/database"
	"pulse/internal/lifecycle"
	"pulse/internal/middleware"
	"pulse/internal/models"
	"pulse/internal/repository"
	"pulse/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestServer wires the handler stack onto an in-memory database. It
// mirrors NewServerWithDeps but skips the Prometheus middleware, which
// cannot be registered twice in one process.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:                "test-secret",
		Port:                     "8480",
		Env:                      "test",
		InitialLifeSeconds:       300,
		LikeExtensionSeconds:     60,
		SweepIntervalSeconds:     30,
		TrendingWindowMinutes:    5,
		TrendingLimit:            20,
		ExpiringThresholdSeconds: 60,
	}
	clk := clock.System()

	s := &Server{config: cfg, db: db, clock: clk}
	s.userRepo = repository.NewUserRepository(db)
	s.postRepo = repository.NewPostRepository(db)
	s.followRepo = repository.NewFollowRepository(db)
	s.engagementRepo = repository.NewEngagementRepository(db)
	s.commentRepo = repository.NewCommentRepository(db)
	s.pollRepo = repository.NewPollRepository(db)
	s.hashtagRepo = repository.NewHashtagRepository(db)
	s.feedRepo = repository.NewFeedRepository(db)
	s.notificationRepo = repository.NewNotificationRepository(db)

	s.engine = lifecycle.NewEngine(s.postRepo, clk, cfg.InitialLifeSeconds, cfg.LikeExtensionSeconds)
	visibility := service.NewVisibilityPolicy(s.followRepo, clk)

	s.notificationService = service.NewNotificationService(s.notificationRepo, nil)
	s.userService = service.NewUserService(s.userRepo, s.followRepo, s.notificationService)
	s.postService = service.NewPostService(
		s.postRepo, s.pollRepo, s.hashtagRepo, s.userRepo, s.followRepo,
		s.engine, visibility, s.notificationService, clk)
	s.engagementService = service.NewEngagementService(
		s.postRepo, s.engagementRepo, s.commentRepo, s.pollRepo,
		s.userRepo, s.engine, visibility, s.notificationService)
	s.feedService = service.NewFeedService(
		s.feedRepo, s.followRepo, clk, cfg.TrendingWindow(), cfg.TrendingLimit)
	s.sweeper = lifecycle.NewSweeper(s.engine, s.notificationService,
		cfg.SweepInterval(), time.Duration(cfg.ExpiringThresholdSeconds)*time.Second)

	middleware.InitMiddleware(cfg)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	var parsed map[string]any
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	_ = resp.Body.Close()
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &parsed)
	}
	return resp, parsed
}

// signupUser registers a user through the API and returns their token.
func signupUser(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "Sup3r$ecretPass",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup %s: expected 201, got %d (%v)", username, resp.StatusCode, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("signup %s: no token in response", username)
	}
	return token
}

func TestAuthFlow(t *testing.T) {
	_, app := newTestServer(t)

	token := signupUser(t, app, "alice")

	t.Run("LoginReturnsToken", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
			"email":    "alice@example.com",
			"password": "Sup3r$ecretPass",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if body["token"] == "" {
			t.Fatal("expected a token")
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
			"email":    "alice@example.com",
			"password": "Wr0ng$Password!!",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("DuplicateSignupConflicts", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]any{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "Sup3r$ecretPass",
		})
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("ProtectedRouteWithToken", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/me/", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if body["username"] != "alice" {
			t.Fatalf("expected alice, got %v", body["username"])
		}
	})

	t.Run("ProtectedRouteWithoutToken", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodGet, "/api/me/", "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("GarbageToken", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodGet, "/api/me/", "not.a.jwt", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})
}

func TestPostEndpoints(t *testing.T) {
	s, app := newTestServer(t)

	authorToken := signupUser(t, app, "author")
	viewerToken := signupUser(t, app, "viewer")

	resp, created := doJSON(t, app, http.MethodPost, "/api/posts/", authorToken, map[string]any{
		"text": "hello world",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create post: expected 201, got %d (%v)", resp.StatusCode, created)
	}
	postID := uint(created["id"].(float64))
	if created["life_seconds_remaining"].(float64) != 300 {
		t.Fatalf("expected 300s remaining, got %v", created["life_seconds_remaining"])
	}

	postPath := fmt.Sprintf("/api/posts/%d", postID)

	t.Run("GetPostIsPublic", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, postPath, "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if body["text"] != "hello world" {
			t.Fatalf("unexpected body: %v", body)
		}
	})

	t.Run("TaggedPostsAreBrowsable", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/posts/", authorToken, map[string]any{
			"text": "ship day #launch",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create tagged post: expected 201, got %d", resp.StatusCode)
		}

		resp, body := doJSON(t, app, http.MethodGet, "/api/posts/tagged/launch", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		posts, ok := body["posts"].([]any)
		if !ok || len(posts) != 1 {
			t.Fatalf("expected one tagged post, got %v", body)
		}
		if posts[0].(map[string]any)["text"] != "ship day #launch" {
			t.Fatalf("unexpected tagged post: %v", posts[0])
		}
	})

	t.Run("LikeExtendsAndReportsCountdown", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, postPath+"/like", viewerToken, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
		}
		if body["liked"] != true {
			t.Fatalf("expected liked=true, got %v", body)
		}
		if body["likes_count"].(float64) != 1 {
			t.Fatalf("expected 1 like, got %v", body["likes_count"])
		}
		remaining := body["life_seconds_remaining"].(float64)
		if remaining <= 300 {
			t.Fatalf("expected the like to extend past the initial life, got %v", remaining)
		}
	})

	t.Run("ExpiredPostLooksDeleted", func(t *testing.T) {
		if err := s.db.Model(&models.Post{}).Where("id = ?", postID).
			Update("is_expired", true).Error; err != nil {
			t.Fatalf("expire post: %v", err)
		}

		resp, body := doJSON(t, app, http.MethodGet, postPath, viewerToken, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
		if body["code"] != "NOT_FOUND" {
			t.Fatalf("expected uniform NOT_FOUND body, got %v", body)
		}

		resp, body = doJSON(t, app, http.MethodPost, postPath+"/like", viewerToken, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 on like, got %d", resp.StatusCode)
		}
		if body["code"] != "NOT_FOUND" {
			t.Fatalf("expired posts must be indistinguishable from deleted ones, got %v", body)
		}
	})

	t.Run("InvalidID", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodGet, "/api/posts/banana", "", nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestCommentEndpoints(t *testing.T) {
	_, app := newTestServer(t)

	authorToken := signupUser(t, app, "author")
	commenterToken := signupUser(t, app, "commenter")

	_, created := doJSON(t, app, http.MethodPost, "/api/posts/", authorToken, map[string]any{
		"text": "discuss below",
	})
	postID := uint(created["id"].(float64))
	commentsPath := fmt.Sprintf("/api/posts/%d/comments", postID)

	resp, comment := doJSON(t, app, http.MethodPost, commentsPath, commenterToken, map[string]any{
		"text": "great post",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create comment: expected 201, got %d (%v)", resp.StatusCode, comment)
	}

	resp, _ = doJSON(t, app, http.MethodGet, commentsPath, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list comments: expected 200, got %d", resp.StatusCode)
	}

	commentID := uint(comment["id"].(float64))
	deletePath := fmt.Sprintf("/api/posts/%d/comments/%d", postID, commentID)
	resp, _ = doJSON(t, app, http.MethodDelete, deletePath, authorToken, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete comment: expected 204, got %d", resp.StatusCode)
	}
}

func TestFollowEndpoints(t *testing.T) {
	s, app := newTestServer(t)

	followerToken := signupUser(t, app, "follower")
	_ = signupUser(t, app, "target")

	var target models.User
	if err := s.db.Where("username = ?", "target").First(&target).Error; err != nil {
		t.Fatalf("load target: %v", err)
	}
	if err := s.db.Model(&target).Update("is_private", true).Error; err != nil {
		t.Fatalf("make target private: %v", err)
	}
	targetToken := loginUser(t, app, "target")

	followPath := fmt.Sprintf("/api/follows/%d", target.ID)
	resp, body := doJSON(t, app, http.MethodPost, followPath, followerToken, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("follow: expected 201, got %d (%v)", resp.StatusCode, body)
	}
	if body["status"] != "pending" {
		t.Fatalf("expected a pending request for a private account, got %v", body["status"])
	}

	resp, requests := doJSON(t, app, http.MethodGet, "/api/follows/requests", targetToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("requests: expected 200, got %d", resp.StatusCode)
	}
	if list, ok := requests["requests"].([]any); !ok || len(list) != 1 {
		t.Fatalf("expected one pending request, got %v", requests)
	}

	var follower models.User
	if err := s.db.Where("username = ?", "follower").First(&follower).Error; err != nil {
		t.Fatalf("load follower: %v", err)
	}
	acceptPath := fmt.Sprintf("/api/follows/requests/%d/accept", follower.ID)
	resp, _ = doJSON(t, app, http.MethodPost, acceptPath, targetToken, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("accept: expected 204, got %d", resp.StatusCode)
	}

	var edge models.Follow
	if err := s.db.Where("follower_id = ? AND followee_id = ?", follower.ID, target.ID).
		First(&edge).Error; err != nil {
		t.Fatalf("reload edge: %v", err)
	}
	if edge.Status != models.FollowStatusAccepted {
		t.Fatalf("expected accepted edge, got %s", edge.Status)
	}
}

func loginUser(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    username + "@example.com",
		"password": "Sup3r$ecretPass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d", username, resp.StatusCode)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token", username)
	}
	return token
}

func TestFeedEndpoint(t *testing.T) {
	_, app := newTestServer(t)

	token := signupUser(t, app, "reader")
	otherToken := signupUser(t, app, "writer")

	doJSON(t, app, http.MethodPost, "/api/posts/", otherToken, map[string]any{"text": "from writer"})
	doJSON(t, app, http.MethodPost, "/api/posts/", token, map[string]any{"text": "from reader"})

	t.Run("FollowingMode", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/me/feed", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		posts, ok := body["posts"].([]any)
		if !ok || len(posts) != 1 {
			t.Fatalf("expected only the reader's own post, got %v", body)
		}
	})

	t.Run("ForYouMode", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/me/feed?mode=for_you", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		posts, ok := body["posts"].([]any)
		if !ok || len(posts) != 2 {
			t.Fatalf("expected the writer's post to be recommended, got %v", body)
		}
	})

	t.Run("UnknownMode", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodGet, "/api/me/feed?mode=explore", token, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("Trending", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/posts/trending", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if _, ok := body["posts"]; !ok {
			t.Fatalf("expected a posts array, got %v", body)
		}
	})
}

func TestNotificationEndpoints(t *testing.T) {
	_, app := newTestServer(t)

	authorToken := signupUser(t, app, "author")
	fanToken := signupUser(t, app, "fan")

	_, created := doJSON(t, app, http.MethodPost, "/api/posts/", authorToken, map[string]any{
		"text": "like this",
	})
	postID := uint(created["id"].(float64))
	doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/posts/%d/like", postID), fanToken, nil)

	resp, body := doJSON(t, app, http.MethodGet, "/api/notifications/unread-count", authorToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["unread_count"].(float64) != 1 {
		t.Fatalf("expected one unread notification, got %v", body)
	}

	resp, _ = doJSON(t, app, http.MethodPost, "/api/notifications/read-all", authorToken, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("read-all: expected 204, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, app, http.MethodGet, "/api/notifications/unread-count", authorToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["unread_count"].(float64) != 0 {
		t.Fatalf("expected zero unread, got %v", body)
	}

	t.Run("PreferencesRoundTrip", func(t *testing.T) {
		resp, prefs := doJSON(t, app, http.MethodGet, "/api/notifications/preferences", authorToken, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if prefs["notify_likes"] != true {
			t.Fatalf("expected defaults, got %v", prefs)
		}

		resp, updated := doJSON(t, app, http.MethodPut, "/api/notifications/preferences", authorToken, map[string]any{
			"notify_likes":               false,
			"expiring_threshold_seconds": 120,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, updated)
		}
		if updated["notify_likes"] != false {
			t.Fatalf("expected notify_likes off, got %v", updated)
		}
		if updated["expiring_threshold_seconds"].(float64) != 120 {
			t.Fatalf("expected threshold 120, got %v", updated)
		}
	})
}
