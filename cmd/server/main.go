package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/engine"
	"inkwell/internal/handlers"
	"inkwell/internal/media"
	"inkwell/internal/middleware"
	"inkwell/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	metrics := utils.NewMetricsCollector()

	// Connect to MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := database.NewMongoDB(cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close(context.Background())

	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	// Initialize actor system and engine
	system := actor.NewActorSystem()
	appEngine := engine.NewEngine(system, db, metrics)

	tokens := middleware.NewTokenManager(cfg.Auth)
	auth := middleware.NewAuthenticator(tokens, db)
	mediaClient := media.NewClient(cfg.Media)

	server := handlers.NewServer(system, appEngine, db, auth, tokens, mediaClient, metrics, cfg)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", server.HandleHealth())

	// Auth
	mux.HandleFunc("POST /api/v1/auth/register", server.HandleRegister())
	mux.HandleFunc("POST /api/v1/auth/login", server.HandleLogin())
	mux.HandleFunc("POST /api/v1/auth/google", server.HandleGoogleLogin())
	mux.HandleFunc("POST /api/v1/auth/refresh", server.HandleRefresh())
	mux.HandleFunc("POST /api/v1/auth/logout", server.HandleLogout())
	mux.HandleFunc("GET /api/v1/auth/me", auth.RequireAuth(server.HandleMe()))

	// Users
	mux.HandleFunc("GET /api/v1/users/me", auth.RequireAuth(server.HandleMyProfile()))
	mux.HandleFunc("PUT /api/v1/users/me", auth.RequireAuth(server.HandleUpdateMyProfile()))
	mux.HandleFunc("GET /api/v1/users/me/posts", auth.RequireAuth(server.HandleMyPosts()))
	mux.HandleFunc("GET /api/v1/users/{id}", server.HandleGetUser())
	mux.HandleFunc("GET /api/v1/users/{id}/posts", server.HandleUserPosts())

	// Posts
	mux.HandleFunc("GET /api/v1/posts", auth.OptionalAuth(server.HandleListPosts()))
	mux.HandleFunc("POST /api/v1/posts", auth.RequireAuth(server.HandleCreatePost()))
	mux.HandleFunc("GET /api/v1/posts/categories", server.HandleListCategories())
	mux.HandleFunc("GET /api/v1/posts/tags", server.HandleListTags())
	mux.HandleFunc("GET /api/v1/posts/{id}", auth.OptionalAuth(server.HandleGetPost()))
	mux.HandleFunc("PUT /api/v1/posts/{id}", auth.RequireAuth(server.HandleUpdatePost()))
	mux.HandleFunc("DELETE /api/v1/posts/{id}", auth.RequireAuth(server.HandleDeletePost()))
	mux.HandleFunc("POST /api/v1/posts/{id}/like", auth.RequireAuth(server.HandleLikePost()))
	mux.HandleFunc("DELETE /api/v1/posts/{id}/like", auth.RequireAuth(server.HandleLikePost()))

	// Comments
	mux.HandleFunc("POST /api/v1/comments", auth.RequireAuth(server.HandleCreateComment()))
	mux.HandleFunc("GET /api/v1/comments/post/{postID}", server.HandlePostComments())
	mux.HandleFunc("GET /api/v1/comments/post/{postID}/count", server.HandlePostCommentCount())
	mux.HandleFunc("GET /api/v1/comments/{id}", server.HandleGetComment())
	mux.HandleFunc("PUT /api/v1/comments/{id}", auth.RequireAuth(server.HandleEditComment()))
	mux.HandleFunc("DELETE /api/v1/comments/{id}", auth.RequireAuth(server.HandleDeleteComment()))

	// Uploads
	mux.HandleFunc("POST /api/v1/upload/profile-picture", auth.RequireAuth(server.HandleUploadProfilePicture()))
	mux.HandleFunc("POST /api/v1/upload/cover-image", auth.RequireAuth(server.HandleUploadCoverImage()))
	mux.HandleFunc("DELETE /api/v1/upload/image", auth.RequireAuth(server.HandleDeleteImage()))

	cors := middleware.CORSMiddleware(middleware.DefaultCORSConfig(cfg.AllowedOrigins))
	handler := cors(countRequests(metrics, mux))

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// countRequests feeds the request counter on every call.
func countRequests(metrics *utils.MetricsCollector, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.IncrementRequests()
		next.ServeHTTP(w, r)
	})
}
