package main

import (
	"context"
	"log"
	"net/http"

	"github.com/PabloGalante/anota/internal/adapters/auth"
	"github.com/PabloGalante/anota/internal/adapters/calendar"
	httpadapter "github.com/PabloGalante/anota/internal/adapters/http"
	"github.com/PabloGalante/anota/internal/adapters/llm"
	firestorebackend "github.com/PabloGalante/anota/internal/adapters/storage/firestore"
	memorybackend "github.com/PabloGalante/anota/internal/adapters/storage/memory"
	"github.com/PabloGalante/anota/internal/adapters/tokencache"
	"github.com/PabloGalante/anota/internal/app/assist"
	appsync "github.com/PabloGalante/anota/internal/app/sync"
	"github.com/PabloGalante/anota/internal/config"
	"github.com/PabloGalante/anota/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Credential cache: Redis when configured, process memory otherwise
	var cache domain.CredentialCache
	if cfg.RedisURL != "" {
		log.Println("[CACHE] Using Redis credential cache")
		redisCache, err := tokencache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Fatalf("error initializing Redis cache: %v", err)
		}
		defer redisCache.Close()
		cache = redisCache
	} else {
		log.Println("[CACHE] Using in-memory credential cache")
		cache = tokencache.NewMemoryCache()
	}

	// Identity provider
	var provider domain.AuthProvider
	switch cfg.AuthProvider {
	case "google":
		log.Println("[AUTH] Using Google identity provider")
		provider = auth.NewGoogleProvider(cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthRedirectURL, cache)
	default:
		log.Println("[AUTH] Using stub identity provider")
		provider = auth.NewStubProvider()
	}

	// Remote backend factory: Firestore or a second in-memory store (dev)
	var newRemote func(owner domain.UserID) (domain.Backend, error)
	switch cfg.StorageBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore remote backend (project=%s)", cfg.GCPProjectID)
		client, err := firestorebackend.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore client: %v", err)
		}
		defer client.Close()
		newRemote = func(owner domain.UserID) (domain.Backend, error) {
			return firestorebackend.NewBackend(client, owner), nil
		}
	default:
		log.Println("[STORE] Using in-memory remote backend")
		newRemote = func(owner domain.UserID) (domain.Backend, error) {
			return memorybackend.NewEmptyBackend(), nil
		}
	}

	// Text generation: Gemini or mock
	var generator domain.TextGenerator
	if cfg.UseMockLLM {
		log.Println("[LLM] Using mock text generator")
		generator = llm.NewMockGenerator()
	} else {
		log.Println("[LLM] Using Gemini text generator")
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.ModelName)
		if err != nil {
			log.Fatalf("error initializing Gemini client: %v", err)
		}
		generator = gemini
	}

	engine := appsync.NewEngine(appsync.Options{
		Provider:         provider,
		Events:           calendar.NewGoogleSource(cache),
		NewGuestBackend:  func() domain.Backend { return memorybackend.NewBackend() },
		NewRemoteBackend: newRemote,
	})
	go engine.Run(ctx)

	assistSvc := assist.NewService(generator)
	handler := httpadapter.NewServer(engine, assistSvc)

	port := ":" + cfg.Port
	log.Println("Anota listening on port:", port)
	if err := http.ListenAndServe(port, handler); err != nil {
		log.Fatal(err)
	}
}
