package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/cors"
	"github.com/stripe/stripe-go/v82"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/finwise-app/finwise/backend/internal/auth"
	"github.com/finwise-app/finwise/backend/internal/cache"
	"github.com/finwise-app/finwise/backend/internal/extraction"
	"github.com/finwise-app/finwise/backend/internal/jobs"
	"github.com/finwise-app/finwise/backend/internal/queue"
	"github.com/finwise-app/finwise/backend/internal/search"
	"github.com/finwise-app/finwise/backend/internal/service"
	"github.com/finwise-app/finwise/backend/internal/store"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8111"
	}

	ctx := context.Background()

	useMemoryStore := os.Getenv("USE_MEMORY_STORE") == "true" || os.Getenv("ENV") == "local"
	skipAuth := os.Getenv("SKIP_AUTH") == "true"

	var storeImpl store.Store
	var firebaseAuth *auth.FirebaseAuth

	if useMemoryStore {
		log.Println("Using in-memory store for local development")
		storeImpl = store.NewMemoryStore()
		firebaseAuth = nil
	} else {
		projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
		if projectID == "" {
			log.Fatal("GOOGLE_CLOUD_PROJECT is required when not using the memory store")
		}

		firestoreClient, err := firestore.NewClient(ctx, projectID)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}
		defer firestoreClient.Close()
		storeImpl = store.NewFirestoreStore(firestoreClient)

		if skipAuth {
			log.Println("SKIP_AUTH enabled - using mock authentication (for seeding/testing only)")
		} else {
			firebaseAuth, err = auth.NewFirebaseAuth(ctx)
			if err != nil {
				log.Fatalf("Failed to initialize Firebase Auth: %v", err)
			}
		}
	}

	// Optional Algolia transaction index. Unconfigured falls back to store
	// scan search and disables ingest indexing.
	var searchClient *search.AlgoliaClient
	if appID := os.Getenv("ALGOLIA_APP_ID"); appID != "" {
		var err error
		searchClient, err = search.NewAlgoliaClient(search.Config{
			AppID:     appID,
			APIKey:    os.Getenv("ALGOLIA_API_KEY"),
			IndexName: os.Getenv("ALGOLIA_INDEX_NAME"),
		})
		if err != nil {
			log.Fatalf("Failed to create Algolia client: %v", err)
		}
		log.Println("Algolia search enabled")
	}

	// Background job dispatcher.
	dispatcher := queue.NewDispatcher(4, 256)
	var indexer jobs.Indexer
	if searchClient != nil {
		indexer = searchClient
	}
	jobs.New(storeImpl, indexer).RegisterHandlers(dispatcher)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// PDF extraction subprocess runner.
	pdfextractBin := os.Getenv("PDFEXTRACT_BIN")
	if pdfextractBin == "" {
		pdfextractBin = "pdfextract"
	}
	runner := extraction.NewRunner(pdfextractBin)

	var searcher service.Searcher
	if searchClient != nil {
		searcher = searchClient
	}
	svc := service.New(storeImpl, cache.New(), dispatcher, runner, searcher)

	if stripeKey := os.Getenv("STRIPE_SECRET_KEY"); stripeKey != "" {
		stripe.Key = stripeKey
		svc.WithBilling(service.NewStripeClient(
			os.Getenv("STRIPE_PLUS_PRICE_ID"),
			os.Getenv("STRIPE_PRO_PRICE_ID"),
		))
		log.Println("Stripe billing enabled")
	}

	mux := http.NewServeMux()
	svc.Routes(mux)

	if webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET"); webhookSecret != "" {
		webhookHandler := service.NewStripeWebhookHandler(storeImpl, webhookSecret)
		mux.HandleFunc("POST /v1/stripe/webhook", webhookHandler.HandleWebhook)
		log.Println("Stripe webhook enabled")
	}

	// Auth middleware chain: token verification (or local-dev mock), then
	// plan resolution.
	var authMiddleware func(http.Handler) http.Handler
	if firebaseAuth != nil {
		authMiddleware = auth.Middleware(firebaseAuth)
	} else {
		log.Println("Using mock authentication")
		authMiddleware = auth.LocalDevMiddleware()
	}
	handler := authMiddleware(auth.PlanMiddleware(storeImpl)(mux))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:1234",
			"http://127.0.0.1:1234",
			"https://finwise.app",
			"https://www.finwise.app",
			"https://*.vercel.app",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"User-Agent",
			"X-Debug-Impersonate-User",
		},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: h2c.NewHandler(c.Handler(handler), &http2.Server{}),
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
