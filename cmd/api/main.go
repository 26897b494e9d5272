package main

import (
	"context"
	"log"
	"time"

	"github.com/stavlog/stavlog-backend/config"
	"github.com/stavlog/stavlog-backend/internal/auth"
	"github.com/stavlog/stavlog-backend/internal/bootstrap"
	cronjob "github.com/stavlog/stavlog-backend/internal/cron"
	"github.com/stavlog/stavlog-backend/internal/prefs"
	"github.com/stavlog/stavlog-backend/internal/realtime"
	"github.com/stavlog/stavlog-backend/internal/remote"
	"github.com/stavlog/stavlog-backend/internal/snapshot"
	"github.com/stavlog/stavlog-backend/internal/storage/objects"
	"github.com/stavlog/stavlog-backend/internal/storage/postgres"

	"github.com/stavlog/stavlog-backend/internal/clients"
	"github.com/stavlog/stavlog-backend/internal/contractors"
	"github.com/stavlog/stavlog-backend/internal/invoices"
	"github.com/stavlog/stavlog-backend/internal/pricelist"
	"github.com/stavlog/stavlog-backend/internal/projects"
	"github.com/stavlog/stavlog-backend/internal/rooms"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	var authClient *firebaseauth.Client
	if cfg.Firebase.CredentialsPath != "" {
		authClient, err = auth.InitializeFirebase(&cfg.Firebase)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
	} else {
		log.Println("FIREBASE_CREDENTIALS_PATH not set, running without token verification")
	}

	// Writes always go through PostgREST, whichever read backend is active.
	apiKey := cfg.Supabase.ServiceKey
	if apiKey == "" {
		apiKey = cfg.Supabase.AnonKey
	}
	writer, err := remote.NewClient(remote.ClientConfig{
		ProjectURL: cfg.Supabase.ProjectURL,
		APIKey:     apiKey,
	})
	if err != nil {
		log.Fatalf("remote client: %v", err)
	}

	var source snapshot.RemoteSource = writer
	var pool *pgxpool.Pool
	if cfg.Sync.Backend == "postgres" {
		pg, err := postgres.Open(cfg.Database.DSN())
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		source = pg

		pool, err = bootstrap.OpenDB(ctx, cfg.Database)
		if err != nil {
			log.Printf("health pool unavailable: %v", err)
		} else {
			defer pool.Close()
		}
	}

	var prefStore *prefs.Store
	if rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis); err != nil {
		log.Printf("redis unavailable, preferences disabled: %v", err)
	} else {
		defer rdb.Close()
		prefStore = prefs.NewStore(rdb, writer)
	}

	photos, err := objects.NewPhotoStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("photo storage: %v", err)
	}

	var prefSource snapshot.Preferences
	if prefStore != nil {
		prefSource = prefStore
	}
	store := snapshot.NewStore(source, prefSource, snapshot.DefaultRoutes(), snapshot.StoreOptions{
		PrefetchRate:  cfg.Sync.PrefetchRate,
		PrefetchBurst: cfg.Sync.PrefetchBurst,
	})

	if cfg.Sync.UserID != "" {
		loadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		if err := store.Load(loadCtx, cfg.Sync.UserID); err != nil {
			log.Printf("initial load failed, starting on empty snapshot: %v", err)
		}
		cancel()
	} else {
		log.Println("SYNC_USER_ID not set, starting on empty snapshot")
	}

	// Connect the change feed only after the initial load settled, so the
	// first batch reconciles against real state instead of racing the loader.
	feed, err := realtime.New(realtime.Config{
		ProjectURL: cfg.Supabase.ProjectURL,
		APIKey:     apiKey,
		Tables: []string{
			contractors.Table,
			contractors.SettingsTable,
			clients.Table,
			projects.Table,
			rooms.Table,
			rooms.WorkItemsTable,
			invoices.Table,
			pricelist.Table,
			"user_prefs",
		},
		FlushInterval: cfg.Sync.FlushInterval,
	}, store.ApplyBatch)
	if err != nil {
		log.Fatalf("realtime: %v", err)
	}
	if err := feed.Connect(ctx); err != nil {
		log.Printf("realtime connect failed, serving without live updates: %v", err)
	} else {
		defer feed.Close()
	}

	scheduler := cronjob.NewScheduler(store, cfg.Sync.UserID)
	scheduler.Start()
	defer scheduler.Stop()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "stavlog-backend",
		Version:     cfg.App.Version,
		Auth:        authClient,
		Store:       store,
		Writer:      writer,
		Photos:      photos,
		Prefs:       prefStore,
		DB:          pool,
	})

	log.Printf("stavlog-backend %s listening on :%s", cfg.App.Version, cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
