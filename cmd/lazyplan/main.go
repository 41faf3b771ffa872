package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Joseda-hg/lazyplan/internal/cache"
	"github.com/Joseda-hg/lazyplan/internal/config"
	"github.com/Joseda-hg/lazyplan/internal/db"
	"github.com/Joseda-hg/lazyplan/internal/planner"
	"github.com/Joseda-hg/lazyplan/internal/tui"
	"github.com/Joseda-hg/lazyplan/internal/web"
)

func main() {
	configPathFlag := flag.String("config", "", "config file path")
	dbPathFlag := flag.String("db", "", "sqlite db path")
	webFlag := flag.Bool("web", false, "enable web server")
	webOnlyFlag := flag.Bool("web-only", false, "run web server only")
	portFlag := flag.Int("port", 0, "web server port")
	seedFlag := flag.Bool("seed", false, "insert sample records into an empty database")
	flag.Parse()

	cfgPath, err := resolveConfigPath(*configPathFlag)
	if err != nil {
		log.Fatal(err)
	}

	fileCfg, err := config.LoadFile(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if fileCfg.DBPath == "" {
		fileCfg.DBPath = filepath.Join(filepath.Dir(cfgPath), "lazyplan.db")
	}
	applyFlags(&fileCfg, *dbPathFlag, *webFlag, *portFlag)
	if err := config.Save(cfgPath, fileCfg); err != nil {
		log.Fatal(err)
	}

	cfg, err := config.ApplyEnv(fileCfg)
	if err != nil {
		log.Fatal(err)
	}
	// Flags win over the environment for this run.
	applyFlags(&cfg, *dbPathFlag, *webFlag || *webOnlyFlag, *portFlag)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}
	now := func() time.Time { return time.Now().In(loc) }

	store, closeStore, err := openStore(cfg, now)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	svc := planner.NewService(store, now)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seedFlag {
		n, err := svc.Seed(ctx)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("seeded %d records", n)
	}

	if cfg.WebEnabled {
		if !*webOnlyFlag {
			// Request logs would draw over the terminal UI.
			gin.DefaultWriter = io.Discard
		}
		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", cfg.WebPort),
			Handler: web.NewServer(svc, web.Options{
				RatePerSecond: cfg.RateLimitPerSecond,
				Burst:         cfg.RateLimitBurst,
				CORSOrigins:   cfg.CORSOrigins,
			}).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		if *webOnlyFlag {
			serve(ctx, srv)
			return
		}
		go serve(ctx, srv)
	}

	if err := tui.Run(svc, cfg.ParseDelay()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serve blocks until ctx is cancelled or the listener fails.
func serve(ctx context.Context, srv *http.Server) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("web shutdown error: %v", err)
		}
	}()

	log.Printf("Web server running at http://localhost%s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("web server error: %v", err)
	}
}

func applyFlags(cfg *config.Config, dbPath string, web bool, port int) {
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if web {
		cfg.WebEnabled = true
	}
	if port != 0 {
		cfg.WebPort = port
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

// openStore opens sqlite and puts the Redis list cache in front of it when
// an address is configured and reachable.
func openStore(cfg config.Config, now func() time.Time) (planner.Store, func(), error) {
	if err := config.EnsureDir(cfg.DBPath); err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	base := db.NewStore(sqlDB).WithClock(now)
	closeDB := func() { _ = sqlDB.Close() }

	if !cfg.RedisEnabled() {
		return base, closeDB, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("[cache] redis unavailable at %s, continuing without cache: %v", cfg.RedisAddr, err)
		_ = rdb.Close()
		return base, closeDB, nil
	}

	return cache.NewStore(base, rdb, cfg.CacheTTL()), func() {
		_ = rdb.Close()
		closeDB()
	}, nil
}
