package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"interval-collector/internal/collector"
	"interval-collector/internal/config"
	"interval-collector/internal/db"
	"interval-collector/internal/discord"
	"interval-collector/internal/riot"
	"interval-collector/internal/storage"
)

func main() {
	identitiesFile := flag.String("identities", "", "File with one Riot ID per line (overrides IDENTITIES_FILE)")
	riotID := flag.String("riot-id", "", "Collect a single Riot ID (e.g. 'Player#EUW') instead of the identities file")
	compress := flag.Bool("compress-archive", false, "Gzip closed archive files to cold storage on exit")
	skipKeyCheck := flag.Bool("skip-key-check", false, "Skip the startup API key validation")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.SetupLogging()
	if err := cfg.RequireAPIKey(); err != nil {
		log.Fatal(err)
	}

	webhook := discord.NewWebhookClient(cfg.DiscordWebhookURL)

	ctx := collector.SetupSignalHandler(context.Background(), nil)

	if !*skipKeyCheck {
		checkKey(ctx, cfg, webhook)
	}

	identities, err := loadIdentities(*riotID, *identitiesFile, cfg.IdentitiesFile)
	if err != nil {
		log.Fatalf("Failed to read identities: %v", err)
	}
	if len(identities) == 0 {
		log.Fatal("No identities to collect")
	}
	log.Printf("Loaded %d identities", len(identities))

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to set up rate limiting: %v", err)
	}
	defer closeLimiter()

	client, err := riot.NewClient(cfg.RiotAPIKey,
		riot.WithRegionalURL(riot.RegionalURL(cfg.RiotRouting)),
		riot.WithPlatformURL(riot.PlatformURL(cfg.RiotRegion)),
		riot.WithLimiter(limiter),
		riot.WithRetryAfter(cfg.RetryAfterDefault),
	)
	if err != nil {
		log.Fatalf("Failed to create Riot client: %v", err)
	}

	store, err := db.Open(ctx, cfg.DatabaseURL, cfg.DatabaseAuthToken)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	var opts []collector.Option
	if cfg.ArchivePath != "" {
		rotator, err := storage.NewFileRotator(cfg.ArchivePath)
		if err != nil {
			log.Fatalf("Failed to create archive: %v", err)
		}
		defer closeArchive(rotator, *compress)
		opts = append(opts, collector.WithArchive(rotator))
		log.Printf("Archiving raw payloads under %s", cfg.ArchivePath)
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	c := collector.New(client, store, collector.Config{
		MatchesPerPlayer: cfg.MatchesPerPlayer,
		QueueID:          cfg.QueueID,
		Region:           cfg.RiotRegion,
		SampleInterval:   cfg.SampleInterval,
		IdentityCooldown: cfg.IdentityCooldown,
	}, opts...)

	stats, runErr := c.Run(ctx, identities)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Errorf("Run stopped: %v", runErr)
	}

	for _, table := range []string{db.TableMatches, db.TableIntervals} {
		if n, err := store.Count(context.Background(), table); err == nil {
			log.Printf("Total rows in %s: %d", table, n)
		}
	}

	if cfg.DiscordWebhookURL != "" {
		// The run context may already be cancelled
		notifyCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := webhook.SendRunSummary(notifyCtx, discord.RunSummary{
			RunID:            stats.RunID,
			Identities:       stats.Identities,
			IdentitiesFailed: stats.IdentitiesFailed,
			MatchesSaved:     stats.MatchesSaved,
			MatchesSkipped:   stats.Skipped(),
			MatchesFailed:    stats.MatchesFailed,
			Snapshots:        stats.Snapshots,
			Runtime:          stats.Duration,
			Cancelled:        stats.Cancelled,
		})
		if err != nil {
			log.Warnf("Failed to send run summary: %v", err)
		}
	}
}

// checkKey exits when the key is rejected. A failed check is only logged.
func checkKey(ctx context.Context, cfg *config.Config, webhook *discord.WebhookClient) {
	err := riot.NewKeyValidator(cfg.RiotRegion).Check(ctx, cfg.RiotAPIKey)
	switch {
	case err == nil:
		log.Println("API key accepted")
	case errors.Is(err, riot.ErrInvalidKey):
		if cfg.DiscordWebhookURL != "" {
			if werr := webhook.SendKeyRejected(ctx, cfg.RiotAPIKey); werr != nil {
				log.Warnf("Failed to send key alert: %v", werr)
			}
		}
		log.Fatal("RIOT_API_KEY was rejected (401/403); regenerate it and retry")
	default:
		log.Warnf("Could not validate API key: %v (continuing)", err)
	}
}

func loadIdentities(riotID, flagPath, envPath string) ([]collector.Identity, error) {
	if riotID != "" {
		id, ok := collector.ParseIdentity(riotID)
		if !ok {
			return nil, fmt.Errorf("invalid Riot ID format '%s', expected 'GameName#TagLine'", riotID)
		}
		return []collector.Identity{id}, nil
	}
	path := envPath
	if flagPath != "" {
		path = flagPath
	}
	return collector.ReadIdentitiesFile(path)
}

// newLimiter shares the admission windows through Redis when REDIS_URL is set,
// otherwise keeps them in process.
func newLimiter(ctx context.Context, cfg *config.Config) (riot.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		return riot.Limiters{
			riot.NewWindow(cfg.RequestsPerSecond, time.Second, riot.WithWindowName("sec")),
			riot.NewWindow(cfg.RequestsPer2Min, 2*time.Minute, riot.WithWindowName("2min")),
		}, func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	prefix := "riot:ratelimit:" + cfg.RiotRegion
	short, err := riot.NewRedisWindow(&riot.RedisWindowConfig{
		Client: rdb, Key: prefix + ":sec", Limit: cfg.RequestsPerSecond, Width: time.Second,
	})
	if err != nil {
		rdb.Close()
		return nil, nil, err
	}
	long, err := riot.NewRedisWindow(&riot.RedisWindowConfig{
		Client: rdb, Key: prefix + ":2min", Limit: cfg.RequestsPer2Min, Width: 2 * time.Minute,
	})
	if err != nil {
		rdb.Close()
		return nil, nil, err
	}
	log.Printf("Using shared rate limit windows at %s", opt.Addr)
	return riot.Limiters{short, long}, func() { rdb.Close() }, nil
}

func closeArchive(rotator *storage.FileRotator, compress bool) {
	if err := rotator.Close(); err != nil {
		log.Printf("Error closing archive: %v", err)
	}
	if !compress {
		return
	}
	n, err := rotator.CompressWarm()
	if err != nil {
		log.Printf("Error compressing archive: %v", err)
		return
	}
	log.Printf("Compressed %d archive files", n)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Printf("Serving metrics on http://%s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("Metrics server stopped: %v", err)
	}
}

func init() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  collector [--identities=summoner_names.txt] [--compress-archive]")
		fmt.Fprintln(os.Stderr, "  collector --riot-id='Player#EUW'")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Settings come from the environment or .env (RIOT_API_KEY, DATABASE_URL, ...).")
		flag.PrintDefaults()
	}
}
