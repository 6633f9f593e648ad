package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"interval-collector/internal/collector"
	"interval-collector/internal/config"
	"interval-collector/internal/riot"
)

// rankcheck shows the rank label a collection run would attach to a match
// in which the given player is the first participant.
func main() {
	riotID := flag.String("riot-id", "", "Riot ID in format 'GameName#TagLine'")
	flag.Parse()

	if *riotID == "" {
		fmt.Println("Usage: go run ./cmd/rankcheck --riot-id=\"PlayerName#EUW\"")
		os.Exit(1)
	}

	id, ok := collector.ParseIdentity(*riotID)
	if !ok {
		log.Fatalf("Invalid Riot ID format. Expected 'GameName#TagLine', got: %s", *riotID)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.SetupLogging()
	if err := cfg.RequireAPIKey(); err != nil {
		log.Fatal(err)
	}

	client, err := riot.NewClient(cfg.RiotAPIKey,
		riot.WithRegionalURL(riot.RegionalURL(cfg.RiotRouting)),
		riot.WithPlatformURL(riot.PlatformURL(cfg.RiotRegion)),
	)
	if err != nil {
		log.Fatalf("Failed to create Riot client: %v", err)
	}

	ctx := context.Background()

	fmt.Printf("\n1. Looking up account: %s\n", id)
	account, err := client.GetAccountByRiotID(ctx, id.GameName, id.TagLine)
	if err != nil {
		log.Fatalf("Failed to get account: %v", err)
	}
	fmt.Printf("   PUUID: %s...\n", account.PUUID[:min(8, len(account.PUUID))])

	fmt.Printf("\n2. Getting ranked entries...\n")
	entries, err := client.GetRankedEntriesByPUUID(ctx, account.PUUID)
	if err != nil {
		log.Fatalf("Failed to get ranked entries: %v", err)
	}

	if len(entries) == 0 {
		fmt.Println("   No ranked entries found")
	}
	for _, entry := range entries {
		queueName := entry.QueueType
		switch entry.QueueType {
		case riot.QueueRankedSolo:
			queueName = "Solo/Duo"
		case riot.QueueRankedFlex:
			queueName = "Flex"
		}
		fmt.Printf("   %s: %s %s (%d LP) - %dW %dL\n",
			queueName, entry.Tier, entry.Rank, entry.LeaguePoints, entry.Wins, entry.Losses)
	}

	fmt.Printf("\n3. Match rank label...\n")
	tier, division, hasRank, err := client.GetSoloQueueRank(ctx, account.PUUID)
	if err != nil {
		log.Fatalf("Failed to get solo queue rank: %v", err)
	}
	if !hasRank {
		fmt.Printf("   %s (no solo queue entry)\n", riot.Unranked)
	} else {
		fmt.Printf("   %s (solo queue %s %s)\n", tier, tier, division)
	}
}
