// Seeds the clause exemplar corpus in Redis from a JSON file. Usage:
//
//	go run ./scripts/seed-corpus exemplars.json
//
// The file maps clause types to exemplar lists:
//
//	{"LIABILITY": [{"text": "...", "score": 0.9, "source": "playbook"}]}
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	appbootstrap "github.com/contractguard/contractguard/internal/app/bootstrap"
	appconfig "github.com/contractguard/contractguard/internal/config"
	"github.com/contractguard/contractguard/internal/contract"
	"github.com/contractguard/contractguard/internal/knowledge"
	"github.com/contractguard/contractguard/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal("usage: seed-corpus <exemplars.json>")
	}

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("read exemplars file: %v", err)
	}

	var byType map[string][]knowledge.Exemplar
	if err := json.Unmarshal(raw, &byType); err != nil {
		log.Fatalf("parse exemplars file: %v", err)
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := appbootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if client == nil {
		log.Fatal("redis is not reachable; set REDIS_ADDR")
	}
	corpus := knowledge.NewRedisCorpus(client)

	total := 0
	for rawType, exemplars := range byType {
		clauseType := contract.ClauseType(strings.ToUpper(strings.TrimSpace(rawType)))
		if err := corpus.Append(ctx, clauseType, exemplars); err != nil {
			log.Fatalf("seed %s: %v", clauseType, err)
		}
		total += len(exemplars)
		fmt.Printf("seeded %d exemplars for %s\n", len(exemplars), clauseType)
	}
	fmt.Printf("done: %d exemplars\n", total)
}
