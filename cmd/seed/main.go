package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"question-bank-service/internal/config"
	"question-bank-service/internal/domain/model"
	pg "question-bank-service/internal/infra/db/postgres"
)

// Seeds a handful of pending generation jobs so a local worker loop has
// something to chew on.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	count := flag.Int("n", 3, "number of demo jobs to enqueue")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if err := pg.ApplySchema(ctx, pool, cfg.Database.HistoryTable); err != nil {
		log.Fatalf("apply schema: %v", err)
	}

	repo := pg.NewGenerationJobRepo(pool, pg.NewTxManager(pool))
	for i := 0; i < *count; i++ {
		job := model.NewGenerationJob(uuid.NewString(), "seed", model.GenerationParams{
			ContentID:          fmt.Sprintf("demo-content-%d", i+1),
			ChapterName:        "Photosynthesis",
			LearningObjectives: []string{"explain light reactions"},
			TotalQuestions:     4,
			TypeDistribution:   map[string]int{"mcq": 2, "tf": 1, "fib": 1},
		})
		if err := repo.Create(ctx, nil, job); err != nil {
			log.Fatalf("create job: %v", err)
		}
		fmt.Printf("seeded: session=%s content=%s\n", job.SessionID, job.Params.ContentID)
	}

	fmt.Println("✅ Seeding complete.")
}
