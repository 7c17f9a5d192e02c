package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"fibra-quiz-service/internal/config"
	"fibra-quiz-service/internal/content"
	"fibra-quiz-service/internal/domain"
	"fibra-quiz-service/internal/infra/postgres"
	redisstore "fibra-quiz-service/internal/infra/redis"
	"fibra-quiz-service/internal/logging"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// questionCache is the part of a question cache the import command clears.
type questionCache interface {
	Invalidate(ctx context.Context, subject domain.Subject) error
}

// invalidateQuestions drops cached question sets for freshly imported subjects
// so a server sharing the cache never serves rows from before the import.
// Failures are logged; the cache entries still expire on their own.
func invalidateQuestions(ctx context.Context, cache questionCache, subjects []domain.Subject, log *zap.Logger) int {
	cleared := 0
	for _, subject := range subjects {
		if err := cache.Invalidate(ctx, subject); err != nil {
			log.Warn("invalidate cached questions failed", zap.Stringer("subject", subject), zap.Error(err))
			continue
		}
		cleared++
	}
	return cleared
}

// NewImportCmd loads a YAML content file into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	var sample bool
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import courses, lessons, challenges and exams from YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !sample {
				return fmt.Errorf("pass a content file or --sample")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logging.New(cfg.Log.Level, cfg.Log.File)
			defer log.Sync()

			doc := content.Sample()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				if doc, err = content.Parse(f); err != nil {
					return err
				}
			}

			db, err := openBunDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := runMigrations(cmd.Context(), db, log); err != nil {
				return err
			}

			stats, err := postgres.NewImporter(db).Import(cmd.Context(), doc)
			if err != nil {
				return err
			}
			log.Info("content imported",
				zap.Int("courses", stats.Courses),
				zap.Int("units", stats.Units),
				zap.Int("lessons", stats.Lessons),
				zap.Int("challenges", stats.Challenges),
				zap.Int("options", stats.Options),
				zap.Int("exams", stats.Exams),
			)

			if cfg.Redis.Addr != "" {
				client := redis.NewClient(&redis.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				defer client.Close()
				cache := redisstore.NewQuestionRepository(client, nil, config.TTLDuration(cfg.Questions.TTL, 10*time.Minute), log)
				cleared := invalidateQuestions(cmd.Context(), cache, stats.Subjects, log)
				log.Info("question cache cleared", zap.Int("subjects", cleared))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&sample, "sample", false, "import the bundled sample course")
	return cmd
}
