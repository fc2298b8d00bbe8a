package smoke

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/odinsy/topheats-rating/internal/adapters/output"
	"github.com/odinsy/topheats-rating/pkg/logger"
)

const (
	defaultWorkers = 4
	defaultTimeout = 10 * time.Second
)

// Run checks the server at cfg.BaseURL. It returns the report together with
// ErrProblems when any ranking failed verification.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	report := Report{
		RequestID: uuid.NewString(),
		BaseURL:   cfg.BaseURL,
		Started:   time.Now(),
	}
	log := logger.Get().With(logger.String("request_id", report.RequestID))
	c := newClient(cfg.BaseURL, report.RequestID, cfg.Timeout)

	log.Info(ctx, "checking service health", logger.String("url", cfg.BaseURL))
	if err := c.get(ctx, "/healthz", nil); err != nil {
		return report, fmt.Errorf("health check: %w", err)
	}

	var list rankingList
	if err := c.get(ctx, "/rankings", &list); err != nil {
		return report, fmt.Errorf("list rankings: %w", err)
	}
	if len(list.Rankings) == 0 {
		return report, ErrNoRankings
	}

	results := make([]RankingReport, len(list.Rankings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, entry := range list.Rankings {
		g.Go(func() error {
			rr, err := checkRanking(gctx, c, entry.ID, cfg.Sample)
			if err != nil {
				return fmt.Errorf("ranking %s: %w", entry.ID, err)
			}
			results[i] = rr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	report.Rankings = results
	for _, rr := range results {
		report.Problems += len(rr.Problems)
		for _, p := range rr.Problems {
			log.Warn(ctx, "verification problem", logger.String("ranking", rr.ID), logger.String("problem", p))
		}
	}
	report.Duration = time.Since(report.Started)

	if cfg.Output != "" {
		if err := output.WriteJSON(cfg.Output, report); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}

	log.Info(ctx, "smoke check finished",
		logger.Int("rankings", len(report.Rankings)),
		logger.Int("problems", report.Problems),
		logger.Duration("took", report.Duration))
	if report.Problems > 0 {
		return report, fmt.Errorf("%w: %d", ErrProblems, report.Problems)
	}
	return report, nil
}

func checkRanking(ctx context.Context, c *client, id string, sample int) (RankingReport, error) {
	var r ranking
	if err := c.get(ctx, rankingPath(id), &r); err != nil {
		return RankingReport{}, err
	}
	rr := RankingReport{ID: id, Athletes: len(r.Athletes), Problems: verifyOrder(r)}

	athletes := r.Athletes
	if sample > 0 && sample < len(athletes) {
		athletes = athletes[:sample]
	}
	for _, a := range athletes {
		var detail athlete
		if err := c.get(ctx, athletePath(id, a.Name), &detail); err != nil {
			rr.Problems = append(rr.Problems, fmt.Sprintf("%s: %v", a.Name, err))
			continue
		}
		if detail.Best != a.Best {
			rr.Problems = append(rr.Problems, fmt.Sprintf("%s: ranking and athlete endpoints disagree on best result", a.Name))
		}
		rr.Problems = append(rr.Problems, verifyAthlete(detail)...)
		rr.Checked++
	}
	return rr, nil
}
