// Package jobs hosts background work that runs outside the live turn.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"salespilot/internal/classify"
	"salespilot/internal/db"
	"salespilot/internal/email"
	"salespilot/internal/metrics"
	"salespilot/internal/models"
)

// ClassifyRunner walks leads with unclassified recent activity and runs
// the outcome classifier over each one. Batches are chunked-parallel with
// an explicit pause between batches: the delay is backpressure toward the
// external model provider, not an incidental wait.
type ClassifyRunner struct {
	db          *db.DB
	classifier  *classify.Classifier
	notifier    *email.Notifier
	interval    time.Duration
	pause       time.Duration
	batchSize   int
	parallelism int
	log         *slog.Logger
}

// NewClassifyRunner creates a runner. interval of zero disables the
// periodic loop; RunTenant can still be called on demand. notifier may be
// nil when operator alerts are not configured.
func NewClassifyRunner(database *db.DB, classifier *classify.Classifier, notifier *email.Notifier, interval, pause time.Duration, batchSize, parallelism int, log *slog.Logger) *ClassifyRunner {
	if batchSize <= 0 {
		batchSize = 20
	}
	if parallelism <= 0 {
		parallelism = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &ClassifyRunner{
		db:          database,
		classifier:  classifier,
		notifier:    notifier,
		interval:    interval,
		pause:       pause,
		batchSize:   batchSize,
		parallelism: parallelism,
		log:         log.With("component", "classify_runner"),
	}
}

// Start begins the periodic classification loop.
func (r *ClassifyRunner) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	r.log.Info("classification runner started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("classification runner stopped")
			return
		case <-ticker.C:
			r.runAll(ctx)
		}
	}
}

func (r *ClassifyRunner) runAll(ctx context.Context) {
	tenants, err := r.db.ListTenantIDs(ctx)
	if err != nil {
		r.log.Error("failed to list tenants", "error", err)
		return
	}
	for _, tenantID := range tenants {
		if ctx.Err() != nil {
			return
		}
		if _, err := r.RunTenant(ctx, tenantID); err != nil {
			r.log.Error("tenant classification failed", "tenant_id", tenantID, "error", err)
		}
	}
}

// RunTenant classifies every pending lead for one tenant and returns how
// many leads were processed.
func (r *ClassifyRunner) RunTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	// maxBatches bounds one run so a lead that repeatedly fails to
	// persist cannot spin the loop forever.
	const maxBatches = 50

	processed := 0
	for batch := 0; batch < maxBatches; batch++ {
		leads, err := r.db.ListLeadsForClassification(ctx, tenantID, r.batchSize)
		if err != nil {
			return processed, err
		}
		if len(leads) == 0 {
			return processed, nil
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.parallelism)
		for i := range leads {
			lead := leads[i]
			g.Go(func() error {
				r.classifyLead(gctx, &lead)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return processed, err
		}
		processed += len(leads)

		if len(leads) < r.batchSize {
			return processed, nil
		}

		// Inter-batch delay to respect external provider limits.
		select {
		case <-ctx.Done():
			return processed, ctx.Err()
		case <-time.After(r.pause):
		}
	}
	return processed, nil
}

// classifyLead classifies a single lead. It never fails the batch: a
// model failure already degrades to warm inside the classifier, and an
// apply failure is logged so the rest of the batch proceeds.
func (r *ClassifyRunner) classifyLead(ctx context.Context, lead *models.Lead) {
	if lead.ConversationID == nil {
		return
	}

	history, err := r.db.GetHistory(ctx, *lead.ConversationID)
	if err != nil {
		r.log.Error("failed to load history", "lead_id", lead.ID, "error", err)
		return
	}
	if len(history) == 0 {
		return
	}

	out := r.classifier.Classify(ctx, classify.TurnsFromMessages(history))
	metrics.RecordClassification(string(out.Classification))

	changed, err := r.classifier.Apply(ctx, lead, out)
	if err != nil {
		r.log.Error("failed to apply classification", "lead_id", lead.ID, "error", err)
		return
	}

	if changed && out.Classification == classify.Hot && r.notifier != nil {
		tenant, err := r.db.GetTenant(ctx, lead.TenantID)
		if err != nil {
			r.log.Error("failed to load tenant for alert", "lead_id", lead.ID, "error", err)
			return
		}
		r.notifier.NotifyHotLead(tenant, lead, out.Reason)
	}
}
