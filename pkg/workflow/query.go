package workflow

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"witsbot/pkg/checkpoint"
	"witsbot/pkg/errors"
	"witsbot/pkg/logger"
	"witsbot/pkg/pacing"
	"witsbot/pkg/portal"
	"witsbot/pkg/resume"
	"witsbot/pkg/retry"
	"witsbot/pkg/ui"
)

// QueryOptions configures the query submission workflow
type QueryOptions struct {
	// Queries are saved portal query names, run in this order unless shuffled
	Queries []string
	// Countries maps ISO3 code to the portal's display name
	Countries        map[string]string
	ShuffleQueries   bool
	ShuffleCountries bool
	RestartAttempts  int
}

// QuerySummary reports the outcome of one query
type QuerySummary struct {
	Query     string
	Done      int
	Failed    int
	Remaining int
	Duration  time.Duration
	Err       error
}

// QueryWorkflow submits every saved query for every configured country not yet done
type QueryWorkflow struct {
	driver  portal.Driver
	store   *checkpoint.Store
	pacer   pacing.Pacer
	policy  resume.Policy
	opts    QueryOptions
	logger  logger.Logger
	session *sessionKeeper

	// Progress, when set, prints a progress line after each submission
	Progress *ui.Progress
	// Rand drives shuffling; seeded from the clock when nil
	Rand *rand.Rand

	results []QuerySummary
}

// NewQueryWorkflow creates a query submission workflow
func NewQueryWorkflow(driver portal.Driver, store *checkpoint.Store, pacer pacing.Pacer, opts QueryOptions, log logger.Logger) *QueryWorkflow {
	if log == nil {
		log = logger.GetLogger()
	}
	if pacer == nil {
		pacer = pacing.Nop{}
	}
	if opts.RestartAttempts <= 0 {
		opts.RestartAttempts = 3
	}
	log = log.WithField("workflow", "query")
	return &QueryWorkflow{
		driver: driver,
		store:  store,
		pacer:  pacer,
		policy: resume.AtLeastOnceUntilConfirmed{},
		opts:   opts,
		logger: log,
		session: &sessionKeeper{
			driver:   driver,
			logger:   log,
			attempts: opts.RestartAttempts,
		},
	}
}

// SetRestartBackoff overrides the delay between session restart attempts
func (w *QueryWorkflow) SetRestartBackoff(b retry.BackoffStrategy) {
	w.session.backoff = b
}

// Results returns one summary per query attempted in the last Run
func (w *QueryWorkflow) Results() []QuerySummary {
	return w.results
}

func (w *QueryWorkflow) rng() *rand.Rand {
	if w.Rand == nil {
		w.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return w.Rand
}

// Run logs in and works through every query. It returns early only when the
// session cannot be recovered, progress cannot be recorded, or ctx is done.
func (w *QueryWorkflow) Run(ctx context.Context) (err error) {
	started := time.Now()
	w.results = nil
	logger.LogWorkflowStart(w.logger, "query", map[string]interface{}{
		"queries":   len(w.opts.Queries),
		"countries": len(w.opts.Countries),
	})
	defer func() { logger.LogWorkflowStop(w.logger, "query", time.Since(started), err) }()

	if err := w.session.open(ctx); err != nil {
		return err
	}
	defer w.session.close()

	queries := append([]string(nil), w.opts.Queries...)
	if w.opts.ShuffleQueries {
		w.rng().Shuffle(len(queries), func(i, j int) { queries[i], queries[j] = queries[j], queries[i] })
	}

	for _, q := range queries {
		summary := w.runQuery(ctx, q)
		w.results = append(w.results, summary)
		if summary.Err == nil {
			continue
		}
		if IsFatal(summary.Err) || ctx.Err() != nil {
			return summary.Err
		}
		w.logger.WithError(summary.Err).WithField("query", q).Error("Query stopped, moving on")
	}
	return nil
}

func (w *QueryWorkflow) runQuery(ctx context.Context, query string) (summary QuerySummary) {
	started := time.Now()
	summary.Query = query
	defer func() { summary.Duration = time.Since(started) }()
	log := w.logger.WithField("query", query)

	done, err := w.store.Load(checkpoint.QueryDone(query))
	if err != nil {
		summary.Err = err
		return summary
	}

	codes := make([]string, 0, len(w.opts.Countries))
	for code := range w.opts.Countries {
		codes = append(codes, code)
	}
	var remaining []string
	if w.opts.ShuffleCountries {
		remaining = resume.RemainingShuffled(codes, w.rng(), done)
	} else {
		remaining = resume.Remaining(codes, resume.OrderSorted, done)
	}
	summary.Remaining = len(remaining)

	log.InfoWithFields(fmt.Sprintf("Found %d completed countries, %d remaining", done.Len(), len(remaining)), map[string]interface{}{
		"completed": done.Len(),
		"remaining": len(remaining),
	})
	if w.Progress != nil {
		w.Progress.Reset(query, len(remaining))
	}

	streak := 0
	var total time.Duration
	for _, code := range remaining {
		if err := ctx.Err(); err != nil {
			summary.Err = err
			return summary
		}

		countryStarted := time.Now()
		err := w.submitCountry(ctx, query, code, w.opts.Countries[code])
		elapsed := time.Since(countryStarted)

		if !w.policy.ConfirmsSubmission(err) {
			summary.Failed++
			logger.LogCountryResult(log, query, code, elapsed, 0, err)
			if aerr := w.store.Append(checkpoint.QueryFailed(query), code); aerr != nil {
				log.WithError(aerr).Warn("Failed to record failed country")
			}
			streak = 0
			log.Warn("Restarting session after failed country")
			if rerr := w.session.restart(ctx); rerr != nil {
				summary.Err = rerr
				return summary
			}
			continue
		}

		if err := w.store.Append(checkpoint.QueryDone(query), code); err != nil {
			summary.Err = err
			return summary
		}
		summary.Done++
		summary.Remaining--
		total += elapsed
		logger.LogCountryResult(log, query, code, elapsed, total/time.Duration(summary.Done), nil)

		if w.Progress != nil {
			w.Progress.Increment()
			w.Progress.Print()
		}

		streak++
		if err := w.pacer.Pause(ctx, streak); err != nil {
			summary.Err = err
			return summary
		}
	}
	return summary
}

// submitCountry runs the four portal steps for one country, stopping at the first failure
func (w *QueryWorkflow) submitCountry(ctx context.Context, query, code, name string) error {
	s := w.session.current
	steps := []struct {
		name    string
		errType errors.ErrorType
		run     func() error
	}{
		{"navigate advanced query", errors.ErrorTypeNavigation, func() error {
			return w.driver.Navigate(ctx, s, portal.DestinationAdvancedQuery)
		}},
		{"select query", errors.ErrorTypeInteraction, func() error {
			return w.driver.SelectQuery(ctx, s, query)
		}},
		{"select country", errors.ErrorTypeInteraction, func() error {
			return w.driver.SubmitCountrySelection(ctx, s, code, name)
		}},
		{"submit form", errors.ErrorTypeInteraction, func() error {
			return w.driver.SubmitForm(ctx, s)
		}},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			return errors.Wrap(err, step.errType, step.name)
		}
	}
	return nil
}
