// Package orchestrator runs the pipeline: cleanup, ingestion and stage
// progression of every active work item.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"finshorts/author"
	"finshorts/common"
	"finshorts/config"
	"finshorts/deduplication"
	"finshorts/logging"
	"finshorts/outputs"
	"finshorts/rssfeeds"
	"finshorts/shared/kafka"
	"finshorts/types"
	"finshorts/workitems"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ErrRunInProgress means another process or goroutine holds the run lock.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Item outcome statuses.
const (
	OutcomePublished = "published"
	OutcomeAdvanced  = "advanced"
	OutcomeWaiting   = "waiting"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Ingest is the news ingestion step.
type Ingest interface {
	Run(ctx context.Context) (*rssfeeds.IngestResult, error)
}

// ItemOutcome is what one run did to one work item.
type ItemOutcome struct {
	WorkItemID string      `json:"work_item_id"`
	Title      string      `json:"title"`
	From       types.Stage `json:"from"`
	To         types.Stage `json:"to"`
	Status     string      `json:"status"`
	Error      string      `json:"error,omitempty"`
	VideoURL   string      `json:"video_url,omitempty"`
}

// CleanupResult counts what the retention pass removed.
type CleanupResult struct {
	OutputDirs   []string `json:"output_dirs,omitempty"`
	HashesPruned int      `json:"hashes_pruned"`
	WorkItems    []string `json:"work_items,omitempty"`
	LogsRemoved  int      `json:"logs_removed"`
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	RunID      string                 `json:"run_id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Cleanup    *CleanupResult         `json:"cleanup,omitempty"`
	Ingest     *rssfeeds.IngestResult `json:"ingest,omitempty"`
	Items      []ItemOutcome          `json:"items"`

	Processed int `json:"processed"`
	Advanced  int `json:"advanced"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
	Rejected  int `json:"rejected"`
}

func (r *RunResult) add(o ItemOutcome) {
	r.Items = append(r.Items, o)
	r.Processed++
	switch o.Status {
	case OutcomePublished:
		r.Published++
	case OutcomeAdvanced:
		r.Advanced++
	case OutcomeFailed:
		r.Failed++
	case OutcomeRejected:
		r.Rejected++
	}
}

// Pipeline wires the stages together. Stages missing from Stages (for
// example publishing when it is disabled) leave items waiting at the stage
// before.
type Pipeline struct {
	Config   *config.Config
	Store    *workitems.Store
	Records  *deduplication.Records // nil skips hash pruning
	Ingester Ingest                 // nil skips ingestion
	Stages   []Stage
	Events   kafka.EventPublisher   // nil publishes nothing
	Mirror   *common.ArtifactMirror // nil mirrors nothing
	State    *Manager
	Logger   *slog.Logger
	Now      func() time.Time

	// ActiveLog is exempt from log retention.
	ActiveLog string
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) lockPath() string {
	return filepath.Join(p.Config.DataRoot(), config.LockFile)
}

func (p *Pipeline) acquire() (*flock.Flock, error) {
	if err := os.MkdirAll(p.Config.DataRoot(), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	lock := flock.New(p.lockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}
	if !locked {
		return nil, ErrRunInProgress
	}
	return lock, nil
}

// RunOnce performs one full pipeline run under the run lock.
func (p *Pipeline) RunOnce(ctx context.Context) (*RunResult, error) {
	lock, err := p.acquire()
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()
	return p.run(ctx, uuid.NewString())
}

// Start takes the run lock and runs the pipeline in the background. It
// returns the run id, or ErrRunInProgress without starting anything.
func (p *Pipeline) Start(ctx context.Context) (string, error) {
	lock, err := p.acquire()
	if err != nil {
		return "", err
	}
	runID := uuid.NewString()
	go func() {
		defer lock.Unlock()
		if _, err := p.run(ctx, runID); err != nil {
			p.Logger.Error("background run failed", "run_id", runID, "error", err)
		}
	}()
	return runID, nil
}

func (p *Pipeline) run(ctx context.Context, runID string) (*RunResult, error) {
	res := &RunResult{RunID: runID, StartedAt: p.now().UTC()}
	logger := p.Logger.With("component", "orchestrator", "run_id", runID)
	p.State.Start(runID)
	logger.Info("pipeline run started")

	cleanup, err := p.Cleanup(ctx)
	if err != nil {
		logger.Warn("cleanup incomplete", "error", err)
	}
	res.Cleanup = cleanup

	if p.Ingester != nil {
		p.State.SetState(StateIngesting)
		ingest, err := p.Ingester.Run(ctx)
		if err != nil {
			logger.Error("ingestion failed", "error", err)
			p.State.AddLog("ingestion failed: %v", err)
		}
		res.Ingest = ingest
		if ingest != nil {
			p.State.AddLog("ingested %d new items (%d duplicates)", ingest.Created, ingest.Duplicates)
		}
	}

	p.State.SetState(StateProcessing)
	items, listErrs := p.Store.List()
	for _, lerr := range listErrs {
		logger.Warn("unreadable work item", "error", lerr)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		if item.Done() {
			continue
		}
		res.add(p.process(ctx, logger, runID, item))
	}

	res.FinishedAt = p.now().UTC()
	logger.Info("pipeline run finished",
		"processed", res.Processed, "published", res.Published, "advanced", res.Advanced,
		"failed", res.Failed, "rejected", res.Rejected, "duration", res.FinishedAt.Sub(res.StartedAt))

	err = ctx.Err()
	p.State.Finish(res, err)
	return res, err
}

func (p *Pipeline) stageFor(s types.Stage) Stage {
	for _, st := range p.Stages {
		if st.Produces() == s {
			return st
		}
	}
	return nil
}

// process advances item until it is published, fails, is rejected or
// reaches a stage with no configured producer.
func (p *Pipeline) process(ctx context.Context, runLogger *slog.Logger, runID string, item *types.WorkItem) ItemOutcome {
	logger := runLogger.With("work_item", item.ID)
	out := ItemOutcome{WorkItemID: item.ID, Title: item.Title, From: item.Stage, To: item.Stage}

	set := outputs.ForItem(p.Config.Paths.Outputs, item, p.now())
	if err := set.Ensure(); err != nil {
		out.Status, out.Error = OutcomeFailed, err.Error()
		logger.Error("output set unavailable", "error", err)
		return out
	}

	for !item.Done() {
		next, ok := item.Stage.Next()
		if !ok {
			break
		}
		stage := p.stageFor(next)
		if stage == nil {
			logger.Debug("no producer for stage; waiting", "stage", next)
			break
		}

		if err := stage.Advance(ctx, item, set); err != nil {
			if errors.Is(err, author.ErrDuplicateScript) {
				item.Rejected = err.Error()
				if rerr := p.Store.Reject(item); rerr != nil {
					logger.Error("failed to move rejected item", "error", rerr)
				}
				logger.Warn("work item rejected", "stage", next, "reason", item.Rejected)
				p.State.AddLog("%s rejected: %s", item.ID, item.Rejected)
				p.publish(ctx, runID, item, next, kafka.StatusRejected, err)
				out.Status, out.Error = OutcomeRejected, item.Rejected
				return out
			}

			item.Attempts++
			item.LastError = err.Error()
			if serr := p.Store.Save(item); serr != nil {
				logger.Error("failed to save work item", "error", serr)
			}
			logger.Error("stage failed", "stage", next, "attempts", item.Attempts, "error", err)
			p.State.AddLog("%s failed at %s: %v", item.ID, next, err)
			p.publish(ctx, runID, item, next, kafka.StatusFailed, err)
			out.Status, out.Error = OutcomeFailed, err.Error()
			return out
		}

		item.Stage = next
		item.LastError = ""
		if err := p.Store.Save(item); err != nil {
			logger.Error("failed to save work item", "stage", next, "error", err)
			out.Status, out.Error = OutcomeFailed, err.Error()
			return out
		}
		out.To = next
		logger.Info("stage complete", "stage", next)
		p.mirror(ctx, logger, item, set)
		p.publish(ctx, runID, item, next, kafka.StatusAdvanced, nil)
	}

	switch {
	case item.Stage == types.StagePublished:
		if err := p.Store.Archive(item); err != nil {
			logger.Error("failed to archive published item", "error", err)
		}
		p.State.AddLog("%s published: %s", item.ID, item.VideoURL)
		out.Status, out.VideoURL = OutcomePublished, item.VideoURL
	case out.To != out.From:
		out.Status = OutcomeAdvanced
	default:
		out.Status = OutcomeWaiting
	}
	return out
}

func (p *Pipeline) publish(ctx context.Context, runID string, item *types.WorkItem, stage types.Stage, status string, err error) {
	if p.Events == nil {
		return
	}
	ev := kafka.StageEvent{
		RunID:      runID,
		WorkItemID: item.ID,
		Stage:      string(stage),
		Status:     status,
		At:         p.now().UTC(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	if perr := p.Events.Publish(ctx, ev); perr != nil {
		p.Logger.Warn("stage event not published", "work_item", item.ID, "error", perr)
	}
}

// mirror copies the artifacts of the stage just completed.
func (p *Pipeline) mirror(ctx context.Context, logger *slog.Logger, item *types.WorkItem, set outputs.Set) {
	if p.Mirror == nil {
		return
	}
	var files map[string]string
	switch item.Stage {
	case types.StageVoiced:
		files = map[string]string{item.AudioPath: config.AudioDir}
	case types.StageComposed:
		files = map[string]string{item.VideoPath: config.VideoDir, item.SubtitlePath: config.VideoDir}
	case types.StageThumbnailed:
		files = map[string]string{item.ThumbnailPath: config.ThumbnailsDir}
	case types.StagePublished:
		files = map[string]string{item.MetadataPath: config.MetadataDir}
	}
	for path, kind := range files {
		key, err := p.Mirror.Mirror(ctx, set.Date, kind, path)
		if err != nil {
			logger.Warn("artifact mirror failed", "path", path, "error", err)
			continue
		}
		if key != "" {
			logger.Debug("artifact mirrored", "key", key)
		}
	}
}

// Cleanup runs the retention pass: old output sets, old content and script
// hashes, expired work items and old log files.
func (p *Pipeline) Cleanup(ctx context.Context) (*CleanupResult, error) {
	logger := p.Logger.With("component", "cleanup")
	p.State.SetState(StateCleaning)
	now := p.now()
	ret := p.Config.Retention
	res := &CleanupResult{}
	var errs []error

	dirs, err := outputs.Cleanup(logger, p.Config.Paths.Outputs, ret.Days, now)
	res.OutputDirs = dirs
	if err != nil {
		errs = append(errs, err)
	}

	if p.Records != nil && ret.HashDays > 0 {
		n, err := p.Records.PruneHashes(ctx, now.AddDate(0, 0, -ret.HashDays))
		res.HashesPruned = n
		if err != nil {
			errs = append(errs, err)
		}
	}

	if ret.Days > 0 {
		ids, err := p.Store.PruneExpired(now.AddDate(0, 0, -ret.Days))
		res.WorkItems = ids
		if err != nil {
			errs = append(errs, err)
		}
	}

	res.LogsRemoved = logging.CleanupOldLogs(logger, p.Config.Paths.Logs, ret.LogDays, p.ActiveLog, now)

	logger.Info("retention pass complete",
		"output_dirs", len(res.OutputDirs), "hashes", res.HashesPruned,
		"work_items", len(res.WorkItems), "logs", res.LogsRemoved)
	return res, errors.Join(errs...)
}
