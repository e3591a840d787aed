package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-eca-api/internal/allocation"
	"github.com/noah-isme/sma-eca-api/internal/dto"
	"github.com/noah-isme/sma-eca-api/internal/models"
	appErrors "github.com/noah-isme/sma-eca-api/pkg/errors"
	"github.com/noah-isme/sma-eca-api/pkg/export"
	"github.com/noah-isme/sma-eca-api/pkg/jobs"
	"github.com/noah-isme/sma-eca-api/pkg/runlock"
)

// AllocationJobType tags queued allocation runs.
const AllocationJobType = "eca.allocation"

type ecaTermStore interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	MarkAllocationRunning(ctx context.Context, id string, staleAfter time.Duration) (bool, error)
	UpdateAllocationState(ctx context.Context, id string, status models.TermStatus, allocationRun bool) error
}

type ecaSchoolReader interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

type ecaActivityStore interface {
	ListRunnableByTerm(ctx context.Context, termID string) ([]models.ECAActivity, error)
	Cancel(ctx context.Context, activityID, reason string) error
}

type ecaSelectionReader interface {
	ListByTerm(ctx context.Context, termID string) ([]models.ECASelection, error)
}

type ecaAllocationStore interface {
	ListPreservedByTerm(ctx context.Context, termID string) ([]models.ECAAllocation, error)
	DeleteNonPreservedByTerm(ctx context.Context, termID string) (int64, error)
	Create(ctx context.Context, allocation *models.ECAAllocation) (bool, error)
	DeleteByActivity(ctx context.Context, activityID string) (int64, error)
	ListDetailsByTerm(ctx context.Context, termID string) ([]models.ECAAllocationDetail, error)
}

type ecaWaitlistStore interface {
	DeleteByTerm(ctx context.Context, termID string) (int64, error)
	Create(ctx context.Context, entry *models.ECAWaitlistEntry) (bool, error)
	ListByTerm(ctx context.Context, termID string) ([]models.ECAWaitlistDetail, error)
}

type allocationEngine interface {
	Run(ctx context.Context, snapshot allocation.Snapshot, opts allocation.Options) (*allocation.Outcome, error)
}

// RunLocker serialises runs per term.
type RunLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (*runlock.Lock, error)
}

type allocationQueue interface {
	Enqueue(job jobs.Job) error
	Status(id string) (jobs.Status, bool)
}

type rosterExporter interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// ECAAllocationStores groups the persistence the allocation service needs.
type ECAAllocationStores struct {
	Terms       ecaTermStore
	Schools     ecaSchoolReader
	Activities  ecaActivityStore
	Selections  ecaSelectionReader
	Allocations ecaAllocationStore
	Waitlist    ecaWaitlistStore
}

// ECAAllocationConfig governs run behaviour.
type ECAAllocationConfig struct {
	DefaultMode    models.SelectionMode
	RunLockTTL     time.Duration
	ResultCacheTTL time.Duration
}

// ExportFile is a rendered roster.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ECAAllocationService runs, previews and reports ECA allocations for a term.
type ECAAllocationService struct {
	stores    ECAAllocationStores
	engine    allocationEngine
	locker    RunLocker
	cache     *CacheService
	metrics   *MetricsService
	exporters map[string]rosterExporter
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ECAAllocationConfig
	now       func() time.Time

	mu    sync.Mutex
	queue allocationQueue
	runs  map[string]string
}

// NewECAAllocationService wires the allocation service.
func NewECAAllocationService(
	stores ECAAllocationStores,
	engine allocationEngine,
	locker RunLocker,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ECAAllocationConfig,
) *ECAAllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = allocation.NewEngine(nil, logger, allocation.DefaultIterationFactor)
	}
	if locker == nil {
		locker = runlock.NewLocalLocker()
	}
	if !cfg.DefaultMode.Valid() {
		cfg.DefaultMode = models.SelectionModeSmart
	}
	if cfg.RunLockTTL <= 0 {
		cfg.RunLockTTL = 10 * time.Minute
	}
	return &ECAAllocationService{
		stores:  stores,
		engine:  engine,
		locker:  locker,
		cache:   cache,
		metrics: metrics,
		exporters: map[string]rosterExporter{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		runs:      make(map[string]string),
	}
}

// AttachQueue enables asynchronous runs. The queue handler should be HandleJob.
func (s *ECAAllocationService) AttachQueue(queue allocationQueue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = queue
}

// Run executes an allocation for the term and persists the outcome.
// Failures after the preconditions are reported through Success and Errors on the result.
func (s *ECAAllocationService) Run(ctx context.Context, req dto.RunAllocationRequest) (*dto.AllocationResult, error) {
	return s.run(ctx, req, uuid.NewString())
}

// RunAsync validates the request and queues the run.
func (s *ECAAllocationService) RunAsync(ctx context.Context, req dto.RunAllocationRequest) (*dto.AllocationRunAccepted, error) {
	s.mu.Lock()
	queue := s.queue
	s.mu.Unlock()
	if queue == nil {
		return nil, appErrors.ErrAsyncRunsDisabled
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid allocation request")
	}
	if _, _, err := s.resolveScope(ctx, req.TermID, req.SchoolID); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	if err := queue.Enqueue(jobs.Job{ID: runID, Type: AllocationJobType, Key: req.TermID, Payload: req}); err != nil {
		if errors.Is(err, jobs.ErrDuplicate) {
			return nil, appErrors.ErrRunInProgress
		}
		return nil, appErrors.Unavailable(err, "failed to queue allocation run")
	}

	s.mu.Lock()
	s.runs[runID] = req.TermID
	s.mu.Unlock()

	s.logger.Info("allocation run queued", zap.String("run_id", runID), zap.String("term_id", req.TermID))
	return &dto.AllocationRunAccepted{RunID: runID, TermID: req.TermID, Status: string(jobs.StatusQueued)}, nil
}

// HandleJob is the queue handler for asynchronous runs.
func (s *ECAAllocationService) HandleJob(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.RunAllocationRequest)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	result, err := s.run(ctx, req, job.ID)
	if err != nil {
		return err
	}
	if !result.Success {
		// Failed runs are not retried; the term keeps its previous status for an operator re-run.
		s.logger.Warn("queued allocation run failed", zap.String("run_id", job.ID), zap.Strings("errors", result.Errors))
	}
	return nil
}

// RunStatus reports the queue state of an asynchronous run.
func (s *ECAAllocationService) RunStatus(_ context.Context, runID string) (*dto.AllocationRunAccepted, error) {
	s.mu.Lock()
	termID, ok := s.runs[runID]
	queue := s.queue
	s.mu.Unlock()
	if !ok || queue == nil {
		return nil, appErrors.ErrRunNotFound
	}
	status, ok := queue.Status(runID)
	if !ok {
		return nil, appErrors.ErrRunNotFound
	}
	return &dto.AllocationRunAccepted{RunID: runID, TermID: termID, Status: string(status)}, nil
}

func (s *ECAAllocationService) run(ctx context.Context, req dto.RunAllocationRequest, runID string) (*dto.AllocationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid allocation request")
	}
	term, school, err := s.resolveScope(ctx, req.TermID, req.SchoolID)
	if err != nil {
		return nil, err
	}
	mode, err := s.resolveMode(req.SelectionMode, school)
	if err != nil {
		return nil, err
	}
	cancelBelow := true
	if req.CancelBelowMinimum != nil {
		cancelBelow = *req.CancelBelowMinimum
	}

	lock, err := s.locker.Acquire(ctx, "term:"+term.ID, s.cfg.RunLockTTL)
	if err != nil {
		if errors.Is(err, runlock.ErrLockHeld) {
			return nil, appErrors.ErrRunInProgress
		}
		return nil, appErrors.Unavailable(err, "failed to acquire run lock")
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release run lock", zap.String("term_id", term.ID), zap.Error(err))
		}
	}()

	acquired, err := s.stores.Terms.MarkAllocationRunning(ctx, term.ID, s.cfg.RunLockTTL)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to mark term as running")
	}
	if !acquired {
		return nil, appErrors.ErrRunInProgress
	}

	logger := s.logger.With(zap.String("run_id", runID), zap.String("term_id", term.ID), zap.String("mode", string(mode)))
	logger.Info("allocation run started", zap.Bool("cancel_below_minimum", cancelBelow))

	result := &dto.AllocationResult{
		RunID:               runID,
		TermID:              term.ID,
		SchoolID:            school.ID,
		SelectionMode:       mode,
		Errors:              []string{},
		CancelledActivities: []string{},
		AtRiskActivities:    []dto.AtRiskActivity{},
		UnplacedStudents:    []dto.UnplacedStudent{},
		Suggestions:         []dto.AllocationSuggestion{},
		StartedAt:           s.now(),
	}

	outcome, err := s.execute(ctx, term.ID, mode, cancelBelow, result, logger)
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors, err.Error())
		if restoreErr := s.stores.Terms.UpdateAllocationState(context.WithoutCancel(ctx), term.ID, failedRunStatus(term.Status), false); restoreErr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("restore term status: %v", restoreErr))
		}
		logger.Error("allocation run failed", zap.Error(err))
	} else {
		result.Success = true
	}
	result.FinishedAt = s.now()

	s.recordRun(context.WithoutCancel(ctx), result, outcome, logger)
	return result, nil
}

// failedRunStatus is the term status written after an aborted run. Earlier
// results were already replaced, so a completed term drops back to SELECTION_CLOSED.
func failedRunStatus(prior models.TermStatus) models.TermStatus {
	switch prior {
	case models.TermStatusAllocationComplete, models.TermStatusAllocationRunning:
		return models.TermStatusSelectionClosed
	default:
		return prior
	}
}

func (s *ECAAllocationService) execute(
	ctx context.Context,
	termID string,
	mode models.SelectionMode,
	cancelBelow bool,
	result *dto.AllocationResult,
	logger *zap.Logger,
) (*allocation.Outcome, error) {
	snapshot, err := s.loadSnapshot(ctx, termID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.engine.Run(ctx, snapshot, allocation.Options{Mode: mode, CancelBelowMinimum: cancelBelow})
	if err != nil {
		return nil, fmt.Errorf("run allocation engine: %w", err)
	}
	applyOutcome(result, outcome)

	if _, err := s.stores.Allocations.DeleteNonPreservedByTerm(ctx, termID); err != nil {
		return outcome, err
	}
	if _, err := s.stores.Waitlist.DeleteByTerm(ctx, termID); err != nil {
		return outcome, err
	}

	// Preserved rows on cancelled activities must be gone before displaced
	// students are written into the same slot.
	for _, cancellation := range outcome.Cancellations {
		if err := s.stores.Activities.Cancel(ctx, cancellation.ActivityID, cancellation.Reason); err != nil {
			return outcome, err
		}
		if _, err := s.stores.Allocations.DeleteByActivity(ctx, cancellation.ActivityID); err != nil {
			return outcome, err
		}
		logger.Info("activity cancelled",
			zap.String("activity_id", cancellation.ActivityID),
			zap.Int("enrollment", cancellation.Enrollment),
			zap.Int("minimum", cancellation.Minimum),
			zap.Int("displaced", len(cancellation.Displaced)),
		)
	}

	created := 0
	for _, placement := range outcome.Placements {
		ok, err := s.stores.Allocations.Create(ctx, &models.ECAAllocation{
			ID:             uuid.NewString(),
			TermID:         termID,
			StudentID:      placement.StudentID,
			ActivityID:     placement.ActivityID,
			DayOfWeek:      placement.Slot.Day,
			TimeSlot:       placement.Slot.Time,
			AllocationType: placement.Type,
			Status:         models.AllocationStatusConfirmed,
			CreatedAt:      s.now(),
		})
		if err != nil {
			result.TotalAllocations = created
			return outcome, err
		}
		if !ok {
			logger.Debug("allocation already present", zap.String("student_id", placement.StudentID), zap.String("slot", placement.Slot.String()))
			continue
		}
		created++
	}
	result.TotalAllocations = created

	for _, entry := range outcome.Waitlist {
		if _, err := s.stores.Waitlist.Create(ctx, &models.ECAWaitlistEntry{
			ID:         uuid.NewString(),
			TermID:     termID,
			StudentID:  entry.StudentID,
			ActivityID: entry.ActivityID,
			Position:   entry.Position,
			CreatedAt:  s.now(),
		}); err != nil {
			return outcome, err
		}
	}

	if err := s.stores.Terms.UpdateAllocationState(ctx, termID, models.TermStatusAllocationComplete, true); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// Preview simulates a run without writing anything.
func (s *ECAAllocationService) Preview(ctx context.Context, req dto.PreviewAllocationRequest) (*dto.AllocationPreview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid allocation request")
	}
	term, school, err := s.resolveScope(ctx, req.TermID, req.SchoolID)
	if err != nil {
		return nil, err
	}
	mode, err := s.resolveMode(req.SelectionMode, school)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.loadSnapshot(ctx, term.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load allocation data")
	}
	outcome, err := s.engine.Run(ctx, snapshot, allocation.Options{Mode: mode, CancelBelowMinimum: true})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to simulate allocation")
	}

	return BuildPreview(term.ID, school.ID, snapshot.Activities, outcome), nil
}

// BuildPreview projects an engine outcome onto per-activity counts.
func BuildPreview(termID, schoolID string, activities []models.ECAActivity, outcome *allocation.Outcome) *dto.AllocationPreview {
	waiting := make(map[string]int)
	for _, entry := range outcome.Waitlist {
		waiting[entry.ActivityID]++
	}
	cancelled := make(map[string]bool, len(outcome.Cancellations))
	wouldCancel := make([]string, 0, len(outcome.Cancellations))
	for _, cancellation := range outcome.Cancellations {
		cancelled[cancellation.ActivityID] = true
		wouldCancel = append(wouldCancel, cancellation.Name)
	}

	projections := make([]dto.ActivityProjection, 0, len(activities))
	for _, activity := range activities {
		demand := outcome.Demand[activity.ID]
		projections = append(projections, dto.ActivityProjection{
			ActivityID:           activity.ID,
			ActivityName:         activity.Name,
			DayOfWeek:            activity.DayOfWeek,
			TimeSlot:             activity.TimeSlot,
			MaxCapacity:          allocation.MaxCapacity(activity),
			MinCapacity:          allocation.MinCapacity(activity),
			Demand:               demand.Requests,
			DemandLevel:          string(demand.Level),
			ProjectedAllocations: outcome.Enrollment[activity.ID],
			ProjectedWaitlist:    waiting[activity.ID],
			WouldCancel:          cancelled[activity.ID],
		})
	}
	sort.SliceStable(projections, func(i, j int) bool {
		if projections[i].DayOfWeek != projections[j].DayOfWeek {
			return projections[i].DayOfWeek < projections[j].DayOfWeek
		}
		if projections[i].TimeSlot != projections[j].TimeSlot {
			return projections[i].TimeSlot == models.TimeSlotBeforeSchool
		}
		return projections[i].ActivityName < projections[j].ActivityName
	})

	return &dto.AllocationPreview{
		TermID:           termID,
		SchoolID:         schoolID,
		SelectionMode:    outcome.Mode,
		Activities:       projections,
		WouldCancel:      wouldCancel,
		TotalAllocations: outcome.Breakdown.Total,
		WaitlistEntries:  len(outcome.Waitlist),
		UnplacedStudents: len(outcome.Unplaced),
		ChoiceBreakdown:  toChoiceBreakdown(outcome.Breakdown),
		Suggestions:      toSuggestions(outcome.Suggestions),
	}
}

// Latest returns the most recent cached run result for the term.
func (s *ECAAllocationService) Latest(ctx context.Context, query dto.TermScopeQuery) (*dto.AllocationResult, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Invalid(err, "invalid allocation request")
	}
	if _, _, err := s.resolveScope(ctx, query.TermID, query.SchoolID); err != nil {
		return nil, err
	}
	var result dto.AllocationResult
	hit, err := s.cache.Get(ctx, LatestRunKey(query.TermID), &result)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to read latest allocation result")
	}
	if !hit {
		return nil, appErrors.ErrNoAllocationResult
	}
	return &result, nil
}

// Export renders the term's confirmed allocations as csv or pdf.
func (s *ECAAllocationService) Export(ctx context.Context, query dto.ExportAllocationsQuery) (*ExportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Invalid(err, "invalid allocation request")
	}
	format := query.Format
	if format == "" {
		format = "csv"
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.ErrUnsupportedFormat
	}
	term, _, err := s.resolveScope(ctx, query.TermID, query.SchoolID)
	if err != nil {
		return nil, err
	}

	details, err := s.stores.Allocations.ListDetailsByTerm(ctx, term.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load allocations")
	}
	rows := make([]export.RosterRow, 0, len(details))
	for _, detail := range details {
		if detail.Status != models.AllocationStatusConfirmed {
			continue
		}
		rows = append(rows, export.RosterRow{
			Activity:  detail.ActivityName,
			Day:       detail.DayOfWeek.Name(),
			TimeSlot:  string(detail.TimeSlot),
			StudentID: detail.StudentID,
			Student:   detail.StudentName,
			Type:      string(detail.AllocationType),
		})
	}

	content, err := exporter.Render(export.RosterDataset(rows), fmt.Sprintf("ECA roster: %s", term.Name))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render roster")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("eca-allocations-%s.%s", term.ID, exporter.Extension()),
		ContentType: exporter.ContentType(),
		Content:     content,
	}, nil
}

// ListWaitlist returns waitlist rows ordered by activity then position.
func (s *ECAAllocationService) ListWaitlist(ctx context.Context, query dto.TermScopeQuery) ([]dto.WaitlistItem, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Invalid(err, "invalid allocation request")
	}
	if _, _, err := s.resolveScope(ctx, query.TermID, query.SchoolID); err != nil {
		return nil, err
	}
	entries, err := s.stores.Waitlist.ListByTerm(ctx, query.TermID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load waitlist")
	}
	items := make([]dto.WaitlistItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.WaitlistItem{
			ActivityID:   entry.ActivityID,
			ActivityName: entry.ActivityName,
			StudentID:    entry.StudentID,
			Position:     entry.Position,
			CreatedAt:    entry.CreatedAt,
		})
	}
	return items, nil
}

func (s *ECAAllocationService) resolveScope(ctx context.Context, termID, schoolID string) (*models.Term, *models.School, error) {
	term, err := s.stores.Terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrTermNotFound
		}
		return nil, nil, appErrors.Internal(err, "failed to load term")
	}
	if term.SchoolID != schoolID {
		return nil, nil, appErrors.ErrTermNotFound
	}
	school, err := s.stores.Schools.FindByID(ctx, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrSchoolNotFound
		}
		return nil, nil, appErrors.Internal(err, "failed to load school")
	}
	return term, school, nil
}

func (s *ECAAllocationService) resolveMode(raw string, school *models.School) (models.SelectionMode, error) {
	if raw != "" {
		mode, ok := models.ParseSelectionMode(raw)
		if !ok {
			return "", appErrors.ErrUnknownMode
		}
		return mode, nil
	}
	if school != nil && school.ECASelectionMode.Valid() {
		return school.ECASelectionMode, nil
	}
	return s.cfg.DefaultMode, nil
}

func (s *ECAAllocationService) loadSnapshot(ctx context.Context, termID string) (allocation.Snapshot, error) {
	activities, err := s.stores.Activities.ListRunnableByTerm(ctx, termID)
	if err != nil {
		return allocation.Snapshot{}, err
	}
	selections, err := s.stores.Selections.ListByTerm(ctx, termID)
	if err != nil {
		return allocation.Snapshot{}, err
	}
	preserved, err := s.stores.Allocations.ListPreservedByTerm(ctx, termID)
	if err != nil {
		return allocation.Snapshot{}, err
	}
	return allocation.Snapshot{Activities: activities, Selections: selections, Preserved: preserved}, nil
}

func (s *ECAAllocationService) recordRun(ctx context.Context, result *dto.AllocationResult, outcome *allocation.Outcome, logger *zap.Logger) {
	stats := AllocationRunStats{
		Mode:            result.SelectionMode,
		Success:         result.Success,
		Duration:        result.FinishedAt.Sub(result.StartedAt),
		Waitlisted:      result.WaitlistEntries,
		Cancelled:       len(result.CancelledActivities),
		Unplaced:        len(result.UnplacedStudents),
		IterationCapHit: result.IterationCapHit,
	}
	if outcome != nil {
		stats.ByType = make(map[models.AllocationType]int)
		for _, placement := range outcome.Placements {
			stats.ByType[placement.Type]++
		}
	}
	s.metrics.ObserveAllocationRun(stats)

	if err := s.cache.Set(ctx, LatestRunKey(result.TermID), result, s.cfg.ResultCacheTTL); err != nil {
		logger.Warn("cache allocation result", zap.Error(err))
	}

	logger.Info("allocation run finished",
		zap.Bool("success", result.Success),
		zap.Int("allocations", result.TotalAllocations),
		zap.Int("waitlisted", result.StudentsWaitlisted),
		zap.Int("cancelled", len(result.CancelledActivities)),
		zap.Duration("duration", stats.Duration),
	)
}

func applyOutcome(result *dto.AllocationResult, outcome *allocation.Outcome) {
	placed := make(map[string]struct{})
	for _, placement := range outcome.Placements {
		placed[placement.StudentID] = struct{}{}
	}
	waitlisted := make(map[string]struct{})
	for _, entry := range outcome.Waitlist {
		waitlisted[entry.StudentID] = struct{}{}
	}

	result.StudentsPlaced = len(placed)
	result.StudentsWaitlisted = len(waitlisted)
	result.WaitlistEntries = len(outcome.Waitlist)
	result.ChoiceBreakdown = toChoiceBreakdown(outcome.Breakdown)
	result.Iterations = outcome.Iterations
	result.IterationCapHit = outcome.IterationCapHit

	for _, cancellation := range outcome.Cancellations {
		result.CancelledActivities = append(result.CancelledActivities, cancellation.Name)
	}
	for _, risk := range outcome.AtRisk {
		result.AtRiskActivities = append(result.AtRiskActivities, dto.AtRiskActivity{
			ActivityID:   risk.ActivityID,
			ActivityName: risk.Name,
			Enrollment:   risk.Enrollment,
			MinCapacity:  risk.Minimum,
		})
	}
	for _, unplaced := range outcome.Unplaced {
		result.UnplacedStudents = append(result.UnplacedStudents, dto.UnplacedStudent{
			StudentID: unplaced.StudentID,
			DayOfWeek: unplaced.Slot.Day,
			TimeSlot:  unplaced.Slot.Time,
			Reason:    unplaced.Reason,
		})
	}
	result.Suggestions = toSuggestions(outcome.Suggestions)
}

func toChoiceBreakdown(b allocation.ChoiceBreakdown) dto.ChoiceBreakdown {
	return dto.ChoiceBreakdown{
		FirstChoice:  b.FirstChoice,
		SecondChoice: b.SecondChoice,
		ThirdChoice:  b.ThirdChoice,
		Forced:       b.Forced,
	}
}

func toSuggestions(suggestions []allocation.Suggestion) []dto.AllocationSuggestion {
	result := make([]dto.AllocationSuggestion, 0, len(suggestions))
	for _, suggestion := range suggestions {
		result = append(result, dto.AllocationSuggestion{
			Type:         string(suggestion.Type),
			Priority:     string(suggestion.Priority),
			ActivityID:   suggestion.ActivityID,
			ActivityName: suggestion.ActivityName,
			Value:        suggestion.Value,
			Message:      suggestion.Message,
		})
	}
	return result
}
