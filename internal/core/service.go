package core

import (
	"context"
	"time"

	"siteledger/pkg/domain"
)

// Service exposes the workflow commands and read models over a store.
type Service struct {
	store   PersistentStore
	engine  *RulesEngine
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	clock   Clock
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithLogger sets the logger used for command outcomes.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuditRecorder sets the recorder that receives one entry per command.
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithMetricsRecorder sets the recorder observing command latency.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer sets the tracer wrapping every command and query.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock overrides the clock. When the store exposes SetNowFunc the same
// clock stamps records written by transactions.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	svc := &Service{
		store:   store,
		engine:  extractRulesEngine(store),
		logger:  noopLogger{},
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.clock = selectClock(store, svc.clock)
	return svc
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(NewMemoryStore(engine), opts...)
}

func extractRulesEngine(store PersistentStore) *RulesEngine {
	if provider, ok := store.(interface{ RulesEngine() *RulesEngine }); ok {
		return provider.RulesEngine()
	}
	return nil
}

// selectClock wires an explicit clock into the store, or adopts the store's
// own clock when none was given.
func selectClock(store PersistentStore, clock Clock) Clock {
	if clock != nil {
		if setter, ok := store.(interface{ SetNowFunc(func() time.Time) }); ok {
			setter.SetNowFunc(clock.Now)
		}
		return clock
	}
	if provider, ok := store.(interface{ NowFunc() func() time.Time }); ok {
		if fn := provider.NowFunc(); fn != nil {
			return ClockFunc(fn)
		}
	}
	return ClockFunc(nil)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// RulesEngine returns the engine evaluated by the store, if it exposes one.
func (s *Service) RulesEngine() *RulesEngine {
	return s.engine
}

// Command names used for tracing, metrics and audit.
const (
	OpAddSite               = "add_site"
	OpUpdateSiteProgress    = "update_site_progress"
	OpSetSiteStatus         = "set_site_status"
	OpAddWorker             = "add_worker"
	OpSetWorkerStatus       = "set_worker_status"
	OpAddMachine            = "add_machine"
	OpRecordMachineUsage    = "record_machine_usage"
	OpSetMachineStatus      = "set_machine_status"
	OpAddInventoryItem      = "add_inventory_item"
	OpUpdateStock           = "update_stock"
	OpSetStockThresholds    = "set_stock_thresholds"
	OpCreateMaterialRequest = "create_material_request"
	OpApproveRequest        = "approve_request"
	OpRejectRequest         = "reject_request"
	OpAdvanceRequest        = "advance_request"
	OpCompleteRequest       = "complete_request"
	OpCreateTransfer        = "create_transfer"
	OpApproveTransfer       = "approve_transfer"
	OpRejectTransfer        = "reject_transfer"
	OpAdvanceTransfer       = "advance_transfer"
	OpCompleteTransfer      = "complete_transfer"
	OpAddSupplier           = "add_supplier"
	OpScheduleTrip          = "schedule_trip"
	OpAdvanceTrip           = "advance_trip"
	OpRestoreSnapshot       = "restore_snapshot"
)

type auditOperation struct {
	entity EntityType
	action Action
}

var auditOperations = map[string]auditOperation{
	OpAddSite:               {EntitySite, ActionCreate},
	OpUpdateSiteProgress:    {EntitySite, ActionUpdate},
	OpSetSiteStatus:         {EntitySite, ActionUpdate},
	OpAddWorker:             {EntityWorker, ActionCreate},
	OpSetWorkerStatus:       {EntityWorker, ActionUpdate},
	OpAddMachine:            {EntityMachine, ActionCreate},
	OpRecordMachineUsage:    {EntityMachine, ActionUpdate},
	OpSetMachineStatus:      {EntityMachine, ActionUpdate},
	OpAddInventoryItem:      {EntityInventoryItem, ActionCreate},
	OpUpdateStock:           {EntityInventoryItem, ActionUpdate},
	OpSetStockThresholds:    {EntityInventoryItem, ActionUpdate},
	OpCreateMaterialRequest: {EntityMaterialRequest, ActionCreate},
	OpApproveRequest:        {EntityMaterialRequest, ActionUpdate},
	OpRejectRequest:         {EntityMaterialRequest, ActionUpdate},
	OpAdvanceRequest:        {EntityMaterialRequest, ActionUpdate},
	OpCompleteRequest:       {EntityMaterialRequest, ActionUpdate},
	OpCreateTransfer:        {EntityTransfer, ActionCreate},
	OpApproveTransfer:       {EntityTransfer, ActionUpdate},
	OpRejectTransfer:        {EntityTransfer, ActionUpdate},
	OpAdvanceTransfer:       {EntityTransfer, ActionUpdate},
	OpCompleteTransfer:      {EntityTransfer, ActionUpdate},
	OpAddSupplier:           {EntitySupplier, ActionCreate},
	OpScheduleTrip:          {EntityTrip, ActionCreate},
	OpAdvanceTrip:           {EntityTrip, ActionUpdate},
}

// run executes fn in one transaction and reports the outcome to every
// collaborator. fn returns the id of the record it produced; targetID is used
// when the command fails before producing one.
func (s *Service) run(ctx context.Context, op, targetID string, fn func(tx Transaction) (string, error)) (Result, error) {
	ctx, span := s.tracer.Start(ctx, op)
	started := time.Now()

	id := targetID
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		produced, err := fn(tx)
		if produced != "" {
			id = produced
		}
		return err
	})

	duration := time.Since(started)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	if err != nil {
		s.recordAuditError(ctx, op, id, duration, err)
		s.logFailure(op, id, err)
		return res, err
	}
	s.recordAuditSuccess(ctx, op, id, duration)
	s.logWarnings(op, id, res)
	s.logger.Debug("command committed", "operation", op, "id", id, "duration", duration)
	return res, nil
}

// view runs a read-only query with tracing and metrics but no audit entry.
func (s *Service) view(ctx context.Context, op string, fn func(TransactionView) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	started := time.Now()
	err := s.store.View(ctx, fn)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	return err
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, id string, duration time.Duration) {
	s.recordAudit(ctx, op, id, duration, nil)
}

func (s *Service) recordAuditError(ctx context.Context, op, id string, duration time.Duration, err error) {
	s.recordAudit(ctx, op, id, duration, err)
}

func (s *Service) recordAudit(ctx context.Context, op, id string, duration time.Duration, err error) {
	meta, ok := auditOperations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  id,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

// logFailure logs business conflicts at warn and infrastructure faults at error.
func (s *Service) logFailure(op, id string, err error) {
	if kind := domain.KindOf(err); kind != "" {
		s.logger.Warn("command rejected", "operation", op, "id", id, "kind", string(kind), "error", err)
		return
	}
	s.logger.Error("command failed", "operation", op, "id", id, "error", err)
}

func (s *Service) logWarnings(op, id string, res Result) {
	for _, v := range res.Violations {
		if v.Severity == SeverityBlock {
			continue
		}
		s.logger.Warn("rule warning", "operation", op, "id", id, "rule", v.Rule, "severity", string(v.Severity), "message", v.Message)
	}
}
