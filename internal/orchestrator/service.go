package orchestrator

import (
	"context"
	"errors"
	"time"

	"scanorch/pkg/domain"
	"scanorch/pkg/logger"
	"scanorch/pkg/serrors"
	"scanorch/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Archiver receives every persisted result. Archive failures are logged and
// never change the task outcome.
type Archiver interface {
	Put(ctx context.Context, result *domain.ScanResult) error
}

// ServiceOptions configure the Orchestrator service.
type ServiceOptions struct {
	// MaxAttempts is the number of River attempts per task job.
	MaxAttempts int
	// Archiver is optional.
	Archiver Archiver
	// Now replaces time.Now.
	Now func() time.Time
}

// service is the concrete implementation of the Orchestrator interface.
type service struct {
	dispatcher *Dispatcher
	validator  *Validator
	storage    storage.Storage
	options    ServiceOptions
}

// New creates an Orchestrator. validator is used on intake and must be the
// one the dispatcher uses.
func New(dispatcher *Dispatcher, validator *Validator, st storage.Storage, options ServiceOptions) Orchestrator {
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.MaxAttempts <= 0 {
		options.MaxAttempts = 1
	}

	return &service{
		dispatcher: dispatcher,
		validator:  validator,
		storage:    st,
		options:    options,
	}
}

// prepare fills intake defaults: a missing id is generated, the creation
// time is now and a missing schedule starts immediately.
func (s *service) prepare(task *domain.ScanTask) {
	now := s.options.Now().UTC()
	if task.ID == "" {
		task.ID = domain.TaskID(uuid.NewString())
	}
	task.CreatedAt = now
	task.UpdatedAt = time.Time{}
	task.StatusMessage = ""
	if task.Scheduling == nil {
		task.Scheduling = &domain.SchedulingMetadata{StartTime: now}
	}
}

// claim rejects a caller-chosen id that is already stored. Tasks are never
// overwritten: a stored task keeps its status, history and result.
func (s *service) claim(ctx context.Context, task *domain.ScanTask) (domain.TaskResponse, error) {
	if task.ID == "" {
		return domain.TaskResponse{}, nil
	}

	existing, err := s.storage.TaskByID(ctx, task.ID)
	if err != nil {
		return s.failed(task, "load task", err)
	}
	if existing == nil {
		return domain.TaskResponse{}, nil
	}

	resp := response(existing)
	resp.Message = "Scan task " + string(existing.ID) + " already exists"

	return resp, serrors.With(serrors.ErrConflict, "scan task %s already exists", existing.ID)
}

func (s *service) Submit(ctx context.Context, task *domain.ScanTask) (domain.TaskResponse, error) {
	if task == nil {
		return domain.TaskResponse{}, serrors.With(serrors.ErrBadRequest, "task is required")
	}
	if resp, err := s.claim(ctx, task); err != nil {
		return resp, err
	}
	s.prepare(task)
	ctx = logger.WithFields(ctx, zap.String("taskID", string(task.ID)))

	if verr := s.validator.Validate(task); verr != nil {
		task.Status, task.StatusMessage = domain.TaskStatusInvalid, verr.Error()
		if err := s.storage.SaveTask(ctx, task); err != nil {
			return s.failed(task, "save task", err)
		}
		logger.Info(ctx, "scan task rejected", zap.Error(verr))

		return response(task), nil
	}

	task.Status = domain.TaskStatusPending
	err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		if err := tx.SaveTask(ctx, task); err != nil {
			return &PersistenceError{Op: "save task", Err: err}
		}
		inserted, err := tx.AddJob(ctx, newJobArgs(task, s.options.MaxAttempts), nil)
		if err != nil {
			return &PersistenceError{Op: "enqueue task", Err: err}
		}
		if !inserted {
			return serrors.With(serrors.ErrConflict, "scan task %s is already queued", task.ID)
		}

		return nil
	})
	if serrors.IsKind(err, serrors.ErrConflict) {
		logger.Warn(ctx, "scan task not enqueued", zap.Error(err))
		task.Status, task.StatusMessage = domain.TaskStatusFailed, err.Error()

		return response(task), err
	}
	if err != nil {
		var perr *PersistenceError
		if !errors.As(err, &perr) {
			perr = &PersistenceError{Op: "submit task", Err: err}
		}
		task.Status, task.StatusMessage = domain.TaskStatusFailed, perr.Error()

		return response(task), perr
	}

	task.StatusMessage = "Scan task accepted"
	logger.Info(ctx, "scan task submitted")

	return response(task), nil
}

func (s *service) Run(ctx context.Context, task *domain.ScanTask) (domain.TaskResponse, error) {
	if task == nil {
		return domain.TaskResponse{}, serrors.With(serrors.ErrBadRequest, "task is required")
	}
	if resp, err := s.claim(ctx, task); err != nil {
		return resp, err
	}
	s.prepare(task)
	ctx = logger.WithFields(ctx, zap.String("taskID", string(task.ID)))

	task.Status = domain.TaskStatusInProgress
	if err := s.storage.SaveTask(ctx, task); err != nil {
		return s.failed(task, "save task", err)
	}

	return s.execute(ctx, task)
}

func (s *service) Execute(ctx context.Context, id domain.TaskID) (domain.TaskResponse, error) {
	ctx = logger.WithFields(ctx, zap.String("taskID", string(id)))

	task, err := s.Task(ctx, id)
	if err != nil {
		return domain.TaskResponse{Status: domain.TaskStatusFailed, ScanTaskID: id, Message: err.Error()}, err
	}
	if task.Status.Terminal() {
		logger.Info(ctx, "scan task already finished", zap.String("status", string(task.Status)))

		return response(task), nil
	}

	if err := s.storage.UpdateTaskStatus(ctx, id, domain.TaskStatusInProgress, ""); err != nil {
		return s.failed(task, "mark task in progress", err)
	}
	task.Status = domain.TaskStatusInProgress

	return s.execute(ctx, task)
}

// execute dispatches an IN_PROGRESS task and records its terminal status.
func (s *service) execute(ctx context.Context, task *domain.ScanTask) (domain.TaskResponse, error) {
	result, err := s.dispatcher.Dispatch(ctx, task)
	if err != nil {
		status := domain.TaskStatusFailed
		var verr *ValidationError
		if errors.As(err, &verr) {
			status = domain.TaskStatusInvalid
		}
		logger.Info(ctx, "scan task did not complete", zap.String("status", string(status)), zap.Error(err))

		return s.finish(ctx, task, status, err.Error())
	}

	summary := result.Summary()
	err = s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		if err := tx.SaveResult(ctx, result); err != nil {
			return &PersistenceError{Op: "save result", Err: err}
		}
		if err := tx.UpdateTaskStatus(ctx, task.ID, domain.TaskStatusCompleted, summary); err != nil {
			return &PersistenceError{Op: "complete task", Err: err}
		}

		return nil
	})
	if err != nil {
		logger.Error(ctx, "could not persist scan result", zap.Error(err))
		resp, ferr := s.finish(ctx, task, domain.TaskStatusFailed, err.Error())

		var perr *PersistenceError
		if !errors.As(err, &perr) {
			perr = &PersistenceError{Op: "persist result", Err: err}
		}
		if ferr != nil {
			perr = &PersistenceError{Op: perr.Op, Err: errors.Join(perr.Err, ferr)}
		}

		return resp, perr
	}

	task.Status, task.StatusMessage = domain.TaskStatusCompleted, summary
	logger.Info(ctx, "scan task completed",
		zap.String("resultID", string(result.ID)),
		zap.Int("vulnerabilities", len(result.Vulnerabilities)))

	s.archive(ctx, result)

	resp := response(task)
	resp.ResultID = result.ID

	return resp, nil
}

// finish stores a terminal status other than COMPLETED.
func (s *service) finish(
	ctx context.Context,
	task *domain.ScanTask,
	status domain.TaskStatus,
	message string) (domain.TaskResponse, error) {
	task.Status, task.StatusMessage = status, message
	if err := s.storage.UpdateTaskStatus(ctx, task.ID, status, message); err != nil {
		logger.Error(ctx, "could not update task status", zap.Error(err))

		return response(task), &PersistenceError{Op: "update task status", Err: err}
	}

	return response(task), nil
}

func (s *service) failed(task *domain.ScanTask, op string, err error) (domain.TaskResponse, error) {
	perr := &PersistenceError{Op: op, Err: err}
	task.Status, task.StatusMessage = domain.TaskStatusFailed, perr.Error()

	return response(task), perr
}

func (s *service) archive(ctx context.Context, result *domain.ScanResult) {
	if s.options.Archiver == nil {
		return
	}
	if err := s.options.Archiver.Put(ctx, result); err != nil {
		logger.Warn(ctx, "could not archive scan result", zap.String("resultID", string(result.ID)), zap.Error(err))
	}
}

func (s *service) StoreResult(ctx context.Context, result *domain.ScanResult) (domain.ResultResponse, error) {
	if result != nil && result.ID == "" {
		result.ID = domain.ResultID(uuid.NewString())
	}
	if err := result.Validate(); err != nil {
		resp := domain.ResultResponse{Status: domain.ResultStatusInvalid, Summary: err.Error()}
		if result != nil {
			resp.ResultID, resp.ScanTaskID = result.ID, result.ScanTaskID
		}

		return resp, nil
	}

	resp := domain.ResultResponse{ResultID: result.ID, ScanTaskID: result.ScanTaskID}
	if err := s.storage.SaveResult(ctx, result); err != nil {
		perr := &PersistenceError{Op: "save result", Err: err}
		resp.Status, resp.Summary = domain.ResultStatusError, perr.Error()

		return resp, perr
	}

	s.archive(ctx, result)
	resp.Status, resp.Summary = domain.ResultStatusStored, result.Summary()

	return resp, nil
}

func (s *service) Task(ctx context.Context, id domain.TaskID) (*domain.ScanTask, error) {
	task, err := s.storage.TaskByID(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "load task", Err: err}
	}
	if task == nil {
		return nil, serrors.With(serrors.ErrNotFound, "scan task %s not found", id)
	}

	return task, nil
}

func (s *service) Results(ctx context.Context, id domain.TaskID) ([]domain.ScanResult, error) {
	results, err := s.storage.ResultsByTaskID(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "load results", Err: err}
	}

	return results, nil
}

func response(task *domain.ScanTask) domain.TaskResponse {
	return domain.TaskResponse{Status: task.Status, ScanTaskID: task.ID, Message: task.StatusMessage}
}

// ResultResponseOf renders a stored result for callers querying results.
func ResultResponseOf(result *domain.ScanResult) domain.ResultResponse {
	return domain.ResultResponse{
		Status:     domain.ResultStatusProcessed,
		ResultID:   result.ID,
		ScanTaskID: result.ScanTaskID,
		Summary:    result.Summary(),
	}
}
