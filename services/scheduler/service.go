package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/config"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/requestsync"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskAlreadyRunning = errors.New("task is already running")
)

// SettingsStore is the part of config.Manager the scheduler uses.
type SettingsStore interface {
	Load() (config.Settings, error)
	Save(config.Settings) error
}

// RequestsSyncer runs one Jellyseerr requests sync.
type RequestsSyncer interface {
	Run(ctx context.Context, progress requestsync.ProgressFunc) requestsync.Summary
}

// SyncerFactory builds a syncer from the settings current at run time.
type SyncerFactory func(settings config.Settings) (RequestsSyncer, error)

// Service manages scheduled task execution
type Service struct {
	settings  SettingsStore
	newSyncer SyncerFactory

	// Runtime state
	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Task state tracking (in-memory, not persisted)
	taskRunning  map[string]bool
	taskProgress map[string]float64
	taskMu       sync.RWMutex
}

// NewService creates a new scheduler service
func NewService(settings SettingsStore, newSyncer SyncerFactory) *Service {
	return &Service{
		settings:     settings,
		newSyncer:    newSyncer,
		taskRunning:  make(map[string]bool),
		taskProgress: make(map[string]float64),
	}
}

// Start begins the scheduler background loop
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.schedulerLoop()

	log.Println("[scheduler] Scheduler service started")
	return nil
}

// Stop cancels running tasks and waits for them to return.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[scheduler] Scheduler service stopped gracefully")
	case <-ctx.Done():
		log.Println("[scheduler] Scheduler service stopped (timeout)")
	}

	s.running = false
	return nil
}

func (s *Service) schedulerLoop() {
	defer s.wg.Done()

	settings, err := s.settings.Load()
	if err != nil {
		log.Printf("[scheduler] Failed to load settings: %v", err)
		return
	}

	checkInterval := time.Duration(settings.ScheduledTasks.CheckIntervalSeconds) * time.Second
	if checkInterval < time.Second {
		checkInterval = 60 * time.Second
	}

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	s.checkAndRunTasks()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRunTasks()
		}
	}
}

func (s *Service) checkAndRunTasks() {
	settings, err := s.settings.Load()
	if err != nil {
		log.Printf("[scheduler] Failed to load settings: %v", err)
		return
	}

	for _, task := range settings.ScheduledTasks.Tasks {
		if !task.Enabled || !s.shouldRun(task) {
			continue
		}
		s.launch(task)
	}
}

// shouldRun checks if a task is due to run
func (s *Service) shouldRun(task config.ScheduledTask) bool {
	if s.IsTaskRunning(task.ID) {
		return false
	}
	if task.LastRunAt == nil {
		return true
	}
	return time.Since(*task.LastRunAt) >= task.Frequency.Interval()
}

// launch claims the task and runs it in the background. It reports false
// when the task is already running.
func (s *Service) launch(task config.ScheduledTask) bool {
	s.taskMu.Lock()
	if s.taskRunning[task.ID] {
		s.taskMu.Unlock()
		return false
	}
	s.taskRunning[task.ID] = true
	s.taskProgress[task.ID] = 0
	s.taskMu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.taskMu.Lock()
			delete(s.taskRunning, task.ID)
			delete(s.taskProgress, task.ID)
			s.taskMu.Unlock()
		}()
		s.executeTask(task)
	}()
	return true
}

// executeTask runs a task and updates its status
func (s *Service) executeTask(task config.ScheduledTask) {
	log.Printf("[scheduler] Executing task: %s (%s)", task.Name, task.Type)

	var (
		err           error
		itemsImported int
	)

	switch task.Type {
	case config.ScheduledTaskTypeJellyseerrRequestsSync:
		itemsImported, err = s.executeRequestsSync(task)
	default:
		log.Printf("[scheduler] Unknown task type: %s", task.Type)
		return
	}

	s.updateTaskStatus(task.ID, err, itemsImported)
}

func (s *Service) executeRequestsSync(task config.ScheduledTask) (int, error) {
	settings, err := s.settings.Load()
	if err != nil {
		return 0, fmt.Errorf("load settings: %w", err)
	}
	syncer, err := s.newSyncer(settings)
	if err != nil {
		return 0, fmt.Errorf("build requests sync: %w", err)
	}

	summary := syncer.Run(s.taskContext(), func(percent float64) {
		s.taskMu.Lock()
		if s.taskRunning[task.ID] {
			s.taskProgress[task.ID] = percent
		}
		s.taskMu.Unlock()
	})
	if summary.Cancelled {
		return summary.Changed(), context.Canceled
	}
	log.Printf("[scheduler] Requests sync %s: %s", summary.RunID, summary)
	return summary.Changed(), nil
}

func (s *Service) taskContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// updateTaskStatus updates a task's status in the settings file
func (s *Service) updateTaskStatus(taskID string, err error, itemsImported int) {
	settings, loadErr := s.settings.Load()
	if loadErr != nil {
		log.Printf("[scheduler] Failed to load settings to update task status: %v", loadErr)
		return
	}

	now := time.Now().UTC()
	for i := range settings.ScheduledTasks.Tasks {
		t := &settings.ScheduledTasks.Tasks[i]
		if t.ID != taskID {
			continue
		}
		t.LastRunAt = &now
		t.ItemsImported = itemsImported
		t.Progress = 0
		if err != nil {
			t.LastStatus = config.ScheduledTaskStatusError
			t.LastError = err.Error()
			log.Printf("[scheduler] Task %s failed: %v", taskID, err)
		} else {
			t.LastStatus = config.ScheduledTaskStatusSuccess
			t.LastError = ""
			log.Printf("[scheduler] Task %s completed successfully, imported %d items", taskID, itemsImported)
		}
		break
	}

	if saveErr := s.settings.Save(settings); saveErr != nil {
		log.Printf("[scheduler] Failed to save task status: %v", saveErr)
	}
}

// RunTaskNow triggers immediate execution of a task
func (s *Service) RunTaskNow(taskID string) error {
	settings, err := s.settings.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	for _, task := range settings.ScheduledTasks.Tasks {
		if task.ID != taskID {
			continue
		}
		if !s.launch(task) {
			return ErrTaskAlreadyRunning
		}
		return nil
	}
	return ErrTaskNotFound
}

// GetTaskStatus returns all tasks with their current status. Running tasks
// report "running" and their live progress.
func (s *Service) GetTaskStatus() []config.ScheduledTask {
	settings, err := s.settings.Load()
	if err != nil {
		return nil
	}

	s.taskMu.RLock()
	defer s.taskMu.RUnlock()

	tasks := make([]config.ScheduledTask, len(settings.ScheduledTasks.Tasks))
	for i, task := range settings.ScheduledTasks.Tasks {
		tasks[i] = task
		if s.taskRunning[task.ID] {
			tasks[i].LastStatus = config.ScheduledTaskStatusRunning
			tasks[i].Progress = s.taskProgress[task.ID]
		}
	}
	return tasks
}

// IsTaskRunning checks if a specific task is currently running
func (s *Service) IsTaskRunning(taskID string) bool {
	s.taskMu.RLock()
	defer s.taskMu.RUnlock()
	return s.taskRunning[taskID]
}

// Wait blocks until every launched task has returned. It must not be called
// while the scheduler loop is running.
func (s *Service) Wait() {
	s.wg.Wait()
}
