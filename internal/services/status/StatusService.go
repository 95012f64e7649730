package status

import (
	"math"
	"sync"
	"time"
)

// ProcessingStatus reports how far a batch job has progressed.
type ProcessingStatus struct {
	IsProcessing bool       `json:"isProcessing"`
	CurrentBatch int        `json:"currentBatch"`
	TotalBatches int        `json:"totalBatches"`
	Progress     float64    `json:"progress"`
	StartTime    *time.Time `json:"startTime"`
	Message      string     `json:"message"`
}

// StatusService tracks the state of long-running ingestion jobs so the API
// can report progress. Safe for concurrent use.
type StatusService struct {
	mu     sync.RWMutex
	status ProcessingStatus
}

func NewStatusService() *StatusService {
	return &StatusService{}
}

// Start initializes tracking for a job of totalItems split into batches.
func (s *StatusService) Start(totalItems, batchSize int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batchSize <= 0 {
		batchSize = 1
	}
	now := time.Now()
	s.status = ProcessingStatus{
		IsProcessing: true,
		TotalBatches: int(math.Ceil(float64(totalItems) / float64(batchSize))),
		StartTime:    &now,
		Message:      "processing started",
	}
}

// Update advances the current batch and recomputes progress.
func (s *StatusService) Update(currentBatch int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.CurrentBatch = currentBatch
	s.status.Message = message
	if s.status.TotalBatches > 0 {
		s.status.Progress = math.Min(float64(currentBatch)/float64(s.status.TotalBatches)*100, 100)
	}
}

// Finish marks the job done.
func (s *StatusService) Finish(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.IsProcessing = false
	s.status.Progress = 100
	s.status.Message = message
}

// Get returns a copy of the current status.
func (s *StatusService) Get() ProcessingStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
