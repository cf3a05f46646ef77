package history

import (
	"sync"

	"github.com/zefiro/zefiro-job/models"
)

// History Bounded record of finished workloads, oldest dropped first
type History interface {
	// Add Records a finished workload, replacing an earlier record with the same id
	Add(status models.WorkloadStatus)
	// Get Finds the record of a workload
	Get(id string) (models.WorkloadStatus, bool)
	// List Records from oldest to newest
	List() []models.WorkloadStatus
}

type history struct {
	mu      sync.Mutex
	limit   int
	records []models.WorkloadStatus
}

// NewHistory Constructor for workload History. A limit below 1 keeps a single record
func NewHistory(limit int) History {
	return &history{limit: max(limit, 1)}
}

func (h *history) Add(status models.WorkloadStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, record := range h.records {
		if record.ID == status.ID {
			h.records = append(h.records[:i], h.records[i+1:]...)
			break
		}
	}
	h.records = append(h.records, status)
	if numToDelete := len(h.records) - h.limit; numToDelete > 0 {
		h.records = append([]models.WorkloadStatus(nil), h.records[numToDelete:]...)
	}
}

func (h *history) Get(id string) (models.WorkloadStatus, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].ID == id {
			return h.records[i], true
		}
	}
	return models.WorkloadStatus{}, false
}

func (h *history) List() []models.WorkloadStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.WorkloadStatus(nil), h.records...)
}
