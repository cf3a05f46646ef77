package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zefiro/zefiro-job/models"
	"github.com/zefiro/zefiro-job/models/common"
)

func ids(records []models.WorkloadStatus) []string {
	var result []string
	for _, record := range records {
		result = append(result, record.ID)
	}
	return result
}

func Test_History_Limit(t *testing.T) {
	h := NewHistory(2)
	h.Add(models.WorkloadStatus{ID: "a"})
	h.Add(models.WorkloadStatus{ID: "b"})
	h.Add(models.WorkloadStatus{ID: "c"})
	assert.Equal(t, []string{"b", "c"}, ids(h.List()))
	_, found := h.Get("a")
	assert.False(t, found)
}

func Test_History_ReplacesSameID(t *testing.T) {
	h := NewHistory(5)
	h.Add(models.WorkloadStatus{ID: "a", State: common.Failed})
	h.Add(models.WorkloadStatus{ID: "b"})
	h.Add(models.WorkloadStatus{ID: "a", State: common.Done})
	assert.Equal(t, []string{"b", "a"}, ids(h.List()))
	status, found := h.Get("a")
	assert.True(t, found)
	assert.Equal(t, common.Done, status.State)
}
