package common_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefiro/zefiro-job/models/common"
)

func Test_PriorityLevelNames(t *testing.T) {
	expected := map[common.PriorityLevel]string{
		common.PriorityLowest:  "lowest",
		common.PriorityLow:     "low",
		common.PriorityMedium:  "medium",
		common.PriorityHigh:    "high",
		common.PriorityHighest: "highest",
	}
	for priority, name := range expected {
		assert.Equal(t, name, priority.String())
		parsed, err := common.ParsePriorityLevel(name)
		require.NoError(t, err)
		assert.Equal(t, priority, parsed)
	}
}

func Test_ParsePriorityLevelUnknown(t *testing.T) {
	_, err := common.ParsePriorityLevel("urgent")
	assert.Error(t, err)
	assert.False(t, common.PriorityLevel(42).IsValid())
	assert.Equal(t, "unsupported", common.PriorityLevel(42).String())
}

func Test_PriorityLevelJSON(t *testing.T) {
	var holder struct {
		Priority common.PriorityLevel `json:"priority"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"priority":"high"}`), &holder))
	assert.Equal(t, common.PriorityHigh, holder.Priority)

	assert.Error(t, json.Unmarshal([]byte(`{"priority":"urgent"}`), &holder))
	assert.Error(t, json.Unmarshal([]byte(`{"priority":3}`), &holder))

	data, err := json.Marshal(holder)
	require.NoError(t, err)
	assert.JSONEq(t, `{"priority":"high"}`, string(data))
}

func Test_LifecycleState(t *testing.T) {
	assert.Equal(t, "Queued", common.Queued.String())
	assert.Equal(t, "Stopping", common.Stopping.String())
	for _, state := range []common.LifecycleState{common.Done, common.Failed, common.Stopped} {
		assert.True(t, state.IsTerminal(), state.String())
	}
	for _, state := range []common.LifecycleState{common.Queued, common.Running, common.Stopping} {
		assert.False(t, state.IsTerminal(), state.String())
	}
	assert.Equal(t, "Unsupported", common.LifecycleState(99).String())
}
