package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContributionLedgerSumInvariant(t *testing.T) {
	m := Metric{ContributionsList: ContributionList{}}
	t1, t2 := uuid.New(), uuid.New()

	m.RecordContribution(t1, 2.5, time.Now())
	m.RecordContribution(t2, 4.0, time.Now())
	assert.Equal(t, 6.5, m.CurrentValue)
	assert.Equal(t, m.ContributionsList.Sum(), m.CurrentValue)

	m.RemoveContribution(t1)
	assert.Equal(t, 4.0, m.CurrentValue)
	assert.Len(t, m.ContributionsList, 1)
	assert.False(t, m.HasContribution(t1))
	assert.True(t, m.HasContribution(t2))

	m.RemoveContribution(t2)
	assert.Equal(t, 0.0, m.CurrentValue)
	assert.Empty(t, m.ContributionsList)
}

func TestContributionListScanMalformed(t *testing.T) {
	var l ContributionList
	require.NoError(t, l.Scan("not json at all"))
	assert.Empty(t, l)

	require.NoError(t, l.Scan(nil))
	assert.Empty(t, l)
}

func TestContributionListRoundTrip(t *testing.T) {
	taskID := uuid.New()
	l := ContributionList{{Value: 3, TaskID: taskID, Timestamp: time.Now().UTC()}}

	v, err := l.Value()
	require.NoError(t, err)

	var out ContributionList
	require.NoError(t, out.Scan(v))
	require.Len(t, out, 1)
	assert.Equal(t, taskID, out[0].TaskID)
	assert.Equal(t, 3.0, out[0].Value)
}

func TestStringListScan(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan(`["a","b"]`))
	assert.Equal(t, StringList{"a", "b"}, l)

	require.NoError(t, l.Scan([]byte("{{broken")))
	assert.Empty(t, l)
}
