package candidates

import (
	"testing"

	"github.com/ink1ing/rambooster/pkg/procs"
	"github.com/stretchr/testify/assert"
)

func inventory() []procs.ProcessRecord {
	return []procs.ProcessRecord{
		{Pid: 1, Name: "big", RssMb: 600},
		{Pid: 2, Name: "toosmall", RssMb: 400},
		{Pid: 3, Name: "frontapp", RssMb: 700, IsFrontmost: true},
		{Pid: 4, Name: "denied", RssMb: 800},
		{Pid: 5, Name: "allowed", RssMb: 900},
	}
}

func pids(records []procs.ProcessRecord) []int32 {
	out := make([]int32, 0, len(records))
	for _, r := range records {
		out = append(out, r.Pid)
	}
	return out
}

func TestSelect(t *testing.T) {
	t.Run("threshold and frontmost filtering", func(t *testing.T) {
		got := Select(inventory(), 500, nil, nil)
		assert.ElementsMatch(t, []int32{1, 4, 5}, pids(got))
	})

	t.Run("denylist removes by name", func(t *testing.T) {
		got := Select(inventory(), 500, nil, []string{"denied"})
		assert.ElementsMatch(t, []int32{1, 5}, pids(got))
	})

	t.Run("non-empty allowlist restricts to members", func(t *testing.T) {
		got := Select(inventory(), 500, []string{"allowed"}, []string{"denied"})
		assert.Equal(t, []int32{5}, pids(got))
	})

	t.Run("threshold boundary is inclusive", func(t *testing.T) {
		got := Select(inventory(), 600, nil, nil)
		assert.ElementsMatch(t, []int32{1, 4, 5}, pids(got))
	})

	t.Run("empty inventory yields empty result", func(t *testing.T) {
		assert.Empty(t, Select(nil, 500, nil, nil))
	})

	t.Run("deny wins over allow", func(t *testing.T) {
		got := Select(inventory(), 500, []string{"denied"}, []string{"denied"})
		assert.Empty(t, got)
	})
}
