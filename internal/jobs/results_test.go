package jobs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ipsync/internal/jobs"
)

func TestParseResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []jobs.Row
	}{
		{
			name: "filters non-positive and non-numeric latencies",
			text: "header\nA,1.5\nB,0\nC,-2\nD,abc\nE,3.0\n",
			want: []jobs.Row{{"A", "1.5"}, {"E", "3.0"}},
		},
		{
			name: "empty artifact",
			text: "",
			want: []jobs.Row{},
		},
		{
			name: "header only",
			text: "ip,latency",
			want: []jobs.Row{},
		},
		{
			name: "header only with newline",
			text: "ip,latency\n",
			want: []jobs.Row{},
		},
		{
			name: "header is skipped even when numeric",
			text: "x,5\nA,2",
			want: []jobs.Row{{"A", "2"}},
		},
		{
			name: "crlf line endings",
			text: "ip,sent,latency\r\n1.1.1.1,4,23.4\r\n",
			want: []jobs.Row{{"1.1.1.1", "4", "23.4"}},
		},
		{
			name: "infinite and NaN latencies are dropped",
			text: "h\nA,inf\nB,NaN\nC,0.01",
			want: []jobs.Row{{"C", "0.01"}},
		},
		{
			name: "surrounding whitespace and hex floats are dropped",
			text: "h\nA, 1.5\nB,1.5 \nC,0x1p1\nD,2.5",
			want: []jobs.Row{{"D", "2.5"}},
		},
		{
			name: "blank lines are dropped",
			text: "h\n\nA,1\n\n",
			want: []jobs.Row{{"A", "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jobs.CollectRows(jobs.ParseResults(tt.text))
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseResultsIsRestartable(t *testing.T) {
	t.Parallel()

	seq := jobs.ParseResults("h\nA,1\nB,2\n")
	first := jobs.CollectRows(seq)
	second := jobs.CollectRows(seq)
	require.Equal(t, first, second)
	require.Len(t, first, 2)

	// stopping early must not disturb the next iteration
	for row := range seq {
		require.Equal(t, jobs.Row{"A", "1"}, row)
		break
	}
	require.Len(t, jobs.CollectRows(seq), 2)
}

func TestReadResults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "result.csv")

	_, err := jobs.ReadResults(path)
	var artErr *jobs.ArtifactError
	require.ErrorAs(t, err, &artErr)
	require.Equal(t, "read", artErr.Op)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte("ip,latency\n"), 0o644))
	rows, err := jobs.ReadResults(path)
	require.NoError(t, err)
	require.NotNil(t, rows)
	require.Empty(t, rows)
}

func TestRowLatency(t *testing.T) {
	t.Parallel()

	v, ok := jobs.Row{"1.1.1.1", "12.5"}.Latency()
	require.True(t, ok)
	require.InDelta(t, 12.5, v, 1e-9)

	for _, field := range []string{" 12.5", "12.5 ", "\t1", "0x1p1", "0X10", "1p3", ""} {
		_, ok = jobs.Row{"1.1.1.1", field}.Latency()
		require.False(t, ok, "field %q", field)
	}

	_, ok = jobs.Row{}.Latency()
	require.False(t, ok)
}
