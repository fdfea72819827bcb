package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Simple Prometheus-style metrics for the HTTP API, speed-test runs and DNS
// syncs. In-memory only.

var (
	mu             sync.RWMutex
	requestsTotal  = make(map[reqKey]int64)
	latencyMsSum   = make(map[latKey]int64)
	latencyMsCount = make(map[latKey]int64)

	speedTestAdmissions  = make(map[string]int64)
	speedTestRuns        = make(map[string]int64)
	speedTestDurationSum = make(map[string]int64)
	resultReads          = make(map[string]int64)
	resultRowsTotal      int64

	dnsSyncs = make(map[string]int64)
)

type reqKey struct {
	Method string
	Path   string
	Status int
}

type latKey struct {
	Method string
	Path   string
}

// RecordRequest increments request counter and records latency.
func RecordRequest(method, path string, status int, latencyMs int64) {
	mu.Lock()
	defer mu.Unlock()

	rk := reqKey{Method: method, Path: path, Status: status}
	requestsTotal[rk]++

	lk := latKey{Method: method, Path: path}
	latencyMsSum[lk] += latencyMs
	latencyMsCount[lk]++
}

// RecordSpeedTestAdmission counts start requests, split by whether they
// launched a new run or joined the one already in flight.
func RecordSpeedTestAdmission(admitted bool) {
	mu.Lock()
	defer mu.Unlock()

	if admitted {
		speedTestAdmissions["admitted"]++
	} else {
		speedTestAdmissions["joined"]++
	}
}

// RecordSpeedTestRun records the outcome ("succeeded" or "failed") and
// duration of a finished run.
func RecordSpeedTestRun(outcome string, durationMs int64) {
	mu.Lock()
	defer mu.Unlock()

	speedTestRuns[outcome]++
	speedTestDurationSum[outcome] += durationMs
}

// RecordResultRead counts reads of the result artifact and the number of
// valid rows returned by successful reads.
func RecordResultRead(success bool, rows int) {
	mu.Lock()
	defer mu.Unlock()

	if !success {
		resultReads["false"]++
		return
	}
	resultReads["true"]++
	resultRowsTotal += int64(rows)
}

// RecordDNSSync counts DNS record updates by outcome.
func RecordDNSSync(success bool) {
	mu.Lock()
	defer mu.Unlock()

	s := "false"
	if success {
		s = "true"
	}
	dnsSyncs[s]++
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Export returns Prometheus-style metrics text.
func Export() string {
	mu.RLock()
	defer mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP ipsync_http_requests_total Total HTTP requests\n")
	b.WriteString("# TYPE ipsync_http_requests_total counter\n")

	// Sort keys for stable output
	var reqKeys []reqKey
	for k := range requestsTotal {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].Method != reqKeys[j].Method {
			return reqKeys[i].Method < reqKeys[j].Method
		}
		if reqKeys[i].Path != reqKeys[j].Path {
			return reqKeys[i].Path < reqKeys[j].Path
		}
		return reqKeys[i].Status < reqKeys[j].Status
	})

	for _, k := range reqKeys {
		v := requestsTotal[k]
		fmt.Fprintf(&b, "ipsync_http_requests_total{method=\"%s\",path=\"%s\",status=\"%d\"} %d\n",
			k.Method, k.Path, k.Status, v)
	}

	b.WriteString("# HELP ipsync_http_request_duration_ms_sum Total request duration in milliseconds\n")
	b.WriteString("# TYPE ipsync_http_request_duration_ms_sum counter\n")
	b.WriteString("# HELP ipsync_http_request_duration_ms_count Request count for latency metric\n")
	b.WriteString("# TYPE ipsync_http_request_duration_ms_count counter\n")

	var latKeys []latKey
	for k := range latencyMsSum {
		latKeys = append(latKeys, k)
	}
	sort.Slice(latKeys, func(i, j int) bool {
		if latKeys[i].Method != latKeys[j].Method {
			return latKeys[i].Method < latKeys[j].Method
		}
		return latKeys[i].Path < latKeys[j].Path
	})

	for _, k := range latKeys {
		sum := latencyMsSum[k]
		cnt := latencyMsCount[k]
		fmt.Fprintf(&b, "ipsync_http_request_duration_ms_sum{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, sum)
		fmt.Fprintf(&b, "ipsync_http_request_duration_ms_count{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, cnt)
	}

	b.WriteString("# HELP ipsync_speedtest_admissions_total Speed test start requests by admission result\n")
	b.WriteString("# TYPE ipsync_speedtest_admissions_total counter\n")
	for _, k := range sortedKeys(speedTestAdmissions) {
		fmt.Fprintf(&b, "ipsync_speedtest_admissions_total{result=\"%s\"} %d\n", k, speedTestAdmissions[k])
	}

	b.WriteString("# HELP ipsync_speedtest_runs_total Finished speed test runs by outcome\n")
	b.WriteString("# TYPE ipsync_speedtest_runs_total counter\n")
	for _, k := range sortedKeys(speedTestRuns) {
		fmt.Fprintf(&b, "ipsync_speedtest_runs_total{outcome=\"%s\"} %d\n", k, speedTestRuns[k])
	}

	b.WriteString("# HELP ipsync_speedtest_duration_ms_sum Total speed test run time in milliseconds\n")
	b.WriteString("# TYPE ipsync_speedtest_duration_ms_sum counter\n")
	for _, k := range sortedKeys(speedTestDurationSum) {
		fmt.Fprintf(&b, "ipsync_speedtest_duration_ms_sum{outcome=\"%s\"} %d\n", k, speedTestDurationSum[k])
	}

	b.WriteString("# HELP ipsync_result_reads_total Result artifact reads by success\n")
	b.WriteString("# TYPE ipsync_result_reads_total counter\n")
	for _, k := range sortedKeys(resultReads) {
		fmt.Fprintf(&b, "ipsync_result_reads_total{success=\"%s\"} %d\n", k, resultReads[k])
	}

	b.WriteString("# HELP ipsync_result_rows_total Valid result rows returned\n")
	b.WriteString("# TYPE ipsync_result_rows_total counter\n")
	fmt.Fprintf(&b, "ipsync_result_rows_total %d\n", resultRowsTotal)

	b.WriteString("# HELP ipsync_dns_syncs_total DNS record updates by success\n")
	b.WriteString("# TYPE ipsync_dns_syncs_total counter\n")
	for _, k := range sortedKeys(dnsSyncs) {
		fmt.Fprintf(&b, "ipsync_dns_syncs_total{success=\"%s\"} %d\n", k, dnsSyncs[k])
	}

	return b.String()
}
