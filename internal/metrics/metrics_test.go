package metrics

import (
	"strings"
	"testing"
)

func TestRecordRequestAndExport(t *testing.T) {
	// Record a single request and ensure it appears in the export.
	RecordRequest("GET", "/api/ip/select", 200, 42)

	out := Export()
	if !strings.Contains(out, "ipsync_http_requests_total{method=\"GET\",path=\"/api/ip/select\",status=\"200\"}") {
		t.Fatalf("expected HTTP request metric for GET /api/ip/select in export, got:\n%s", out)
	}
	if !strings.Contains(out, "ipsync_http_request_duration_ms_sum") || !strings.Contains(out, "ipsync_http_request_duration_ms_count") {
		t.Fatalf("expected latency metrics headers in export, got:\n%s", out)
	}
}

func TestRecordSpeedTestMetrics(t *testing.T) {
	RecordSpeedTestAdmission(true)
	RecordSpeedTestAdmission(false)
	RecordSpeedTestRun("succeeded", 1500)
	RecordSpeedTestRun("failed", 20)

	out := Export()
	for _, want := range []string{
		"ipsync_speedtest_admissions_total{result=\"admitted\"}",
		"ipsync_speedtest_admissions_total{result=\"joined\"}",
		"ipsync_speedtest_runs_total{outcome=\"succeeded\"}",
		"ipsync_speedtest_runs_total{outcome=\"failed\"}",
		"ipsync_speedtest_duration_ms_sum{outcome=\"succeeded\"}",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in export, got:\n%s", want, out)
		}
	}
}

func TestRecordResultAndDNSMetrics(t *testing.T) {
	RecordResultRead(true, 3)
	RecordResultRead(false, 0)
	RecordDNSSync(true)

	out := Export()
	if !strings.Contains(out, "ipsync_result_reads_total{success=\"true\"}") {
		t.Fatalf("expected successful result read metric, got:\n%s", out)
	}
	if !strings.Contains(out, "ipsync_result_reads_total{success=\"false\"}") {
		t.Fatalf("expected failed result read metric, got:\n%s", out)
	}
	if !strings.Contains(out, "ipsync_dns_syncs_total{success=\"true\"}") {
		t.Fatalf("expected dns sync metric, got:\n%s", out)
	}
}
