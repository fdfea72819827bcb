package namesilo_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ipsync/internal/config"
	"ipsync/internal/namesilo"
)

func newClient(t *testing.T, h http.HandlerFunc) (*namesilo.Client, *[]*url.URL) {
	t.Helper()
	var seen []*url.URL
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := *r.URL
		seen = append(seen, &u)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := namesilo.New(config.NamesiloConfig{
		URL:    srv.URL + "/",
		Key:    "k3y",
		Domain: "example.com",
		RRHost: "www",
		RRTTL:  "3600",
	})
	require.NoError(t, err)
	return c, &seen
}

func TestListRecords(t *testing.T) {
	t.Parallel()

	c, seen := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"request":{"operation":"dnsListRecords","ip":"1.2.3.4"},
			"reply":{"code":300,"detail":"success","resource_record":[
			{"record_id":"abc","type":"A","host":"example.com","value":"1.1.1.1","ttl":"7207","distance":0},
			{"record_id":"def","type":"A","host":"www.example.com","value":"1.0.0.1","ttl":"3600","distance":0}]}}`))
	})

	records, err := c.ListRecords(t.Context())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, namesilo.ResourceRecord{RecordID: "def", Type: "A", Host: "www.example.com", Value: "1.0.0.1", TTL: "3600"}, records[1])

	require.Equal(t, "/api/dnsListRecords", (*seen)[0].Path)
	q := (*seen)[0].Query()
	require.Equal(t, "1", q.Get("version"))
	require.Equal(t, "json", q.Get("type"))
	require.Equal(t, "k3y", q.Get("key"))
	require.Equal(t, "example.com", q.Get("domain"))
}

func TestUpdateRecord(t *testing.T) {
	t.Parallel()

	c, seen := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reply":{"code":"300","detail":"success","record_id":"def"}}`))
	})

	require.NoError(t, c.UpdateRecord(t.Context(), "def", "104.16.1.1"))

	require.Equal(t, "/api/dnsUpdateRecord", (*seen)[0].Path)
	q := (*seen)[0].Query()
	require.Equal(t, "def", q.Get("rrid"))
	require.Equal(t, "www", q.Get("rrhost"))
	require.Equal(t, "104.16.1.1", q.Get("rrvalue"))
	require.Equal(t, "3600", q.Get("rrttl"))
}

func TestReplyError(t *testing.T) {
	t.Parallel()

	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reply":{"code":110,"detail":"Invalid API Key"}}`))
	})

	_, err := c.ListRecords(t.Context())
	var replyErr *namesilo.ReplyError
	require.ErrorAs(t, err, &replyErr)
	require.Equal(t, 110, replyErr.Code)
	require.Equal(t, "Invalid API Key", replyErr.Detail)

	err = c.UpdateRecord(t.Context(), "x", "1.1.1.1")
	require.ErrorAs(t, err, &replyErr)
	require.Equal(t, "dnsUpdateRecord", replyErr.Op)
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.ListRecords(t.Context())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status 502")
}

func TestTransportErrorHidesKey(t *testing.T) {
	t.Parallel()

	c, err := namesilo.New(config.NamesiloConfig{URL: "http://127.0.0.1:1", Key: "super-secret", Domain: "example.com"})
	require.NoError(t, err)

	_, err = c.ListRecords(t.Context())
	require.Error(t, err)
	require.False(t, strings.Contains(err.Error(), "super-secret"), err.Error())
}

func TestNewRequiresURL(t *testing.T) {
	t.Parallel()

	_, err := namesilo.New(config.NamesiloConfig{})
	require.Error(t, err)
}
