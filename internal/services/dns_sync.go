package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"ipsync/internal/metrics"
	"ipsync/internal/namesilo"
)

// ErrTargetHostNotFound is returned when the domain has no record for the
// configured host.
var ErrTargetHostNotFound = errors.New("target host not found")

// Registrar is the subset of the registrar API DNS sync depends on.
type Registrar interface {
	ListRecords(ctx context.Context) ([]namesilo.ResourceRecord, error)
	UpdateRecord(ctx context.Context, recordID, value string) error
}

// DNSSync points one DNS record of a domain at a chosen address.
type DNSSync interface {
	Sync(ctx context.Context, ip string) error
}

type dnsSync struct {
	registrar Registrar
	host      string
	logger    *slog.Logger
}

// NewDNSSync creates a DNSSync updating the record whose fully-qualified
// host is rrhost.domain, or the bare domain when rrhost is empty or "@".
func NewDNSSync(registrar Registrar, domain, rrhost string, logger *slog.Logger) DNSSync {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &dnsSync{
		registrar: registrar,
		host:      TargetHost(domain, rrhost),
		logger:    logger,
	}
}

// TargetHost builds the fully-qualified host name a record is matched by.
func TargetHost(domain, rrhost string) string {
	rrhost = strings.TrimSpace(rrhost)
	if rrhost == "" || rrhost == "@" {
		return domain
	}
	return rrhost + "." + domain
}

func (s *dnsSync) Sync(ctx context.Context, ip string) error {
	err := s.sync(ctx, ip)
	metrics.RecordDNSSync(err == nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "dns_sync_failed", "host", s.host, "ip", ip, "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "dns_sync_succeeded", "host", s.host, "ip", ip)
	return nil
}

func (s *dnsSync) sync(ctx context.Context, ip string) error {
	records, err := s.registrar.ListRecords(ctx)
	if err != nil {
		return err
	}

	for _, rr := range records {
		if !strings.EqualFold(rr.Host, s.host) {
			continue
		}
		if err := s.registrar.UpdateRecord(ctx, rr.RecordID, ip); err != nil {
			return fmt.Errorf("record %s: %w", rr.RecordID, err)
		}
		return nil
	}

	return ErrTargetHostNotFound
}
