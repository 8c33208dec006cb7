package validation

import (
	"context"
	"net"
	"reflect"
	"testing"
	"time"

	mdns "github.com/miekg/dns"

	"github.com/oguzkse/streamseek/pkg/models"
)

// startStubDNS serves A answers for the given hosts and NXDOMAIN for
// everything else, on an ephemeral localhost port.
func startStubDNS(t *testing.T, live map[string]bool) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	mux := mdns.NewServeMux()
	mux.HandleFunc(".", func(w mdns.ResponseWriter, req *mdns.Msg) {
		resp := new(mdns.Msg)
		resp.SetReply(req)
		name := req.Question[0].Name
		if live[name] && req.Question[0].Qtype == mdns.TypeA {
			rr, _ := mdns.NewRR(name + " 60 IN A 192.0.2.10")
			resp.Answer = append(resp.Answer, rr)
		} else if !live[name] {
			resp.Rcode = mdns.RcodeNameError
		}
		_ = w.WriteMsg(resp)
	})

	srv := &mdns.Server{PacketConn: pc, Handler: mux}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	return pc.LocalAddr().String()
}

func TestDNSFilterPassthrough(t *testing.T) {
	t.Parallel()

	hosts := []string{"a.example.sbs", "b.example.sbs"}

	disabled := NewDNSFilter(models.DNSCheckConfig{Enabled: false}, nil)
	if got := disabled.Filter(context.Background(), hosts); !reflect.DeepEqual(got, hosts) {
		t.Errorf("disabled filter changed the set: %v", got)
	}

	small := NewDNSFilter(models.DNSCheckConfig{
		Enabled:     true,
		Nameservers: []string{"127.0.0.1:1"},
		Threshold:   10,
		Concurrency: 4,
	}, nil)
	if got := small.Filter(context.Background(), hosts); !reflect.DeepEqual(got, hosts) {
		t.Errorf("below-threshold set must pass through untouched: %v", got)
	}
}

func TestDNSFilterDropsNXDomain(t *testing.T) {
	t.Parallel()

	addr := startStubDNS(t, map[string]bool{
		"live.zirvedesin.sbs.": true,
	})

	f := NewDNSFilter(models.DNSCheckConfig{
		Enabled:     true,
		Nameservers: []string{addr},
		Threshold:   0,
		Timeout:     2 * time.Second,
		Concurrency: 4,
	}, nil)

	got := f.Filter(context.Background(), []string{"live.zirvedesin.sbs", "gone.zirvedesin.sbs"})
	if len(got) != 1 || got[0] != "live.zirvedesin.sbs" {
		t.Errorf("Filter() = %v, want only the resolving host", got)
	}
}
