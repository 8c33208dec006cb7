package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oguzkse/streamseek/pkg/models"
)

// GenerateBruteForce builds a deterministic synthetic candidate set when no
// source produced anything: label x TLD x numeric index, capped at
// cfg.MaxTotal, plus TLD-swapped variants of every generated name.
func GenerateBruteForce(cfg models.BruteForceConfig) []string {
	if len(cfg.Labels) == 0 || len(cfg.TLDs) == 0 {
		return nil
	}
	maxIndex := cfg.MaxIndex
	if maxIndex <= 0 {
		maxIndex = 30
	}
	maxTotal := cfg.MaxTotal
	if maxTotal <= 0 {
		maxTotal = 2000
	}

	set := make(map[string]struct{}, maxTotal)
	add := func(host string) bool {
		if len(set) >= maxTotal {
			return false
		}
		set[host] = struct{}{}
		return true
	}

done:
	for _, label := range cfg.Labels {
		for _, tld := range cfg.TLDs {
			if !add(fmt.Sprintf("%s.%s", label, tld)) {
				break done
			}
			for i := 1; i <= maxIndex; i++ {
				if !add(fmt.Sprintf("%s%d.%s", label, i, tld)) {
					break done
				}
			}
		}
	}

	// TLD swaps widen coverage when the provider hops registries. Bases are
	// walked in sorted order so the capped result never depends on map
	// iteration order.
	bases := make([]string, 0, len(set))
	for host := range set {
		bases = append(bases, host)
	}
	sort.Strings(bases)
swaps:
	for _, host := range bases {
		for _, swap := range cfg.SwapTLDs {
			idx := strings.LastIndex(host, ".")
			if idx < 0 {
				continue
			}
			variant := host[:idx+1] + swap
			if variant == host {
				continue
			}
			if len(set) >= 2*maxTotal {
				break swaps
			}
			set[variant] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for host := range set {
		out = append(out, host)
	}
	sort.Strings(out)
	return out
}
