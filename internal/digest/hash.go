package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainRun prefixes run digests. The version suffix allows the encoding
// to change without colliding with old digests.
const DomainRun = "smtcomb/run/v1"

// Sum returns the hex SHA-256 of domain, a NUL separator and data.
func Sum(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Of canonicalizes v and returns its digest under domain.
func Of(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", domain, err)
	}
	return Sum(domain, data), nil
}

// Delivery is the digest input for one delivered equality.
type Delivery struct {
	Epoch   uint64
	From    string
	To      string
	A, B    string
	Because []string
}

// Run is the digest input for a whole run. Terms appear by label so the
// digest does not depend on handle allocation order.
type Run struct {
	Theories   []string
	Sharing    []Rule
	Shared     []string
	FinalEpoch uint64
	Deliveries []Delivery
}

// Rule is one sharing rule as it enters the digest.
type Rule struct {
	From, To string
	Allow    bool
}

// RunDigest returns the digest of r under DomainRun.
func RunDigest(r Run) (string, error) {
	rules := make(Array, len(r.Sharing))
	for i, rule := range r.Sharing {
		rules[i] = Object{"from": rule.From, "to": rule.To, "allow": rule.Allow}
	}
	deliveries := make(Array, len(r.Deliveries))
	for i, d := range r.Deliveries {
		because := d.Because
		if because == nil {
			because = []string{}
		}
		deliveries[i] = Object{
			"epoch":   d.Epoch,
			"from":    d.From,
			"to":      d.To,
			"a":       d.A,
			"b":       d.B,
			"because": because,
		}
	}
	shared := r.Shared
	if shared == nil {
		shared = []string{}
	}
	theories := r.Theories
	if theories == nil {
		theories = []string{}
	}
	return Of(DomainRun, Object{
		"theories":    theories,
		"sharing":     rules,
		"shared":      shared,
		"final_epoch": r.FinalEpoch,
		"deliveries":  deliveries,
	})
}
