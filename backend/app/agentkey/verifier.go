package agentkey

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"esn-monitor/backend/app/models"
)

// ErrStore wraps failures to load key records. Callers must treat it as a
// rejection.
var ErrStore = errors.New("agent key store unavailable")

// Lister loads the non-revoked key records.
type Lister interface {
	ListActive(ctx context.Context) ([]models.AgentKey, error)
}

// Outcome of a verification.
type Outcome int

const (
	Rejected Outcome = iota
	AuthorizedDevKey
	AuthorizedStored
)

func (o Outcome) Authorized() bool { return o != Rejected }

func (o Outcome) String() string {
	switch o {
	case AuthorizedDevKey:
		return "dev_key"
	case AuthorizedStored:
		return "stored"
	default:
		return "rejected"
	}
}

// Result describes an accepted or rejected credential. KeyID and ServerID
// are set only for AuthorizedStored.
type Result struct {
	Outcome  Outcome
	KeyID    string
	ServerID int64
	Kind     HashKind
}

// Verifier decides whether a presented agent credential is authentic.
// The developer allowlist is copied at construction and never changes.
type Verifier struct {
	devKeys map[string]struct{}
	keys    Lister
}

func NewVerifier(devKeys []string, keys Lister) *Verifier {
	set := make(map[string]struct{}, len(devKeys))
	for _, k := range devKeys {
		if k = strings.TrimSpace(k); k != "" {
			set[k] = struct{}{}
		}
	}
	return &Verifier{devKeys: set, keys: keys}
}

// Verify checks presented against the developer allowlist first, then
// against every active stored record in store order. The first match wins.
func (v *Verifier) Verify(ctx context.Context, presented string) (Result, error) {
	if presented == "" {
		return Result{Outcome: Rejected}, nil
	}
	if _, ok := v.devKeys[presented]; ok {
		return Result{Outcome: AuthorizedDevKey}, nil
	}
	records, err := v.keys.ListActive(ctx)
	if err != nil {
		return Result{Outcome: Rejected}, fmt.Errorf("%w: %w", ErrStore, err)
	}
	digest := Digest(presented)
	for _, rec := range records {
		h := ParseHash(rec.KeyHash)
		if Match(h, presented, digest) {
			return Result{Outcome: AuthorizedStored, KeyID: rec.ID, ServerID: rec.ServerID, Kind: h.Kind}, nil
		}
	}
	return Result{Outcome: Rejected}, nil
}

// Match compares one parsed record with the presented token and its digest.
// A record equal to the token matches regardless of its parsed shape.
func Match(h StoredHash, presented, digest string) bool {
	if equal(h.Raw, presented) {
		return true
	}
	switch h.Kind {
	case Prefixed:
		return equal(h.Value, digest)
	case BareHex:
		return equal(strings.ToLower(h.Value), digest)
	}
	return false
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
