// Package packing verifies a carton's packing order against its size run by
// consuming UPC scans.
package packing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mamadbah2/checksheet/internal/apperrors"
	"github.com/mamadbah2/checksheet/internal/domain/models"
	"github.com/mamadbah2/checksheet/internal/service/siblings"
)

// State of a verification session.
type State string

const (
	StateIdle         State = "IDLE"
	StateAwaitingScan State = "AWAITING_SCAN"
	StateSatisfied    State = "SATISFIED"
)

// ManifestSource loads the size run for an item code type.
type ManifestSource interface {
	GetSizeManifest(ctx context.Context, sizeRun string) (models.SizeManifest, error)
}

// SizeLookup resolves a UPC to its shoe size.
type SizeLookup interface {
	GetShoeByUPC(ctx context.Context, upc string) (models.Shoe, error)
}

// Slot is one expected pair in the carton.
type Slot struct {
	Size      models.Size `json:"size"`
	Satisfied bool        `json:"satisfied"`
}

// ScanRecord is one accepted scan.
type ScanRecord struct {
	UPC       string      `json:"upc"`
	Size      models.Size `json:"size"`
	Slot      int         `json:"slot"`
	ScannedAt time.Time   `json:"scannedAt"`
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	SizeRun      string         `json:"sizeRun"`
	State        State          `json:"state"`
	Slots        []Slot         `json:"slots"`
	Counts       map[string]int `json:"counts"`
	History      []ScanRecord   `json:"history"`
	Pending      string         `json:"pending"`
	AllSatisfied bool           `json:"allSatisfied"`
}

// Verifier matches scans against a size manifest. The manifest is fixed for
// the lifetime of the verifier; Reset clears progress only.
type Verifier struct {
	manifest   models.SizeManifest
	lookup     SizeLookup
	terminator rune
	now        func() time.Time

	mu      sync.Mutex
	slots   []Slot
	counts  map[string]int
	history []ScanRecord
	pending []rune
}

// SizeRunFor returns the size run code of an item, its trailing code segment.
func SizeRunFor(itemCode string) string {
	return siblings.Parse(itemCode).Suffix
}

// Open fetches the manifest for sizeRun and starts a verifier over it.
func Open(ctx context.Context, manifests ManifestSource, lookup SizeLookup, sizeRun string, terminator rune) (*Verifier, error) {
	manifest, err := manifests.GetSizeManifest(ctx, sizeRun)
	if err != nil {
		return nil, fmt.Errorf("load size run %s: %w", sizeRun, err)
	}
	return New(manifest, lookup, terminator), nil
}

// New builds a verifier over an already loaded manifest.
func New(manifest models.SizeManifest, lookup SizeLookup, terminator rune) *Verifier {
	v := &Verifier{
		manifest:   manifest,
		lookup:     lookup,
		terminator: terminator,
		now:        time.Now,
	}
	v.resetLocked()
	return v
}

// Reset marks every slot unsatisfied and forgets all scans.
func (v *Verifier) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resetLocked()
}

func (v *Verifier) resetLocked() {
	v.slots = v.slots[:0]
	for _, entry := range v.manifest.Sizes {
		for i := 0; i < int(entry.Quantity); i++ {
			v.slots = append(v.slots, Slot{Size: entry.Size})
		}
	}
	v.counts = make(map[string]int)
	v.history = nil
	v.pending = nil
}

// AllSatisfied reports whether every slot has been filled.
func (v *Verifier) AllSatisfied() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.allSatisfiedLocked()
}

func (v *Verifier) allSatisfiedLocked() bool {
	for _, s := range v.slots {
		if !s.Satisfied {
			return false
		}
	}
	return true
}

// State reports where the session is.
func (v *Verifier) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

func (v *Verifier) stateLocked() State {
	switch {
	case v.allSatisfiedLocked():
		return StateSatisfied
	case len(v.history) == 0:
		return StateIdle
	default:
		return StateAwaitingScan
	}
}

// Scan evaluates one UPC. Rejected scans leave the session unchanged.
func (v *Verifier) Scan(ctx context.Context, upc string) (ScanRecord, error) {
	shoe, err := v.lookup.GetShoeByUPC(ctx, upc)
	if err != nil {
		return ScanRecord{}, fmt.Errorf("look up upc %s: %w", upc, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	required, ok := v.manifest.QuantityFor(shoe.Size)
	if !ok {
		return ScanRecord{}, apperrors.Newf(apperrors.KindInvalidScan, "invalid UPC scanned: size %s is not in size run %s", shoe.Size, v.manifest.SizeRun)
	}
	if v.counts[upc] >= required {
		return ScanRecord{}, apperrors.Newf(apperrors.KindOverScanned, "you have already scanned this UPC (size %s) %d times", shoe.Size, required)
	}

	slot := -1
	for i, s := range v.slots {
		if !s.Satisfied && s.Size.Equal(shoe.Size) {
			slot = i
			break
		}
	}
	if slot < 0 {
		return ScanRecord{}, apperrors.Newf(apperrors.KindOverScanned, "every size %s slot is already filled", shoe.Size)
	}

	v.slots[slot].Satisfied = true
	v.counts[upc]++
	rec := ScanRecord{UPC: upc, Size: shoe.Size, Slot: slot, ScannedAt: v.now().UTC()}
	v.history = append(v.history, rec)
	return rec, nil
}

// Feed adds one keystroke. When the terminator arrives the pending buffer is
// scanned and cleared whatever the outcome; ready reports that a scan ran.
func (v *Verifier) Feed(ctx context.Context, key rune) (rec ScanRecord, ready bool, err error) {
	v.mu.Lock()
	if key != v.terminator {
		v.pending = append(v.pending, key)
		v.mu.Unlock()
		return ScanRecord{}, false, nil
	}
	upc := string(v.pending)
	v.pending = nil
	v.mu.Unlock()

	if upc == "" {
		return ScanRecord{}, false, nil
	}
	rec, err = v.Scan(ctx, upc)
	return rec, true, err
}

// Snapshot returns a copy of the session state.
func (v *Verifier) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	counts := make(map[string]int, len(v.counts))
	for k, n := range v.counts {
		counts[k] = n
	}
	return Snapshot{
		SizeRun:      v.manifest.SizeRun,
		State:        v.stateLocked(),
		Slots:        append([]Slot(nil), v.slots...),
		Counts:       counts,
		History:      append([]ScanRecord(nil), v.history...),
		Pending:      string(v.pending),
		AllSatisfied: v.allSatisfiedLocked(),
	}
}
