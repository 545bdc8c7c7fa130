package service

import (
	"sync"

	"rental/internal/domain"
)

// InsuranceTable holds per-host pool contribution rates in PPM of net
// earnings. Hosts are opted out by default; admin updates opt them in.
// Versioned and mutated like TaxTable.
type InsuranceTable struct {
	mu      sync.RWMutex
	version int64
	ppm     map[string]int64
}

// NewInsuranceTable creates an empty InsuranceTable.
func NewInsuranceTable() *InsuranceTable {
	return &InsuranceTable{ppm: make(map[string]int64)}
}

// PPMFor returns the host's contribution rate, zero when not enrolled.
func (t *InsuranceTable) PPMFor(hostID string) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ppm[hostID]
}

// Enrolled reports whether the host contributes to the pool.
func (t *InsuranceTable) Enrolled(hostID string) bool {
	return t.PPMFor(hostID) > 0
}

// SetPPM installs a host's contribution rate and bumps the version. A zero
// rate unenrolls the host.
func (t *InsuranceTable) SetPPM(hostID string, ppm int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ppm <= 0 {
		delete(t.ppm, hostID)
	} else {
		t.ppm[hostID] = ppm
	}
	t.version++
}

// Version returns the current configuration version.
func (t *InsuranceTable) Version() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// PoolAccount returns the custody account holding a host's insurance pool.
func PoolAccount(hostID string) string {
	return domain.AccountInsurancePool + ":" + hostID
}
