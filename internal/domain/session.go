package domain

// SessionPhase is the explicit lifecycle value for the current reporting
// session, replacing the new-user/new-session boolean pair.
type SessionPhase int

const (
	// PhaseInSession is the steady state: the starting dump has been sent.
	PhaseInSession SessionPhase = iota
	// PhaseNewUser means credentials were just entered; dump state on the
	// very next journal entry.
	PhaseNewUser
	// PhaseNewSession means a new game just loaded; wait for the inventory
	// event (or an explicit start-of-day event) before dumping state.
	PhaseNewSession
)

// Training arenas that must never be reported.
var trainingSystems = map[string]bool{
	"CQC":         true,
	"Training":    true,
	"Destination": true,
}

// IsTrainingSystem reports whether systemName is a simulation arena rather
// than a real location.
func IsTrainingSystem(systemName string) bool { return trainingSystems[systemName] }

type cachedList struct {
	set   bool
	items []Payload
}

func (c *cachedList) update(items []Payload) (changed bool) {
	if c.set && payloadListEqual(c.items, items) {
		return false
	}
	c.set = true
	c.items = items
	return true
}

// SessionState is the mutable per-session snapshot owned by the translator:
// commander identity, lifecycle phase and flags, and the cached "last sent"
// artifacts that suppress redundant reports. A cached artifact is only
// overwritten when an equivalent report is queued, not when it is delivered.
type SessionState struct {
	Commander  string
	FrontierID string
	Multicrew  bool

	phase        SessionPhase
	justUndocked bool
	suppressDock bool
	swapPending  bool

	lastCredits   int64
	cargo         cachedList
	materials     cachedList
	fleet         cachedList
	storedModules cachedList
	loadout       Payload
	loadoutSet    bool
}

func (s *SessionState) Phase() SessionPhase { return s.phase }
func (s *SessionState) IsNewUser() bool     { return s.phase == PhaseNewUser }
func (s *SessionState) IsNewSession() bool  { return s.phase == PhaseNewSession }

// MarkNewUser records that private API credentials were just entered.
func (s *SessionState) MarkNewUser() { s.phase = PhaseNewUser }

// BeginSession closes the starting window after the initial-state dump.
func (s *SessionState) BeginSession() { s.phase = PhaseInSession }

// EndNewUserWindow drops the new-user phase after an entry has been fully
// processed without triggering the dump.
func (s *SessionState) EndNewUserWindow() {
	if s.phase == PhaseNewUser {
		s.phase = PhaseInSession
	}
}

// ResetForNewGame clears all cached artifacts and flags for a freshly
// loaded game.
func (s *SessionState) ResetForNewGame() {
	s.reset()
	s.phase = PhaseNewSession
}

// ResetForNewUser clears all cached artifacts and flags when credentials
// arrive mid-session; the dump fires on this same entry.
func (s *SessionState) ResetForNewUser() {
	s.reset()
	s.phase = PhaseNewUser
}

func (s *SessionState) reset() {
	s.justUndocked = false
	s.suppressDock = false
	s.swapPending = false
	s.lastCredits = 0
	s.cargo = cachedList{}
	s.materials = cachedList{}
	s.fleet = cachedList{}
	s.storedModules = cachedList{}
	s.loadout = nil
	s.loadoutSet = false
}

// ClearCreditsMarker forces the next credits derivation to re-send, used
// after rank- or rebuy-scale financial events.
func (s *SessionState) ClearCreditsMarker() { s.lastCredits = 0 }

func (s *SessionState) LastCredits() int64     { return s.lastCredits }
func (s *SessionState) SetLastCredits(c int64) { s.lastCredits = c }

// SuppressNextDock skips the one dock report that would duplicate an
// already-docked starting location or a shipyard acquisition.
func (s *SessionState) SuppressNextDock() { s.suppressDock = true }

// ConsumeDockSuppression reports whether the current dock report should be
// dropped, clearing whichever flag caused the suppression.
func (s *SessionState) ConsumeDockSuppression() bool {
	if s.justUndocked {
		s.justUndocked = false
		return true
	}
	if s.suppressDock {
		s.suppressDock = false
		return true
	}
	return false
}

func (s *SessionState) MarkUndocked()  { s.justUndocked = true }
func (s *SessionState) ClearUndocked() { s.justUndocked = false }

// MarkSwapPending records a ship acquisition or swap whose name and ident
// are unknown until the following loadout event.
func (s *SessionState) MarkSwapPending()  { s.swapPending = true }
func (s *SessionState) ClearSwapPending() { s.swapPending = false }
func (s *SessionState) SwapPending() bool { return s.swapPending }

// UpdateCargo stores the cargo snapshot and reports whether it differs from
// the last queued one.
func (s *SessionState) UpdateCargo(items []Payload) bool { return s.cargo.update(items) }

// UpdateMaterials stores the materials snapshot and reports whether it
// differs from the last queued one.
func (s *SessionState) UpdateMaterials(items []Payload) bool { return s.materials.update(items) }

// UpdateFleet stores the fleet listing and reports whether it differs from
// the last queued one.
func (s *SessionState) UpdateFleet(ships []Payload) bool { return s.fleet.update(ships) }

// UpdateStoredModules stores the stored-modules listing and reports whether
// it differs from the last queued one.
func (s *SessionState) UpdateStoredModules(modules []Payload) bool {
	return s.storedModules.update(modules)
}

// UpdateLoadout stores the full loadout report and reports whether it
// differs from the last queued one.
func (s *SessionState) UpdateLoadout(loadout Payload) bool {
	if s.loadoutSet && s.loadout.Equal(loadout) {
		return false
	}
	s.loadout = loadout
	s.loadoutSet = true
	return true
}

// SetLoadout overwrites the cached loadout without comparing, for the
// unconditional sends during the starting dump and swap confirmation.
func (s *SessionState) SetLoadout(loadout Payload) {
	s.loadout = loadout
	s.loadoutSet = true
}
