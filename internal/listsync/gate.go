package listsync

// Mode selects how a fetch result lands in the cache.
type Mode int

const (
	// ModeReset replaces the cache with the first page.
	ModeReset Mode = iota
	// ModeAppend extends the cache with the next page.
	ModeAppend
)

func (m Mode) String() string {
	if m == ModeAppend {
		return "append"
	}
	return "reset"
}

// FetchState is the gate's externally visible bookkeeping.
type FetchState struct {
	InFlight           bool
	InFlightGeneration uint64 // newest generation with a request outstanding
	LastError          *Error
}

type request struct {
	snapshot QuerySnapshot
	cursor   PageCursor
	mode     Mode
}

func (r request) key() gateKey {
	return gateKey{generation: r.snapshot.Generation(), mode: r.mode}
}

type gateKey struct {
	generation uint64
	mode       Mode
}

// FetchGate admits at most one request per (generation, mode) and decides
// whether a response may still be applied.
type FetchGate struct {
	inflight map[gateKey]struct{}
	lastErr  *Error
}

// Admit records req as in flight, or rejects it:
//   - append on an exhausted cursor
//   - a request already in flight for the same generation and mode
//   - append while the reset of the same generation is still in flight
func (g *FetchGate) Admit(req request) bool {
	if g.inflight == nil {
		g.inflight = map[gateKey]struct{}{}
	}
	if req.mode == ModeAppend {
		if req.cursor.Exhausted {
			return false
		}
		if _, busy := g.inflight[gateKey{generation: req.snapshot.Generation(), mode: ModeReset}]; busy {
			return false
		}
	}
	if _, busy := g.inflight[req.key()]; busy {
		return false
	}
	g.inflight[req.key()] = struct{}{}
	return true
}

// Settle clears req from the in-flight set and reports whether its result
// belongs to the current generation.
func (g *FetchGate) Settle(req request, current uint64) bool {
	delete(g.inflight, req.key())
	return req.snapshot.Generation() == current
}

// Fail records a failed fetch of the current generation.
func (g *FetchGate) Fail(err *Error) {
	g.lastErr = err
}

// Succeed clears the last failure.
func (g *FetchGate) Succeed() {
	g.lastErr = nil
}

// Busy reports whether any request of generation gen is outstanding.
func (g *FetchGate) Busy(gen uint64) bool {
	for k := range g.inflight {
		if k.generation == gen {
			return true
		}
	}
	return false
}

// State snapshots the gate.
func (g *FetchGate) State() FetchState {
	st := FetchState{LastError: g.lastErr}
	for k := range g.inflight {
		st.InFlight = true
		if k.generation >= st.InFlightGeneration {
			st.InFlightGeneration = k.generation
		}
	}
	return st
}
