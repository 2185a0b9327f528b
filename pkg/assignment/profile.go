package assignment

import "github.com/travigo/capacity-assignment/pkg/csa"

// ProfileEntry is one breakpoint of a stop's PAT-over-departure-time
// envelope: at or before DepartureTime, waiting (or transferring in) and
// then following OriginConnection yields PAT.
type ProfileEntry struct {
	DepartureTime    int64
	OriginConnection csa.ConnectionID
	PAT              PerceivedTime
}

// unreachableEntry is returned by lookups that find nothing usable;
// findAtOrAfter and findStrictlyAfter never assert on an empty profile,
// they return this sentinel.
var unreachableEntry = ProfileEntry{DepartureTime: -1, OriginConnection: -1, PAT: Unreachable}

// Evaluate returns the PAT of waiting at this entry's stop until
// DepartureTime and then boarding OriginConnection, queried from time t.
// t must be <= DepartureTime; callers only ever query entries found by a
// lookup that already enforces that.
func (e ProfileEntry) Evaluate(t int64, waitingCost float64) PerceivedTime {
	if e.PAT.Unreachable() {
		return Unreachable
	}
	wait := float64(e.DepartureTime - t)
	return e.PAT + PerceivedTime(wait*(1+waitingCost))
}

// Profile is the ordered sequence of breakpoints for one stop, in
// strictly decreasing DepartureTime — the lower envelope of PAT as a
// function of departure time. offset orders entries so that
// offset(entry) = entry.PAT + entry.DepartureTime*(1+weight) is strictly
// decreasing along the sequence; that invariant is what lets evaluate
// pick the nearest-departure entry without comparing PATs.
type Profile []ProfileEntry

// insert first drops the trailing entries e dominates (those departing
// no later than e with an offset no lower than e's: e serves every query
// they serve at no higher cost), then appends e only if its offset is
// strictly lower than the remaining tail's. Entries departing later than
// e are kept, since they still serve queries after e's departure time.
// This keeps both DepartureTime and offset strictly decreasing along the
// sequence. Waiting entries arrive in non-increasing departure time, so
// for them only an entry at e's own departure time can be dropped.
func (p *Profile) insert(e ProfileEntry, weight float64) bool {
	offset := offsetOf(e, weight)
	for len(*p) > 0 {
		last := (*p)[len(*p)-1]
		if last.DepartureTime > e.DepartureTime || offsetOf(last, weight) < offset {
			break
		}
		*p = (*p)[:len(*p)-1]
	}
	if len(*p) > 0 && offsetOf((*p)[len(*p)-1], weight) <= offset {
		return false
	}
	*p = append(*p, e)
	return true
}

func offsetOf(e ProfileEntry, weight float64) float64 {
	if e.PAT.Unreachable() {
		return float64(Unreachable)
	}
	return float64(e.PAT) + float64(e.DepartureTime)*(1+weight)
}

// findAtOrAfter returns the entry with the smallest DepartureTime that is
// still >= t (the connection reachable with least waiting), or the
// unreachable sentinel if none exists. Profiles are small per stop, so a
// linear scan from the tail (smallest departure time first) is simple and
// cheap; callers that scan monotonically decreasing t could optimize with
// a cursor when profiles grow large.
func (p Profile) findAtOrAfter(t int64) ProfileEntry {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].DepartureTime >= t {
			return p[i]
		}
	}
	return unreachableEntry
}

// findStrictlyAfter returns the entry with the smallest DepartureTime
// that is strictly greater than t — the next waiting alternative after a
// failed boarding attempt at t.
func (p Profile) findStrictlyAfter(t int64) ProfileEntry {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].DepartureTime > t {
			return p[i]
		}
	}
	return unreachableEntry
}

// EvaluateWithDelay integrates Evaluate over the window [t, t+maxDelay],
// the expected PAT when the arrival time at this stop is itself uncertain
// by up to maxDelay. With maxDelay == 0 it is exactly Evaluate(t, ...).
func (p Profile) EvaluateWithDelay(t int64, maxDelay int64, waitingCost float64) PerceivedTime {
	if maxDelay <= 0 {
		return p.findAtOrAfter(t).Evaluate(t, waitingCost)
	}

	windowEnd := t + maxDelay
	var totalCost float64
	cursor := t
	for cursor < windowEnd {
		entry := p.findAtOrAfter(cursor)
		if entry.PAT.Unreachable() {
			return Unreachable
		}
		segmentEnd := entry.DepartureTime + 1
		if segmentEnd > windowEnd {
			segmentEnd = windowEnd
		}
		if segmentEnd <= cursor {
			// The active entry's departure time is already behind the
			// cursor; nothing usable remains inside the window.
			return Unreachable
		}
		length := float64(segmentEnd - cursor)
		// Average of a linearly-decreasing cost over [cursor, segmentEnd]:
		// the midpoint value times the segment length.
		midpoint := float64(cursor+segmentEnd) / 2
		avg := entry.PAT + PerceivedTime((float64(entry.DepartureTime)-midpoint)*(1+waitingCost))
		totalCost += float64(avg) * length
		cursor = segmentEnd
	}
	return PerceivedTime(totalCost / float64(maxDelay))
}

// StopLabel holds the waiting and transfer profile under construction for
// one stop during the backward scan.
type StopLabel struct {
	waiting  Profile
	transfer Profile
}

// GetSkipEntry returns the best waiting-profile entry reachable at or
// after departureTime — "don't board, wait for a later connection here".
func (s *StopLabel) GetSkipEntry(departureTime int64) ProfileEntry {
	return s.waiting.findAtOrAfter(departureTime)
}

// GetFailureEntry returns the best waiting alternative strictly later
// than departureTime, used when a boarding attempt fails.
func (s *StopLabel) GetFailureEntry(departureTime int64) ProfileEntry {
	return s.waiting.findStrictlyAfter(departureTime)
}

// AddWaitingEntry appends e to the waiting profile if it improves the
// envelope, using waitingCost as the weight in the offset comparison.
func (s *StopLabel) AddWaitingEntry(e ProfileEntry, waitingCost float64) bool {
	return s.waiting.insert(e, waitingCost)
}

// AddTransferEntry appends a transfer-profile entry for boarding a
// connection that departs at departureTime from a stop reached by walking
// distance (travel time) away, with an additional minimum-transfer-time
// buffer. The stored entry shifts departureTime earlier by distance+buffer
// (the latest moment you can be at the source stop and still make it) and
// inflates pat by the walking cost over distance.
func (s *StopLabel) AddTransferEntry(departureTime int64, origin csa.ConnectionID, pat PerceivedTime, distance, buffer int64, walkingCost, waitingCost float64) bool {
	if pat.Unreachable() {
		return false
	}
	effectiveTime := departureTime - distance - buffer
	adjustedPAT := pat + PerceivedTime(float64(distance)*(1+walkingCost))
	return s.transfer.insert(ProfileEntry{DepartureTime: effectiveTime, OriginConnection: origin, PAT: adjustedPAT}, waitingCost)
}

// EvaluateWaiting evaluates the waiting profile for a passenger already
// standing at this stop at time t.
func (s *StopLabel) EvaluateWaiting(t int64, waitingCost float64) PerceivedTime {
	return s.waiting.findAtOrAfter(t).Evaluate(t, waitingCost)
}

// EvaluateTransferWithDelay evaluates the transfer profile, accounting for
// uncertainty in the exact arrival time of up to maxDelay.
func (s *StopLabel) EvaluateTransferWithDelay(t int64, maxDelay int64, waitingCost float64) PerceivedTime {
	return s.transfer.EvaluateWithDelay(t, maxDelay, waitingCost)
}

// GetWaitingProfile returns the finished waiting profile, exported into
// the PATData container once the backward scan completes.
func (s *StopLabel) GetWaitingProfile() Profile {
	return s.waiting
}

// GetTransferProfile returns the finished transfer profile.
func (s *StopLabel) GetTransferProfile() Profile {
	return s.transfer
}

func (s *StopLabel) clear() {
	s.waiting = s.waiting[:0]
	s.transfer = s.transfer[:0]
}
