package arbitration

// MatrixArbiter keeps a least-recently-granted order between every pair of
// inputs. beats[i][j] means i wins over j.
type MatrixArbiter struct {
	requestSet

	beats [][]bool
}

// NewMatrixArbiter creates a matrix arbiter with size inputs. Initially lower
// numbered inputs win.
func NewMatrixArbiter(size int) *MatrixArbiter {
	a := &MatrixArbiter{requestSet: newRequestSet(size)}

	a.beats = make([][]bool, size)
	for i := range a.beats {
		a.beats[i] = make([]bool, size)
		for j := i + 1; j < size; j++ {
			a.beats[i][j] = true
		}
	}

	return a
}

// AddRequest registers a request.
func (a *MatrixArbiter) AddRequest(input, priority int) {
	a.add(input, priority)
}

// Arbitrate returns the requester that beats every other requester of the
// highest priority.
func (a *MatrixArbiter) Arbitrate() (int, bool) {
	if a.count == 0 {
		return 0, false
	}

	top := a.highestPriority()

	for i, r := range a.requested {
		if !r || a.priority[i] != top {
			continue
		}

		if a.beatsAll(i, top) {
			return i, true
		}
	}

	panic("never")
}

func (a *MatrixArbiter) beatsAll(i, top int) bool {
	for j, r := range a.requested {
		if j == i || !r || a.priority[j] != top {
			continue
		}

		if !a.beats[i][j] {
			return false
		}
	}

	return true
}

// UpdateState makes the winner lose against every other input.
func (a *MatrixArbiter) UpdateState(winner int) {
	for j := range a.beats {
		if j == winner {
			continue
		}

		a.beats[winner][j] = false
		a.beats[j][winner] = true
	}
}

// Clear removes all requests.
func (a *MatrixArbiter) Clear() {
	a.clear()
}

// Size returns the number of inputs.
func (a *MatrixArbiter) Size() int {
	return len(a.requested)
}
