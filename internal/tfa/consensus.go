package tfa

// ResolveBurst selects the trusted packet from a burst of repetitions by
// majority vote. The winning pattern must achieve a strict plurality: if
// the two largest groups of bit-identical candidates are the same size
// (including the all-distinct case), the burst is ambiguous and no packet
// is selected.
//
// This stands in for a checksum; the wire format has none. O(k^2) bit
// comparisons with k <= BurstCapacity.
func ResolveBurst(candidates []Candidate) (Candidate, bool) {
	var winner Candidate
	counted := make([]bool, len(candidates))
	max1, max2 := 0, 0
	for m := range candidates {
		if counted[m] {
			continue
		}
		n := 0
		for k := m; k < len(candidates); k++ {
			if !counted[k] && candidates[k] == candidates[m] {
				counted[k] = true
				n++
			}
		}
		if n > max1 {
			max2 = max1
			max1 = n
			winner = candidates[m]
		} else if n > max2 {
			max2 = n
		}
	}
	if max1 == 0 || max1 == max2 {
		return Candidate{}, false
	}
	return winner, true
}
