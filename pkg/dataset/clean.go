package dataset

// DefaultMissingSentinels are the literal markers the source uses for unknown values.
var DefaultMissingSentinels = []string{"?"}

// NormalizeMissing replaces every value equal to one of the sentinels with the
// canonical missing value. Values must match a sentinel exactly. It returns the number of replaced cells.
func (d *Dataset) NormalizeMissing(sentinels ...string) int {
	if len(sentinels) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(sentinels))
	for _, s := range sentinels {
		set[s] = struct{}{}
	}

	replaced := 0
	for _, r := range d.Rows {
		for i, v := range r {
			if !v.Valid {
				continue
			}
			if _, found := set[v.String]; found {
				r[i] = Missing()
				replaced++
			}
		}
	}
	return replaced
}
