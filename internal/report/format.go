package report

import "strconv"

// FormatBytes renders a byte count with thousands separators, e.g.
// "1,234,567 bytes".
func FormatBytes(n int64) string {
	s := strconv.FormatInt(n, 10)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out) + " bytes"
}
