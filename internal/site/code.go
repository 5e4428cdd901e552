package site

import (
	"fmt"
	"strconv"
)

// NextCode returns the next sequential public code: one more than the
// largest purely numeric code in codes, zero-padded to three digits.
// Non-numeric codes are ignored.  With no numeric codes the result is "001".
func NextCode(codes []string) string {
	var max int64
	for _, c := range codes {
		n, err := strconv.ParseInt(c, 10, 64)
		if err != nil || n < 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%03d", max+1)
}
