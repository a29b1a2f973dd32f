package universe

import (
	"bufio"
	"fmt"
	"io"
)

// WriteParams dumps the interaction table as three matrices: the raw
// attraction followed by the inner and outer radii. Rows are the acting
// type and columns the type acted upon.
func (u *Universe) WriteParams(w io.Writer) error {
	bw := bufio.NewWriter(w)
	n := len(u.types)

	section := func(title string, value func(a, b int) float64) {
		fmt.Fprintf(bw, "%s:\n", title)
		for a := 0; a < n; a++ {
			for b := 0; b < n; b++ {
				if b > 0 {
					bw.WriteByte(' ')
				}
				fmt.Fprintf(bw, "%8.4f", value(a, b))
			}
			bw.WriteByte('\n')
		}
	}

	fmt.Fprintf(bw, "types: %d\n", n)
	section("attraction", func(a, b int) float64 { return u.Interaction(a, b).Raw() })
	section("min_radius", func(a, b int) float64 { return u.Interaction(a, b).MinRadius })
	section("max_radius", func(a, b int) float64 { return u.Interaction(a, b).MaxRadius })
	return bw.Flush()
}
