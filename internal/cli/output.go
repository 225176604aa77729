package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func money(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func tier(primary bool) string {
	if primary {
		return "primary"
	}
	return "secondary"
}
