// Package display renders scan results as a terminal table. No business
// logic here.
package display

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/minutebid/minutebid/types"
)

// betFlagEdge marks edges worth acting on in the rendered table.
const betFlagEdge = 0.05

// Render writes a formatted opportunity table, or a clear message when
// nothing qualifies.
func Render(w io.Writer, opportunities []types.Opportunity) {
	if len(opportunities) == 0 {
		fmt.Fprintf(w, "\n  ⚽  No qualifying matches right now. Try again during 75-90 min.\n\n")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nMatch\tMin\tScore\tLeader\tPoly%\tRef%\tEdge")
	for _, opp := range opportunities {
		fmt.Fprintf(tw, "%s\t%d'\t%s\t%s\t%d%%\t%s\t%s\n",
			opp.Match,
			opp.Minute,
			orDash(opp.Score),
			opp.Outcome,
			int(opp.PolyProb*100),
			formatProb(opp.ReferenceProb),
			formatEdge(opp.Edge),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n  %d opportunity(ies) found.\n\n", len(opportunities))
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func formatProb(p *float64) string {
	if p == nil {
		return "—"
	}
	return fmt.Sprintf("%d%%", int(*p*100))
}

func formatEdge(edge *float64) string {
	if edge == nil {
		return "—"
	}
	sign := ""
	if *edge >= 0 {
		sign = "+"
	}
	flag := ""
	if *edge >= betFlagEdge {
		flag = "  ← BET"
	}
	return fmt.Sprintf("%s%d%%%s", sign, int(*edge*100), flag)
}
