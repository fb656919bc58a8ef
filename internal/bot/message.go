package bot

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/susu3304/smashmate/internal/domain"
	"github.com/susu3304/smashmate/internal/fare"
)

const maxMessageLength = 2000

func money(v float64) string {
	return "£" + decimal.NewFromFloat(v).StringFixed(2)
}

func formatReminder(s *domain.Session, unpaid []fare.Allocation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💸 Payment reminder for the session on %s at %s\n", s.Date, s.Time)
	total := decimal.Zero
	for _, a := range unpaid {
		fmt.Fprintf(&b, "<@%s> owes %s\n", a.ParticipantID, money(a.Amount))
		total = total.Add(decimal.NewFromFloat(a.Amount))
	}
	fmt.Fprintf(&b, "Outstanding: £%s", total.StringFixed(2))
	return b.String()
}

func formatSummary(s *domain.Session, bal fare.Balance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session on %s at %s (%s)\n", s.Date, s.Time, s.Status)
	fmt.Fprintf(&b, "Allocated %s of %s", money(bal.Allocated), money(bal.TotalCost))
	if !bal.Balanced {
		fmt.Fprintf(&b, ", %s-allocated by %s", bal.Direction, money(math.Abs(bal.Difference)))
	}
	b.WriteString("\n")
	if bal.Unpaid == 0 {
		b.WriteString("Everyone has paid.")
	} else {
		fmt.Fprintf(&b, "%d still to pay.", bal.Unpaid)
	}
	return b.String()
}

// chunkMessage splits on line boundaries so each piece fits in one Discord
// message. A single overlong line is cut.
func chunkMessage(content string, limit int) []string {
	var chunks []string
	var buffer strings.Builder
	for _, line := range strings.Split(content, "\n") {
		for len(line) > limit {
			if buffer.Len() > 0 {
				chunks = append(chunks, buffer.String())
				buffer.Reset()
			}
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		if buffer.Len() > 0 && buffer.Len()+len(line)+1 > limit {
			chunks = append(chunks, buffer.String())
			buffer.Reset()
		}
		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
	}
	if buffer.Len() > 0 {
		chunks = append(chunks, buffer.String())
	}
	return chunks
}
