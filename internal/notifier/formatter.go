package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"CandleLedger/internal/model"
)

// FormatRunReport formats a pipeline result into a Telegram message.
func FormatRunReport(res *model.RunResult) string {
	var b strings.Builder

	coin := html.EscapeString(res.CoinID)
	switch res.Outcome {
	case model.OutcomeWritten:
		b.WriteString(fmt.Sprintf("✅ <b>%s</b> | %s added\n\n", coin, res.Label))
		if r := res.Record; r != nil {
			b.WriteString(fmt.Sprintf("O: %g\nH: %g\nL: %g\nC: %g\n", r.Open, r.High, r.Low, r.Close))
			b.WriteString(fmt.Sprintf("Vol: %.2fM\n", r.Volume))
		}
	case model.OutcomeDuplicate:
		b.WriteString(fmt.Sprintf("ℹ️ <b>%s</b> | %s already in ledger, skipped\n", coin, res.Label))
	default:
		b.WriteString(fmt.Sprintf("❌ <b>%s</b> | %s update failed\n\n", coin, res.Label))
		if res.Err != nil {
			b.WriteString(html.EscapeString(res.Err.Error()))
			b.WriteString("\n")
		}
	}
	b.WriteString(fmt.Sprintf("\nrun %s (%s)", res.RunID, res.Duration().Round(time.Millisecond)))
	return b.String()
}

// FormatLedger renders the newest records as a fixed-width table.
func FormatLedger(records []model.DailyRecord) string {
	if len(records) == 0 {
		return "Ledger is empty"
	}
	var b strings.Builder
	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-6s %12s %12s %12s %12s %9s\n", "date", "open", "high", "low", "close", "vol(M)"))
	for _, r := range records {
		b.WriteString(fmt.Sprintf("%-6s %12.6f %12.6f %12.6f %12.6f %9.2f\n", r.Date, r.Open, r.High, r.Low, r.Close, r.Volume))
	}
	b.WriteString("</pre>")
	return b.String()
}
