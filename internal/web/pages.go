package web

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/animelib/catalog/internal/core"
)

// batchPageErrors is how many sink entries the HTML report lists.
const batchPageErrors = 100

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}` +
	`table{border-collapse:collapse;margin-top:1rem}` +
	`td,th{border:1px solid #d1d5db;padding:.35rem .6rem;text-align:left;vertical-align:top}` +
	`.status{font-weight:600}.alert{border:1px solid #f87171;background:#fef2f2;padding:1rem}` +
	`code{font-size:.85em;white-space:pre-wrap}`

// pageWriter accumulates the first write error so components can be
// written as a flat sequence of calls.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *pageWriter) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *pageWriter) textf(format string, args ...any) {
	p.text(fmt.Sprintf(format, args...))
}

func (p *pageWriter) row(label, value string) {
	p.raw("<tr><th>")
	p.text(label)
	p.raw("</th><td>")
	p.text(value)
	p.raw("</td></tr>")
}

func layout(p *pageWriter, title string) {
	p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
	p.text(title)
	p.raw(`</title><style>` + pageStyle + `</style></head><body>`)
}

// batchPage renders a batch's ledger row and its sink entries.
func batchPage(batch core.BatchSummary, entries []core.StoredError) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		layout(p, "Batch "+batch.ID)

		p.raw("<h1>")
		p.textf("%s import", batch.Kind)
		p.raw(`</h1><p class="status">`)
		p.text(string(batch.Status))
		p.raw("</p><table>")
		p.row("Batch", batch.ID)
		p.row("Started", batch.StartedAt.Format("2006-01-02 15:04:05 MST"))
		if batch.CompletedAt != nil {
			p.row("Completed", batch.CompletedAt.Format("2006-01-02 15:04:05 MST"))
			p.row("Duration", batch.Duration().String())
		}
		p.row("Total", fmt.Sprint(batch.Total))
		p.row("Succeeded", fmt.Sprint(batch.Succeeded))
		p.row("Skipped", fmt.Sprint(batch.Skipped))
		p.row("Failed", fmt.Sprint(batch.Failed))
		p.row("On conflict", string(batch.Config.OnConflict))
		p.row("Skip duplicates", fmt.Sprint(batch.Config.SkipDuplicates))
		p.row("Log errors", fmt.Sprint(batch.Config.LogErrors))
		p.raw("</table>")

		p.raw("<h2>Logged errors</h2>")
		if len(entries) == 0 {
			p.raw("<p>No errors were logged for this batch.</p>")
		} else {
			p.raw("<table><tr><th>Record</th><th>Category</th><th>Message</th><th>Record data</th></tr>")
			for _, e := range entries {
				p.raw("<tr><td>")
				p.text(fmt.Sprint(e.RecordIndex))
				p.raw("</td><td>")
				p.text(string(e.Category))
				p.raw("</td><td>")
				p.text(e.Message)
				p.raw("</td><td><code>")
				p.text(strings.TrimSpace(string(e.RawRecord)))
				p.raw("</code></td></tr>")
			}
			p.raw("</table>")
			if len(entries) == batchPageErrors {
				p.raw("<p>")
				p.textf("Showing the first %d errors. GET /api/batches/%s/errors lists all of them.", batchPageErrors, batch.ID)
				p.raw("</p>")
			}
		}

		p.raw("</body></html>")
		return p.err
	})
}

// errorAlert renders a user message as a standalone HTML page.
func errorAlert(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		layout(p, "Error")
		p.raw(`<div class="alert" role="alert"><strong>`)
		p.text(msg.Message)
		p.raw("</strong>")
		if msg.Action != "" {
			p.raw("<p>")
			p.text(msg.Action)
			p.raw("</p>")
		}
		p.raw("<small>Error code: ")
		p.text(msg.Code)
		p.raw("</small></div></body></html>")
		return p.err
	})
}
