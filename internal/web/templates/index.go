// Package templates holds the server-rendered pages.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// IndexData feeds the landing page.
type IndexData struct {
	Mode             string
	SupportedFormats []string
	Agents           []Agent
	SessionCount     int
}

type Agent struct {
	Name        string
	Description string
}

const indexStyle = `body{background:#1a1a2e;color:#e0e0e0;font-family:system-ui,sans-serif;max-width:960px;margin:2rem auto;padding:0 1rem}
h1{color:#4fc3f7}code{background:#16213e;padding:.1rem .3rem;border-radius:3px}
table{border-collapse:collapse;width:100%}td,th{border-bottom:1px solid #2a2a4a;padding:.4rem;text-align:left}
.mode{display:inline-block;padding:.1rem .5rem;border-radius:4px;background:#66bb6a;color:#1a1a2e}`

// Index renders the API landing page.
func Index(d IndexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>framescope</title><style>`)
		p.raw(indexStyle)
		p.raw(`</style></head><body><h1>framescope</h1>`)
		p.raw(`<p>PresentMon frame-timing analysis. Reasoner mode: <span class="mode">`)
		p.text(d.Mode)
		p.raw(`</span></p>`)

		p.raw(`<p>Supported formats: `)
		for i, f := range d.SupportedFormats {
			if i > 0 {
				p.raw(", ")
			}
			p.raw("<code>")
			p.text(f)
			p.raw("</code>")
		}
		p.raw(`</p>`)
		p.raw(fmt.Sprintf(`<p>Active sessions: %d</p>`, d.SessionCount))

		p.raw(`<h2>Capability sets</h2><table><thead><tr><th>Name</th><th>Description</th></tr></thead><tbody>`)
		for _, a := range d.Agents {
			p.raw("<tr><td><code>")
			p.text(a.Name)
			p.raw("</code></td><td>")
			p.text(a.Description)
			p.raw("</td></tr>")
		}
		p.raw(`</tbody></table>`)

		p.raw(`<h2>API</h2><ul>
<li><code>POST /api/sessions</code> create a session</li>
<li><code>POST /api/upload/{session}</code> upload a PresentMon CSV (multipart field <code>file</code>)</li>
<li><code>GET /ws/chat/{session}</code> chat over a websocket</li>
<li><code>GET /api/sessions/{session}/files/{file}/charts/{chart}.png</code> render a chart</li>
<li><code>GET /api/usage?period=week</code> usage ledger</li>
</ul></body></html>`)
		return p.err
	})
}

// printer stops writing after the first error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}
