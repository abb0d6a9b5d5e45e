// Package sanitize applies a visibility verdict to a content record
// and renders its markdown body. It never mutates the stored item;
// callers get a copy.
package sanitize

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"tidder/internal/models"
	"tidder/internal/policy"
)

// Deleted is the fixed redaction marker substituted for moderated-out
// content.
const Deleted = `<p class="text-red-500">deleted</p>`

// The default renderer omits raw HTML and leaves this comment in its
// place. A body that starts with it contained nothing but raw markup.
const rawHTMLOmitted = "<!-- raw HTML omitted -->"

var htmlPolicy = bluemonday.UGCPolicy()

// Post applies the verdict. Must not be called with policy.Hidden;
// hidden items are turned into a 404 before rendering is reachable.
func Post(p models.Post, verdict policy.Verdict) models.Post {
	if verdict == policy.RedactedVisible {
		p.Title = Deleted
		p.Body = Deleted
		return p
	}
	p.Body = renderBody(p.Body)
	return p
}

// Comment is like Post, but comments have no title to redact.
func Comment(c models.Comment, verdict policy.Verdict) models.Comment {
	if verdict == policy.RedactedVisible {
		c.Body = Deleted
		return c
	}
	c.Body = renderBody(c.Body)
	return c
}

func renderBody(body string) string {
	if body == Deleted {
		// Already sanitized; keep the marker as-is.
		return Deleted
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		// Rendering failure is indistinguishable from "nothing to
		// render": the redaction fallback absorbs it.
		return Deleted
	}
	rendered := buf.String()
	if strings.HasPrefix(strings.TrimSpace(rendered), rawHTMLOmitted) {
		// The entire source was unsafe raw markup. Not a function of
		// the deleted flag; there is simply nothing left to show.
		return Deleted
	}
	safe := htmlPolicy.Sanitize(rendered)
	if strings.TrimSpace(safe) == "" {
		return Deleted
	}
	return safe
}
