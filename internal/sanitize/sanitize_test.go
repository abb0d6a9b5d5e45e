package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tidder/internal/models"
	"tidder/internal/policy"
)

func TestPostFullyVisible(t *testing.T) {
	p := models.Post{Title: "hello", Body: "# heading\n\nsome *text*"}
	out := Post(p, policy.FullyVisible)
	require.Equal(t, "hello", out.Title)
	require.Contains(t, out.Body, "<h1")
	require.Contains(t, out.Body, "<em>text</em>")
	// Input is untouched.
	require.Equal(t, "# heading\n\nsome *text*", p.Body)
}

func TestPostRedacted(t *testing.T) {
	p := models.Post{Title: "secret", Body: "secret body"}
	out := Post(p, policy.RedactedVisible)
	require.Equal(t, Deleted, out.Title)
	require.Equal(t, Deleted, out.Body)
	require.Equal(t, "secret", p.Title)
}

func TestCommentRedacted(t *testing.T) {
	c := models.Comment{Body: "rude remark"}
	out := Comment(c, policy.RedactedVisible)
	require.Equal(t, Deleted, out.Body)
}

func TestRawHTMLBecomesMarker(t *testing.T) {
	// A body that is nothing but raw markup renders to nothing safe;
	// the fixed marker takes its place.
	p := models.Post{Body: `<script>alert("xss")</script>`}
	out := Post(p, policy.FullyVisible)
	require.Equal(t, Deleted, out.Body)
}

func TestMixedRawHTMLIsStripped(t *testing.T) {
	p := models.Post{Body: "safe text\n\n<script>alert(1)</script>"}
	out := Post(p, policy.FullyVisible)
	require.Contains(t, out.Body, "safe text")
	require.NotContains(t, out.Body, "<script>")
}

func TestIdempotentOnMarker(t *testing.T) {
	p := models.Post{Title: Deleted, Body: Deleted}
	out := Post(p, policy.FullyVisible)
	require.Equal(t, Deleted, out.Body)

	c := models.Comment{Body: Deleted}
	require.Equal(t, Deleted, Comment(c, policy.FullyVisible).Body)

	// And under redaction, trivially.
	require.Equal(t, Deleted, Post(p, policy.RedactedVisible).Body)
}

func TestEmptyBodyBecomesMarker(t *testing.T) {
	out := Comment(models.Comment{Body: "   "}, policy.FullyVisible)
	require.Equal(t, Deleted, out.Body)
}
