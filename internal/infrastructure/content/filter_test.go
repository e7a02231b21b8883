package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsScripts(t *testing.T) {
	t.Parallel()

	f := NewFilter()
	out := f.Sanitize(`<p onclick="steal()">Rain <strong>today</strong></p><script>alert(1)</script>`)

	assert.Equal(t, `<p>Rain <strong>today</strong></p>`, out)
}

func TestSanitizeAddsNoFollow(t *testing.T) {
	t.Parallel()

	f := NewFilter()
	out := f.Sanitize(`<a href="https://example.com/storm">map</a>`)

	assert.Contains(t, out, "nofollow")
	assert.Contains(t, out, `target="_blank"`)
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "   ", want: ""},
		{name: "plain", in: "Heavy   rain\n expected", want: "Heavy rain expected"},
		{name: "paragraphs", in: "<p>Heavy rain</p><p>Winds <em>gusting</em></p>", want: "Heavy rain Winds gusting"},
		{name: "nested list", in: "<ul><li><p>One</p></li><li>Two</li></ul>", want: "One Two"},
		{name: "drops script", in: "<div>Alert<script>x()</script></div>", want: "Alert"},
	}

	f := NewFilter()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, f.PlainText(tc.in))
		})
	}
}

func TestPlainProseSurvivesUnchanged(t *testing.T) {
	t.Parallel()

	f := NewFilter()
	in := `Tom's "storm" report: rain & wind`

	assert.Equal(t, in, f.Sanitize(in))
	assert.Equal(t, in, f.PlainText(in))
}

func TestPlainTextDecodesEntities(t *testing.T) {
	t.Parallel()

	f := NewFilter()

	assert.Equal(t, `Tom's "storm" & wind`, f.PlainText(`<p>Tom&#39;s &#34;storm&#34; &amp; wind</p>`))
	assert.Equal(t, "AT&T earnings", f.PlainText("AT&amp;T earnings"))
}
