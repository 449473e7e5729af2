package tracking

import (
	"net/url"
	"regexp"
	"strings"
	"testing"
)

func newTestInjector() *Injector {
	return NewInjector("https://t.example.com/track/pixel", NewGenerator())
}

var imgSrcRe = regexp.MustCompile(`<img src="([^"]+)"`)

func extractPixelURL(t *testing.T, content string) *url.URL {
	t.Helper()
	matches := imgSrcRe.FindAllStringSubmatch(content, -1)
	if len(matches) != 1 {
		t.Fatalf("found %d pixel tags, want exactly 1", len(matches))
	}
	u, err := url.Parse(matches[0][1])
	if err != nil {
		t.Fatalf("pixel URL does not parse: %v", err)
	}
	return u
}

func TestInjectHTMLBeforeClosingBody(t *testing.T) {
	inj := newTestInjector()

	html := "<html><body><p>Hello</p></body></html>"
	out, id, err := inj.InjectHTML(html, InjectOptions{CampaignID: "c1", EmailID: "e1"})
	if err != nil {
		t.Fatalf("InjectHTML: %v", err)
	}

	// Exactly one pixel, immediately before </body>
	u := extractPixelURL(t, out)
	idx := strings.Index(out, "</body>")
	if idx < 0 {
		t.Fatal("closing body tag lost")
	}
	if !strings.HasSuffix(out[:idx], `alt="" />`) {
		t.Errorf("pixel not immediately before </body>: %q", out)
	}

	q := u.Query()
	if got := q.Get("pixelId"); got != id {
		t.Errorf("pixelId = %q, want returned identifier %q", got, id)
	}
	if got := q.Get("campaignId"); got != "c1" {
		t.Errorf("campaignId = %q, want c1", got)
	}
	if got := q.Get("emailId"); got != "e1" {
		t.Errorf("emailId = %q, want e1", got)
	}
	if strings.Count(out, id) != 1 {
		t.Errorf("identifier appears %d times in output, want 1", strings.Count(out, id))
	}
}

func TestInjectHTMLUppercaseBody(t *testing.T) {
	inj := newTestInjector()

	out, _, err := inj.InjectHTML("<HTML><BODY>Hi</BODY></HTML>", InjectOptions{})
	if err != nil {
		t.Fatalf("InjectHTML: %v", err)
	}
	idx := strings.Index(out, "</BODY>")
	if idx < 0 {
		t.Fatal("closing body tag lost")
	}
	if !strings.HasSuffix(out[:idx], `alt="" />`) {
		t.Errorf("pixel not immediately before </BODY>: %q", out)
	}
}

func TestInjectHTMLUnicodeContent(t *testing.T) {
	inj := newTestInjector()

	html := "<html><body><p>Attention, chère cliente — ĞİŞ права 折扣</p></BoDy></html>"
	out, _, err := inj.InjectHTML(html, InjectOptions{})
	if err != nil {
		t.Fatalf("InjectHTML: %v", err)
	}
	if !strings.Contains(out, "ĞİŞ права 折扣</p>") {
		t.Errorf("existing content corrupted: %q", out)
	}
	idx := strings.Index(out, "</BoDy>")
	if idx < 0 || !strings.HasSuffix(out[:idx], `alt="" />`) {
		t.Errorf("pixel not immediately before mixed-case close tag: %q", out)
	}
}

func TestInjectHTMLNoBodyTag(t *testing.T) {
	inj := newTestInjector()
	fragment := "<p>No body here</p>"

	out, _, err := inj.InjectHTML(fragment, InjectOptions{Position: PositionBottom})
	if err != nil {
		t.Fatalf("InjectHTML: %v", err)
	}
	if !strings.HasPrefix(out, fragment) {
		t.Errorf("bottom injection must append, got %q", out)
	}

	out, _, err = inj.InjectHTML(fragment, InjectOptions{Position: PositionTop})
	if err != nil {
		t.Fatalf("InjectHTML: %v", err)
	}
	if !strings.HasSuffix(out, fragment) {
		t.Errorf("top injection must prepend, got %q", out)
	}
	// Existing content is never split
	if !strings.Contains(out, fragment) {
		t.Errorf("fragment corrupted: %q", out)
	}
}

func TestInjectHTMLUnicodeRecipient(t *testing.T) {
	inj := newTestInjector()

	out, _, err := inj.InjectHTML("<body>Hi</body>", InjectOptions{Recipient: "дима@пример.рф"})
	if err != nil {
		t.Fatalf("InjectHTML: %v", err)
	}

	u := extractPixelURL(t, out)
	if got := u.Query().Get("recipient"); got != "дима@пример.рф" {
		t.Errorf("recipient round-trip = %q", got)
	}
	// Raw Unicode must not appear unencoded in the URL itself
	if strings.Contains(u.RawQuery, "дима") {
		t.Errorf("recipient not percent-encoded: %q", u.RawQuery)
	}
}

func TestInjectHTMLMalformedBaseURL(t *testing.T) {
	inj := newTestInjector()

	tests := []string{
		"://missing-scheme",
		"not-a-url",
		"/relative/only",
	}
	for _, base := range tests {
		t.Run(base, func(t *testing.T) {
			_, _, err := inj.InjectHTML("<body>Hi</body>", InjectOptions{PixelURL: base})
			if err == nil {
				t.Errorf("InjectHTML with base %q: want error", base)
			}
		})
	}
}

func TestInjectHTMLPixelStyles(t *testing.T) {
	inj := newTestInjector()

	out, _, err := inj.InjectHTML("<body></body>", InjectOptions{PixelSize: PixelSizeHidden})
	if err != nil {
		t.Fatalf("InjectHTML: %v", err)
	}
	if !strings.Contains(out, "display:none") {
		t.Errorf("hidden pixel missing display:none: %q", out)
	}

	out, _, err = inj.InjectHTML("<body></body>", InjectOptions{PixelSize: PixelSize1x1})
	if err != nil {
		t.Fatalf("InjectHTML: %v", err)
	}
	if !strings.Contains(out, `width="1" height="1"`) {
		t.Errorf("1x1 pixel missing dimensions: %q", out)
	}
}

func TestInjectText(t *testing.T) {
	inj := newTestInjector()
	text := "Hello,\n\nCheck out our deals."

	out, id, err := inj.InjectText(text, InjectOptions{CampaignID: "c2"})
	if err != nil {
		t.Fatalf("InjectText: %v", err)
	}
	if !strings.HasPrefix(out, text) {
		t.Errorf("bottom text injection must append, got %q", out)
	}
	if !strings.Contains(out, "pixelId="+id) {
		t.Errorf("text output missing pixel URL with identifier: %q", out)
	}

	out, _, err = inj.InjectText(text, InjectOptions{Position: PositionTop})
	if err != nil {
		t.Fatalf("InjectText: %v", err)
	}
	if !strings.HasSuffix(out, text) {
		t.Errorf("top text injection must prepend, got %q", out)
	}
}

func TestBuildPixelURLPreservesExistingQuery(t *testing.T) {
	inj := NewInjector("https://t.example.com/track/pixel?src=esp", NewGenerator())

	raw, err := inj.BuildPixelURL("trk_abc", InjectOptions{})
	if err != nil {
		t.Fatalf("BuildPixelURL: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := u.Query().Get("src"); got != "esp" {
		t.Errorf("existing query param lost, src = %q", got)
	}
	if got := u.Query().Get("pixelId"); got != "trk_abc" {
		t.Errorf("pixelId = %q", got)
	}
}
