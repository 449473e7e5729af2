package tracking

import (
	"fmt"
	"net/url"
	"strings"
)

// Pixel rendering modes and insertion positions recognized by InjectOptions.
const (
	PixelSize1x1    = "1x1"
	PixelSizeHidden = "hidden"

	PositionTop    = "top"
	PositionBottom = "bottom"
)

// InjectOptions configures a single injection. Zero values fall back to the
// injector's configured defaults.
type InjectOptions struct {
	// PixelURL overrides the injector's base pixel endpoint.
	PixelURL string `json:"pixel_url,omitempty"`
	// PixelSize selects the img styling: PixelSize1x1 or PixelSizeHidden.
	PixelSize string `json:"pixel_size,omitempty"`
	// Position selects where the pixel lands when the document has no
	// closing body tag: PositionTop or PositionBottom.
	Position string `json:"position,omitempty"`

	CampaignID string `json:"campaign_id,omitempty"`
	EmailID    string `json:"email_id,omitempty"`
	// Recipient is an opaque recipient identifier; it is percent-encoded
	// onto the pixel URL, so arbitrary Unicode values survive losslessly.
	Recipient string `json:"recipient,omitempty"`
}

// Injector embeds tracking pixels into outgoing message content. Each
// injection mints a fresh identifier and returns it alongside the modified
// content so the caller can correlate the sent message with later opens.
type Injector struct {
	baseURL   string
	pixelSize string
	position  string
	gen       *Generator
}

// NewInjector creates an injector with the given base pixel endpoint and
// defaults of a 1x1 pixel appended at the bottom.
func NewInjector(baseURL string, gen *Generator) *Injector {
	return &Injector{
		baseURL:   baseURL,
		pixelSize: PixelSize1x1,
		position:  PositionBottom,
		gen:       gen,
	}
}

// NewInjectorWithDefaults creates an injector with explicit default pixel
// size and position, typically taken from config.
func NewInjectorWithDefaults(baseURL, pixelSize, position string, gen *Generator) *Injector {
	inj := NewInjector(baseURL, gen)
	if pixelSize != "" {
		inj.pixelSize = pixelSize
	}
	if position != "" {
		inj.position = position
	}
	return inj
}

// BuildPixelURL builds the pixel URL for an already-minted identifier.
// The identifier always rides in pixelId; campaignId, emailId and recipient
// are added only when supplied.
func (i *Injector) BuildPixelURL(id string, opts InjectOptions) (string, error) {
	base := opts.PixelURL
	if base == "" {
		base = i.baseURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse pixel base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("pixel base URL %q is not absolute", base)
	}

	q := u.Query()
	q.Set("pixelId", id)
	if opts.CampaignID != "" {
		q.Set("campaignId", opts.CampaignID)
	}
	if opts.EmailID != "" {
		q.Set("emailId", opts.EmailID)
	}
	if opts.Recipient != "" {
		q.Set("recipient", opts.Recipient)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// InjectHTML embeds a tracking pixel into an HTML document and returns the
// modified document plus the minted identifier.
//
// When the document has a closing body tag the pixel goes immediately before
// it; content there is unambiguously inside the body regardless of the
// configured position. Without one the pixel is prepended or appended at the
// document boundary. The pixel is never spliced at an arbitrary offset: that
// could split a tag or attribute and corrupt the document.
func (i *Injector) InjectHTML(html string, opts InjectOptions) (string, string, error) {
	id := i.gen.NewIdentifier()

	pixelURL, err := i.BuildPixelURL(id, opts)
	if err != nil {
		return "", "", err
	}
	tag := i.pixelTag(pixelURL, opts)

	if idx := lastBodyClose(html); idx >= 0 {
		return html[:idx] + tag + html[idx:], id, nil
	}

	if i.resolvePosition(opts) == PositionTop {
		return tag + html, id, nil
	}
	return html + tag, id, nil
}

// InjectText appends (or prepends, per position) the bare pixel URL to
// non-markup content.
func (i *Injector) InjectText(text string, opts InjectOptions) (string, string, error) {
	id := i.gen.NewIdentifier()

	pixelURL, err := i.BuildPixelURL(id, opts)
	if err != nil {
		return "", "", err
	}

	if i.resolvePosition(opts) == PositionTop {
		return pixelURL + "\n\n" + text, id, nil
	}
	return text + "\n\n" + pixelURL, id, nil
}

// lastBodyClose returns the byte offset of the last closing body tag,
// matched case-insensitively, or -1. Searching over the raw bytes rather
// than a lowercased copy keeps offsets stable for non-ASCII documents.
func lastBodyClose(html string) int {
	const marker = "</body>"
	for i := len(html) - len(marker); i >= 0; i-- {
		if strings.EqualFold(html[i:i+len(marker)], marker) {
			return i
		}
	}
	return -1
}

func (i *Injector) pixelTag(pixelURL string, opts InjectOptions) string {
	size := opts.PixelSize
	if size == "" {
		size = i.pixelSize
	}

	style := "border:0;width:1px;height:1px"
	if size == PixelSizeHidden {
		style = "display:none"
	}
	return fmt.Sprintf(`<img src="%s" width="1" height="1" style="%s" alt="" />`, pixelURL, style)
}

func (i *Injector) resolvePosition(opts InjectOptions) string {
	if opts.Position != "" {
		return opts.Position
	}
	return i.position
}
