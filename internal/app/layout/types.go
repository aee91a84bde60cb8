package layout

import "github.com/olivezebra/mensa-api/internal/domain"

// ContentTypeSVG is the media type of a rendered layout.
const ContentTypeSVG = "image/svg+xml"

// Document is a rendered layout, passed through verbatim from the renderer.
type Document struct {
	ContentType string
	Body        []byte
}

// RenderRequest is the payload sent to the renderer: a read-only projection of a mensa.
type RenderRequest struct {
	ID     domain.MensaID `json:"id"`
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Tables []domain.Table `json:"tables"`
}

// NewRenderRequest copies exactly the fields the renderer needs from m.
func NewRenderRequest(m domain.Mensa) RenderRequest {
	tables := m.Tables
	if tables == nil {
		// Renderer expects an array, never null.
		tables = []domain.Table{}
	}
	return RenderRequest{
		ID:     m.ID,
		X:      m.X,
		Y:      m.Y,
		Width:  m.Width,
		Height: m.Height,
		Tables: tables,
	}
}
