// Package mensas implements the public facility read use cases.
package mensas

import (
	"context"
	"errors"
	"fmt"

	"github.com/olivezebra/mensa-api/internal/app/apperr"
	"github.com/olivezebra/mensa-api/internal/app/layout"
	"github.com/olivezebra/mensa-api/internal/domain"
	"github.com/olivezebra/mensa-api/internal/ports/out/mensarepo"
)

// Renderer produces a layout document for a facility. *layout.Proxy implements it.
type Renderer interface {
	RenderLayout(ctx context.Context, m domain.Mensa) (layout.Document, error)
}

type Service struct {
	repo     mensarepo.Repository
	renderer Renderer
}

func NewService(repo mensarepo.Repository, renderer Renderer) *Service {
	return &Service{repo: repo, renderer: renderer}
}

func (s *Service) ListMensas(ctx context.Context) ([]domain.Mensa, error) {
	ms, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mensas: %w", err)
	}
	return ms, nil
}

func (s *Service) GetMensa(ctx context.Context, id domain.MensaID) (domain.Mensa, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mensarepo.ErrNotFound) {
			return domain.Mensa{}, apperr.NotFound(apperr.CodeMensaNotFound, "No such mensa in database")
		}
		return domain.Mensa{}, fmt.Errorf("load mensa %s: %w", id, err)
	}
	return m, nil
}

// GetTables returns the mensa's tables; a mensa without tables yields an empty slice.
func (s *Service) GetTables(ctx context.Context, id domain.MensaID) ([]domain.Table, error) {
	m, err := s.GetMensa(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Tables == nil {
		return []domain.Table{}, nil
	}
	return m.Tables, nil
}

// GetLayout looks the mensa up, then asks the renderer for its layout.
// Render failures surface as apperr.KindRenderUnavailable.
func (s *Service) GetLayout(ctx context.Context, id domain.MensaID) (layout.Document, error) {
	m, err := s.GetMensa(ctx, id)
	if err != nil {
		return layout.Document{}, err
	}
	return s.renderer.RenderLayout(ctx, m)
}
