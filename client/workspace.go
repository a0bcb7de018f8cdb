package client

import (
	"context"
	"fmt"

	"github.com/nikhilsahni7/StandupX/models"
	"github.com/nikhilsahni7/StandupX/question"
	"github.com/nikhilsahni7/StandupX/response"
	"golang.org/x/sync/errgroup"
)

// Workspace is everything needed to edit or answer one ceremony.
type Workspace struct {
	Ceremony  *models.Ceremony
	Questions []models.CeremonyQuestion
	Catalog   []models.Question
}

// LoadWorkspace fetches the ceremony, its questions and the catalog in
// parallel. Any failed call fails the whole load.
func (c *Client) LoadWorkspace(ctx context.Context, ceremonyID uint) (*Workspace, error) {
	ws := &Workspace{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cer, err := c.GetCeremony(gctx, ceremonyID)
		if err != nil {
			return fmt.Errorf("load ceremony: %w", err)
		}
		ws.Ceremony = cer
		return nil
	})
	g.Go(func() error {
		rows, err := c.ListCeremonyQuestions(gctx, ceremonyID)
		if err != nil {
			return fmt.Errorf("load ceremony questions: %w", err)
		}
		ws.Questions = rows
		return nil
	})
	g.Go(func() error {
		catalog, err := c.ListQuestions(gctx, question.Filter{})
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		ws.Catalog = catalog
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ws, nil
}

// Items resolves the ceremony's questions against the catalog.
func (ws *Workspace) Items() ([]response.Item, error) {
	return response.Resolve(ws.Questions, ws.Catalog)
}

// Available returns the catalog questions not yet attached.
func (ws *Workspace) Available() []models.Question {
	f := question.Filter{}
	for _, row := range ws.Questions {
		f.ExcludeIDs = append(f.ExcludeIDs, row.QuestionID)
	}
	return f.Apply(ws.Catalog)
}
