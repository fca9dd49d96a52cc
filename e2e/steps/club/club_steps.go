package club

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	PUT(path string, body any) error
	GET(path string) error
	LastStatus() int
	LastBody() string
	GetResponseField(field string) (any, error)
	ActAs(actor string)
	Save(name, value string)
	Saved(name string) (string, bool)
	Nonce() string
}

// RegisterSteps registers club administration and directive slate steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &clubSteps{tc: tc}

	ctx.Step(`^"([^"]*)" creates the club "([^"]*)"$`, steps.createClub)
	ctx.Step(`^"([^"]*)" drafts the directive of "([^"]*)":$`, steps.saveDraft)
	ctx.Step(`^"([^"]*)" commits the directive of "([^"]*)"$`, steps.commit)
	ctx.Step(`^"([^"]*)" lists the (president|secretary|treasurer|director) candidates of "([^"]*)"$`, steps.candidates)
	ctx.Step(`^the candidates should include "([^"]*)"$`, steps.candidatesInclude)
	ctx.Step(`^the candidates should not include "([^"]*)"$`, steps.candidatesExclude)
}

type clubSteps struct {
	tc TestContext
}

func (s *clubSteps) createClub(ctx context.Context, actor, name string) error {
	s.tc.ActAs(actor)
	if err := s.tc.POST("/admin/clubs", map[string]string{
		"fantasy_name":  name + " " + s.tc.Nonce(),
		"founding_date": "1990-03-15",
		"email":         "contacto@e2e.sportclub.test",
	}); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("create club: status %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Save("club."+name, fmt.Sprint(id))
	return nil
}

// saveDraft reads a two-column table of position and member alias.
func (s *clubSteps) saveDraft(ctx context.Context, actor, club string, table *godog.Table) error {
	clubID, err := s.clubID(club)
	if err != nil {
		return err
	}
	body := make(map[string]string, len(table.Rows))
	for _, row := range table.Rows {
		if len(row.Cells) != 2 {
			return fmt.Errorf("draft rows need a position and a member")
		}
		memberID, ok := s.tc.Saved(row.Cells[1].Value + ".id")
		if !ok {
			return fmt.Errorf("unknown member %q", row.Cells[1].Value)
		}
		body[strings.ToLower(row.Cells[0].Value)] = memberID
	}
	s.tc.ActAs(actor)
	return s.tc.PUT("/admin/clubs/"+clubID+"/slate/draft", body)
}

func (s *clubSteps) commit(ctx context.Context, actor, club string) error {
	clubID, err := s.clubID(club)
	if err != nil {
		return err
	}
	s.tc.ActAs(actor)
	return s.tc.POST("/admin/clubs/"+clubID+"/slate/commit", nil)
}

func (s *clubSteps) candidates(ctx context.Context, actor, role, club string) error {
	clubID, err := s.clubID(club)
	if err != nil {
		return err
	}
	s.tc.ActAs(actor)
	return s.tc.GET("/admin/clubs/" + clubID + "/candidates?role=" + role)
}

func (s *clubSteps) candidatesInclude(ctx context.Context, member string) error {
	found, err := s.hasCandidate(member)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s missing from candidates: %s", member, s.tc.LastBody())
	}
	return nil
}

func (s *clubSteps) candidatesExclude(ctx context.Context, member string) error {
	found, err := s.hasCandidate(member)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("%s unexpectedly offered: %s", member, s.tc.LastBody())
	}
	return nil
}

func (s *clubSteps) hasCandidate(member string) (bool, error) {
	memberID, ok := s.tc.Saved(member + ".id")
	if !ok {
		return false, fmt.Errorf("unknown member %q", member)
	}
	raw, err := s.tc.GetResponseField("candidates")
	if err != nil {
		return false, err
	}
	list, _ := raw.([]any)
	for _, item := range list {
		if c, ok := item.(map[string]any); ok && c["id"] == memberID {
			return true, nil
		}
	}
	return false, nil
}

func (s *clubSteps) clubID(name string) (string, error) {
	id, ok := s.tc.Saved("club." + name)
	if !ok {
		return "", fmt.Errorf("club %q was not created in this scenario", name)
	}
	return id, nil
}
