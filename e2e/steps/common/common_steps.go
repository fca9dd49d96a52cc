package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	DELETE(path string) error
	LastStatus() int
	LastBody() string
	GetResponseField(field string) (any, error)
	ActAs(actor string)
	Save(name, value string)
	Expand(s string) string
}

// RegisterSteps registers generic request and assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I act as "([^"]*)"$`, steps.actAs)
	ctx.Step(`^I am anonymous$`, steps.anonymous)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I DELETE "([^"]*)"$`, steps.delete)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be empty$`, steps.fieldShouldBeEmpty)
	ctx.Step(`^the field error "([^"]*)" should be "([^"]*)"$`, steps.fieldErrorShouldBe)
	ctx.Step(`^I save the response field "([^"]*)" as "([^"]*)"$`, steps.saveField)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) actAs(ctx context.Context, actor string) error {
	s.tc.ActAs(actor)
	return nil
}

func (s *commonSteps) anonymous(ctx context.Context) error {
	s.tc.ActAs("")
	return nil
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) delete(ctx context.Context, path string) error {
	return s.tc.DELETE(path)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, want int) error {
	if got := s.tc.LastStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, got, s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, field, want string) error {
	got, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	want = s.tc.Expand(want)
	if fmt.Sprint(got) != want {
		return fmt.Errorf("field %q: expected %q, got %q", field, want, fmt.Sprint(got))
	}
	return nil
}

func (s *commonSteps) fieldShouldBeEmpty(ctx context.Context, field string) error {
	got, err := s.tc.GetResponseField(field)
	if err != nil {
		return nil
	}
	if got != nil && got != "" {
		return fmt.Errorf("field %q: expected empty, got %v", field, got)
	}
	return nil
}

func (s *commonSteps) fieldErrorShouldBe(ctx context.Context, field, want string) error {
	return s.fieldShouldBe(ctx, "fields."+field, want)
}

func (s *commonSteps) saveField(ctx context.Context, field, name string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	s.tc.Save(name, fmt.Sprint(v))
	return nil
}
