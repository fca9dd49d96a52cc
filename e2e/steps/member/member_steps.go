package member

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	LastStatus() int
	LastBody() string
	GetResponseField(field string) (any, error)
	SetToken(actor, token string)
	ActAs(actor string)
	Save(name, value string)
	Saved(name string) (string, bool)
	Nonce() string
	AdminCredentials() (string, string)
}

const password = "e2e-password"

// RegisterSteps registers member registration, login and enrollment steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &memberSteps{tc: tc}

	ctx.Step(`^the administrator is logged in as "([^"]*)"$`, steps.adminLogin)
	ctx.Step(`^a member "([^"]*)" aged (\d+) has registered and logged in$`, steps.registerAndLogin)
	ctx.Step(`^I register "([^"]*)" aged (\d+) with RUT typed as "([^"]*)"$`, steps.registerWithRUT)
	ctx.Step(`^I register an applicant aged (\d+)$`, steps.registerApplicant)
	ctx.Step(`^"([^"]*)" enrolls in the club "([^"]*)"$`, steps.enroll)
}

type memberSteps struct {
	tc TestContext
}

func (s *memberSteps) adminLogin(ctx context.Context, actor string) error {
	email, pass := s.tc.AdminCredentials()
	if email == "" {
		return godog.ErrPending
	}
	return s.login(actor, email, pass)
}

func (s *memberSteps) registerAndLogin(ctx context.Context, actor string, age int) error {
	rut := randomRUT()
	if err := s.register(actor, age, rut); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("register %s: status %d: %s", actor, s.tc.LastStatus(), s.tc.LastBody())
	}
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Save(actor+".id", fmt.Sprint(id))
	s.tc.Save(actor+".rut", rut)
	return s.login(actor, s.email(actor), password)
}

// registerWithRUT registers a fresh RUT typed either "raw" or "dotted" and
// remembers its display form.
func (s *memberSteps) registerWithRUT(ctx context.Context, actor string, age int, typed string) error {
	rut := randomRUT()
	value := rut
	switch typed {
	case "dotted":
		value = dotted(rut)
	case "raw":
	default:
		return fmt.Errorf("unknown RUT style %q", typed)
	}
	s.tc.Save(actor+".rut.display", dotted(rut))
	return s.register(actor, age, value)
}

func (s *memberSteps) registerApplicant(ctx context.Context, age int) error {
	return s.register("applicant", age, randomRUT())
}

func (s *memberSteps) enroll(ctx context.Context, actor, club string) error {
	clubID, ok := s.tc.Saved("club." + club)
	if !ok {
		return fmt.Errorf("club %q was not created in this scenario", club)
	}
	s.tc.ActAs(actor)
	return s.tc.POST("/me/club/"+clubID+"/enroll", nil)
}

func (s *memberSteps) register(actor string, age int, rut string) error {
	return s.tc.POST("/members/register", map[string]string{
		"name":             "E2E " + actor,
		"email":            s.email(actor),
		"password":         password,
		"password_confirm": password,
		"birth_date":       birthDateForAge(age),
		"identifier_kind":  "RUT",
		"identifier_value": rut,
		"phone":            "+56912345678",
	})
}

func (s *memberSteps) login(actor, email, pass string) error {
	if err := s.tc.POST("/members/login", map[string]string{"email": email, "password": pass}); err != nil {
		return err
	}
	if s.tc.LastStatus() != 200 {
		return fmt.Errorf("login %s: status %d: %s", actor, s.tc.LastStatus(), s.tc.LastBody())
	}
	token, err := s.tc.GetResponseField("access_token")
	if err != nil {
		return err
	}
	s.tc.SetToken(actor, fmt.Sprint(token))
	if id, err := s.tc.GetResponseField("profile.id"); err == nil {
		s.tc.Save(actor+".id", fmt.Sprint(id))
	}
	return nil
}

func (s *memberSteps) email(actor string) string {
	return actor + "." + s.tc.Nonce() + "@e2e.sportclub.test"
}

// birthDateForAge returns a date that makes the member exactly age years
// old today.
func birthDateForAge(age int) string {
	return time.Now().UTC().AddDate(-age, 0, -1).Format(time.DateOnly)
}

// randomRUT returns a valid unformatted RUT with an eight digit body.
func randomRUT() string {
	body := strconv.Itoa(10_000_000 + rand.IntN(89_999_999))
	return body + string(checkDigit(body))
}

func checkDigit(body string) byte {
	sum, factor := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch r := 11 - sum%11; r {
	case 11:
		return '0'
	case 10:
		return 'K'
	default:
		return byte('0' + r)
	}
}

func dotted(rut string) string {
	body, dv := rut[:len(rut)-1], rut[len(rut)-1:]
	out := ""
	for i, c := range body {
		if i > 0 && (len(body)-i)%3 == 0 {
			out += "."
		}
		out += string(c)
	}
	return out + "-" + dv
}
