package e2e

import (
	"github.com/cucumber/godog"

	"sportclub/e2e/steps/club"
	"sportclub/e2e/steps/common"
	"sportclub/e2e/steps/member"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	member.RegisterSteps(ctx, tc)
	club.RegisterSteps(ctx, tc)
}
