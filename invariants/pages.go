package invariants

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/foomo/auditwalker/vo"
	"github.com/golang-jwt/jwt/v5"
)

var recipesInvariants = []Invariant{
	{Name: "filters-labelled", Category: CategoryRecipes, Severity: vo.SeverityBlocking, Check: checkRecipeFilters},
}

var settingsInvariants = []Invariant{
	{Name: "single-health-profile", Category: CategorySettings, Severity: vo.SeverityBlocking, Check: checkHealthProfile},
}

var adminInvariants = []Invariant{
	{Name: "no-privileged-role", Category: CategoryAdmin, Severity: vo.SeverityBlocking, Check: checkPrivilegedRole},
	{Name: "no-jwt", Category: CategoryAdmin, Severity: vo.SeverityBlocking, Check: checkJWT},
	{Name: "no-internal-tables", Category: CategoryAdmin, Severity: vo.SeverityBlocking, Check: checkInternalTables},
}

func checkRecipeFilters(doc *Document, route string) error {
	unlabelled := []string{}
	doc.Visible("[data-recipe-filter]").Each(func(i int, s *goquery.Selection) {
		if Text(s) != "" || nonEmptyAttr(s, "aria-label", "aria-labelledby", "title", "label") {
			return
		}
		unlabelled = append(unlabelled, describe(s))
	})
	if len(unlabelled) > 0 {
		return fail(fmt.Sprintf("%d recipe filters without label", len(unlabelled)), limit(unlabelled, 5)...)
	}
	return nil
}

func checkHealthProfile(doc *Document, route string) error {
	if count := doc.Find(`[data-singleton="health-profile"]`).Length(); count != 1 {
		return failf("health profile: found %d, expected exactly 1", count)
	}
	return nil
}

// PrivilegedRoles must never reach an admin screen
var PrivilegedRoles = []string{"service_role"}

func checkPrivilegedRole(doc *Document, route string) error {
	text := doc.VisibleText()
	found := []string{}
	for _, role := range PrivilegedRoles {
		if strings.Contains(text, role) {
			found = append(found, role)
		}
	}
	if len(found) > 0 {
		return fail("privileged role name exposed", found...)
	}
	return nil
}

var jwtRegex = regexp.MustCompile(`eyJ[A-Za-z0-9_-]{5,}\.eyJ[A-Za-z0-9_-]{5,}\.[A-Za-z0-9_-]*`)

// redactToken keeps the token out of reports, only the algorithm and role
// claim survive
func redactToken(token string) string {
	claims := jwt.MapClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return "unparseable token " + token[:8] + "..."
	}
	evidence := "token " + token[:8] + "... alg=" + parsed.Method.Alg()
	if role, ok := claims["role"].(string); ok {
		evidence += " role=" + role
	}
	return evidence
}

func checkJWT(doc *Document, route string) error {
	tokens := unique(jwtRegex.FindAllString(doc.VisibleText(), -1))
	if len(tokens) == 0 {
		return nil
	}
	evidence := make([]string, len(tokens))
	for i, token := range tokens {
		evidence[i] = redactToken(token)
	}
	return fail(fmt.Sprintf("%d access tokens exposed", len(tokens)), limit(evidence, 5)...)
}

// InternalTables database identifiers an admin screen must not show
var InternalTables = []string{
	"user_health_profiles",
	"product_scores_raw",
	"ingredient_ref",
	"audit_events",
	"auth.users",
	"storage.objects",
	"pg_catalog",
}

func checkInternalTables(doc *Document, route string) error {
	text := doc.VisibleText()
	found := []string{}
	for _, table := range InternalTables {
		if strings.Contains(text, table) {
			found = append(found, table)
		}
	}
	if len(found) > 0 {
		return fail("internal table names exposed", found...)
	}
	return nil
}
