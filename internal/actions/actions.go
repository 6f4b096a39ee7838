// internal/actions/actions.go
//
// Package actions builds the opcode table and discovers the Actions
// bound to a node's forms and links (spec §4.3/§6): each action is
// resolved to an OpCode and an ActionRisk, using exact text match
// before falling back to keyword match.
package actions

import (
	"strings"

	"github.com/cortexlabs/cortex/internal/extract"
	ihtml "github.com/cortexlabs/cortex/internal/html"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// Named opcodes (spec §6: "16-bit (category<<8)|action pair").
var (
	OpNavigate       = sitegraph.MakeOpCode(sitegraph.CategoryNavigation, 1)
	OpSearch         = sitegraph.MakeOpCode(sitegraph.CategorySearch, 1)
	OpAddToCart      = sitegraph.MakeOpCode(sitegraph.CategoryCommerce, 1)
	OpRemoveFromCart = sitegraph.MakeOpCode(sitegraph.CategoryCommerce, 2)
	OpViewCart       = sitegraph.MakeOpCode(sitegraph.CategoryCommerce, 3)
	OpPurchase       = sitegraph.MakeOpCode(sitegraph.CategoryCommerce, 4)
	OpSubmitForm     = sitegraph.MakeOpCode(sitegraph.CategoryForm, 1)
	OpLogin          = sitegraph.MakeOpCode(sitegraph.CategoryAuth, 1)
	OpLogout         = sitegraph.MakeOpCode(sitegraph.CategoryAuth, 2)
	OpRegister       = sitegraph.MakeOpCode(sitegraph.CategoryAuth, 3)
	OpPlayMedia      = sitegraph.MakeOpCode(sitegraph.CategoryMedia, 1)
	OpShare          = sitegraph.MakeOpCode(sitegraph.CategorySocial, 1)
	OpDelete         = sitegraph.MakeOpCode(sitegraph.CategorySystem, 1)
	OpDownload       = sitegraph.MakeOpCode(sitegraph.CategorySystem, 2)
)

// riskFor assigns an ActionRisk per the destructive/cautious/safe rule:
// destructive = purchase/delete/logout, cautious = commerce/form-submit/
// auth, safe = everything else.
func riskFor(op sitegraph.OpCode) sitegraph.ActionRisk {
	switch op {
	case OpPurchase, OpDelete, OpLogout:
		return sitegraph.RiskDestructive
	case OpAddToCart, OpRemoveFromCart, OpViewCart, OpSubmitForm, OpLogin, OpRegister:
		return sitegraph.RiskCautious
	default:
		return sitegraph.RiskSafe
	}
}

// signal is one label→opcode rule. exact is tried before keyword.
type signal struct {
	exact   string
	keyword string
	op      sitegraph.OpCode
}

// exactSignals is checked in full before any keywordSignals entry is
// tried, per spec's "exact text match > keyword match" precedence.
var exactSignals = []signal{
	{exact: "add to cart", op: OpAddToCart},
	{exact: "add to bag", op: OpAddToCart},
	{exact: "remove from cart", op: OpRemoveFromCart},
	{exact: "view cart", op: OpViewCart},
	{exact: "checkout", op: OpPurchase},
	{exact: "buy now", op: OpPurchase},
	{exact: "place order", op: OpPurchase},
	{exact: "complete purchase", op: OpPurchase},
	{exact: "log in", op: OpLogin},
	{exact: "sign in", op: OpLogin},
	{exact: "log out", op: OpLogout},
	{exact: "sign out", op: OpLogout},
	{exact: "logout", op: OpLogout},
	{exact: "register", op: OpRegister},
	{exact: "sign up", op: OpRegister},
	{exact: "delete", op: OpDelete},
	{exact: "remove account", op: OpDelete},
	{exact: "share", op: OpShare},
	{exact: "play", op: OpPlayMedia},
}

var keywordSignals = []signal{
	{keyword: "cart", op: OpAddToCart},
	{keyword: "purchase", op: OpPurchase},
	{keyword: "buy", op: OpPurchase},
	{keyword: "login", op: OpLogin},
	{keyword: "signin", op: OpLogin},
	{keyword: "logout", op: OpLogout},
	{keyword: "signout", op: OpLogout},
	{keyword: "delete", op: OpDelete},
	{keyword: "remove", op: OpDelete},
	{keyword: "share", op: OpShare},
	{keyword: "download", op: OpDownload},
	{keyword: "search", op: OpSearch},
}

// resolveLabel maps a link/button label to an OpCode, exact match
// first, falling back to substring keyword match, and finally
// OpNavigate for anything unrecognised.
func resolveLabel(label string) sitegraph.OpCode {
	lower := strings.ToLower(strings.TrimSpace(label))
	if lower == "" {
		return OpNavigate
	}
	for _, s := range exactSignals {
		if lower == s.exact {
			return s.op
		}
	}
	for _, s := range keywordSignals {
		if strings.Contains(lower, s.keyword) {
			return s.op
		}
	}
	return OpNavigate
}

// Discover builds the Action list for one page from its structured
// data: a form-submit action per form (login/search refined by field
// shape), and a link-triggered action per download or action-verb
// link. Target is always sitegraph.NoTarget; link targets are not
// resolved to node indices.
func Discover(sd *extract.StructuredData) []sitegraph.Action {
	if sd == nil {
		return nil
	}
	var out []sitegraph.Action

	for _, f := range sd.Forms {
		op := OpSubmitForm
		switch {
		case f.HasPasswordField():
			op = OpLogin
		case hasSearchField(f):
			op = OpSearch
		}
		out = append(out, sitegraph.Action{
			OpCode:   op,
			Target:   sitegraph.NoTarget,
			CostHint: costHint(op),
			Risk:     riskFor(op),
		})
	}

	seen := make(map[sitegraph.OpCode]bool)
	for _, l := range sd.Links {
		if l.Class == ihtml.LinkDownload {
			if !seen[OpDownload] {
				out = append(out, sitegraph.Action{
					OpCode: OpDownload, Target: sitegraph.NoTarget,
					CostHint: costHint(OpDownload), Risk: riskFor(OpDownload),
				})
				seen[OpDownload] = true
			}
			continue
		}
		op := resolveLabel(l.Text)
		if op == OpNavigate {
			continue // plain navigation links are edges, not actions
		}
		if seen[op] {
			continue
		}
		seen[op] = true
		out = append(out, sitegraph.Action{
			OpCode:   op,
			Target:   sitegraph.NoTarget,
			CostHint: costHint(op),
			Risk:     riskFor(op),
		})
	}

	return out
}

func hasSearchField(f ihtml.Form) bool {
	for _, field := range f.Fields {
		n := strings.ToLower(field.Name)
		if strings.Contains(n, "search") || n == "q" {
			return true
		}
	}
	return false
}

// costHint is a coarse traversal-cost proxy: destructive/cautious
// actions cost more to undo than safe ones.
func costHint(op sitegraph.OpCode) uint8 {
	switch riskFor(op) {
	case sitegraph.RiskDestructive:
		return 200
	case sitegraph.RiskCautious:
		return 100
	default:
		return 10
	}
}
