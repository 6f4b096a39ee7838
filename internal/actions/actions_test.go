package actions

import (
	"testing"

	"github.com/cortexlabs/cortex/internal/extract"
	ihtml "github.com/cortexlabs/cortex/internal/html"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

func TestDiscover_LoginForm(t *testing.T) {
	sd := &extract.StructuredData{
		Forms: []ihtml.Form{
			{Method: "POST", Fields: []ihtml.FormField{
				{Name: "email", Type: "email"},
				{Name: "password", Type: "password"},
			}},
		},
	}
	got := Discover(sd)
	if len(got) != 1 {
		t.Fatalf("len(actions) = %d, want 1", len(got))
	}
	if got[0].OpCode != OpLogin {
		t.Fatalf("OpCode = %v, want OpLogin", got[0].OpCode)
	}
	if got[0].Risk != sitegraph.RiskCautious {
		t.Fatalf("Risk = %v, want RiskCautious", got[0].Risk)
	}
}

func TestDiscover_CheckoutLinkIsDestructive(t *testing.T) {
	sd := &extract.StructuredData{
		Links: []ihtml.Link{
			{Text: "Checkout", Class: ihtml.LinkInternal},
		},
	}
	got := Discover(sd)
	if len(got) != 1 {
		t.Fatalf("len(actions) = %d, want 1", len(got))
	}
	if got[0].OpCode != OpPurchase {
		t.Fatalf("OpCode = %v, want OpPurchase", got[0].OpCode)
	}
	if got[0].Risk != sitegraph.RiskDestructive {
		t.Fatalf("Risk = %v, want RiskDestructive", got[0].Risk)
	}
}

func TestDiscover_PlainNavLinkIsNotAnAction(t *testing.T) {
	sd := &extract.StructuredData{
		Links: []ihtml.Link{
			{Text: "About Us", Class: ihtml.LinkInternal},
		},
	}
	got := Discover(sd)
	if len(got) != 0 {
		t.Fatalf("len(actions) = %d, want 0 for a plain navigation link", len(got))
	}
}

func TestDiscover_DownloadLinkDeduplicates(t *testing.T) {
	sd := &extract.StructuredData{
		Links: []ihtml.Link{
			{Text: "spec.pdf", Class: ihtml.LinkDownload, Download: true},
			{Text: "manual.pdf", Class: ihtml.LinkDownload, Download: true},
		},
	}
	got := Discover(sd)
	if len(got) != 1 {
		t.Fatalf("len(actions) = %d, want 1 (deduplicated)", len(got))
	}
	if got[0].OpCode != OpDownload {
		t.Fatalf("OpCode = %v, want OpDownload", got[0].OpCode)
	}
}

func TestResolveLabel_ExactBeforeKeyword(t *testing.T) {
	// "add to cart" is an exact match for OpAddToCart; a keyword match
	// on "cart" alone would agree here, but "view your shopping cart"
	// only matches via keyword and must still resolve sensibly.
	// "remove from cart" separates the two: its exact entry gives
	// OpRemoveFromCart, while the "cart" keyword would give OpAddToCart.
	if op := resolveLabel("Add to Cart"); op != OpAddToCart {
		t.Fatalf("resolveLabel(Add to Cart) = %v, want OpAddToCart", op)
	}
	if op := resolveLabel("Remove from cart"); op != OpRemoveFromCart {
		t.Fatalf("resolveLabel(Remove from cart) = %v, want OpRemoveFromCart via exact match", op)
	}
	if op := resolveLabel("View your shopping cart"); op != OpAddToCart {
		t.Fatalf("resolveLabel(shopping cart) = %v, want OpAddToCart via keyword fallback", op)
	}
}
