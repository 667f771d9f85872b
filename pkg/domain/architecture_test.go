package domain

import (
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// allowedThirdParty lists the only non-stdlib imports the domain may use.
var allowedThirdParty = map[string]struct{}{
	"github.com/shopspring/decimal": {},
}

func TestDomainImportsOnlyStdlibAndDecimal(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, "siteledger/pkg/domain")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if len(pkgs) != 1 {
		t.Fatalf("expected one package, got %d", len(pkgs))
	}
	for path := range pkgs[0].Imports {
		if strings.HasPrefix(path, "siteledger/") {
			t.Errorf("domain must not import %s", path)
			continue
		}
		first := strings.SplitN(path, "/", 2)[0]
		if !strings.Contains(first, ".") {
			continue
		}
		if _, ok := allowedThirdParty[path]; !ok {
			t.Errorf("domain imports unapproved dependency %s", path)
		}
	}
}
