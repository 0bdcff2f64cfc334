package scan

import (
	"github.com/parascan/parascan/pkg/attackconfig"
	"github.com/parascan/parascan/pkg/csrf"
	"github.com/parascan/parascan/pkg/sqli"
	"github.com/parascan/parascan/pkg/xss"
)

func sqliProber(base attackconfig.Base) *sqli.Prober {
	return sqli.NewProber(&sqli.Config{Base: base})
}

func xssProber(base attackconfig.Base) *xss.Prober {
	return xss.NewProber(&xss.Config{Base: base})
}

func csrfProber(base attackconfig.Base) *csrf.Prober {
	return csrf.NewProber(&csrf.Config{Base: base})
}
