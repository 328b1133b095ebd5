package commands

import (
	"fmt"

	"git.home.luguber.info/inful/reqaz/internal/version"
)

type VersionCmd struct{}

func (v *VersionCmd) Run(g *Global, _ *CLI) error {
	_, err := fmt.Fprintln(g.out(), version.String())
	return err
}
