package commands

import (
	"fmt"

	"git.home.luguber.info/inful/next2gas/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (VersionCmd) Run(*Global, *CLI) error {
	fmt.Println(version.String())
	return nil
}
