package buildpipeline

import (
	"path/filepath"

	"github.com/iancoleman/strcase"

	"contractmeta/internal/metadata"
)

// OutputName returns the descriptor file name of a contract, e.g.
// "my_token.metadata.json" for MyToken.
func OutputName(contract string, format metadata.Format) string {
	return strcase.ToSnake(contract) + ".metadata" + format.Ext()
}

// OutputPath places OutputName under dir; an explicit path wins.
func OutputPath(explicit, dir, contract string, format metadata.Format) string {
	if explicit != "" {
		return explicit
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, OutputName(contract, format))
}
