package rewrite

import (
	_ "embed"
)

const (
	// ShimModule is the import name of the compatibility module.
	ShimModule = "useRouter"
	// ShimFileName is written into the pages directory.
	ShimFileName = ShimModule + ".tsx"
)

//go:embed templates/useRouter.tsx
var shimSource string

// ShimSource returns the compatibility module standing in for the framework
// router hook. Its provider merges a react-router backed push/back/query over
// the native router state, with the replacement fields taking precedence, and
// recomputes the merge whenever the native state changes.
func ShimSource() string {
	return shimSource
}
