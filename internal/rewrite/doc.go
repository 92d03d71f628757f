// Package rewrite holds the line-oriented source transforms applied to the
// working copy: mounting the generated route table in the root component,
// redirecting the framework router hook to a compatibility shim, and the
// shim module itself.
//
// The transforms are rule tables over lines, not parsers. They assume
// conventionally formatted sources: one default export in the root component,
// a self-closing page render element, and single-line router imports. Sources
// that break those preconditions are reported as rewrite errors. None of the
// transforms is safe to apply twice to the same text except the guarded import
// injection; the pipeline runs them once per fresh working copy.
package rewrite
