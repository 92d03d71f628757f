// Package workspace manages the disposable working directory of a bundle run.
//
// The workspace lives at a fixed path (by default <tmp>/next2gas-work) and is
// wiped at the start of every run. It holds the working copy of the project
// and the staging directory of the deployable bundle. A marker file refuses a
// second transformation of the same working copy until the next reset.
package workspace
