package config

import "strings"

// StyleMode selects how stylesheet links are carried into the entry document.
type StyleMode string

const (
	// StyleModeInline rewrites the link href to a data URI.
	StyleModeInline StyleMode = "inline"
	// StyleModeInclude moves the stylesheet into a template fragment pulled in by an include directive.
	StyleModeInclude StyleMode = "include"
)

// NormalizeStyleMode canonicalizes user input; returns empty string for unknown values.
func NormalizeStyleMode(raw string) StyleMode {
	switch StyleMode(strings.ToLower(strings.TrimSpace(raw))) {
	case StyleModeInline:
		return StyleModeInline
	case StyleModeInclude:
		return StyleModeInclude
	default:
		return ""
	}
}

// DataPlacement selects the element receiving the runtime data script.
type DataPlacement string

const (
	PlacementHead DataPlacement = "head"
	PlacementBody DataPlacement = "body"
)

// NormalizeDataPlacement canonicalizes user input; returns empty string for unknown values.
func NormalizeDataPlacement(raw string) DataPlacement {
	switch DataPlacement(strings.ToLower(strings.TrimSpace(raw))) {
	case PlacementHead:
		return PlacementHead
	case PlacementBody:
		return PlacementBody
	default:
		return ""
	}
}

// RetryBackoffMode selects how the delay between clone attempts grows.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// NormalizeRetryBackoff canonicalizes user input; returns empty string for unknown values.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	switch m := RetryBackoffMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
		return m
	default:
		return ""
	}
}
