package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Policy     string `json:"policy,omitempty"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`

	// Base is the checked directory; text output shows paths relative
	// to it.
	Base string `json:"-"`
}
