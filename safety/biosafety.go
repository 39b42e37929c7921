// Package safety screens user input against biosafety indicators before any
// pipeline step runs: human germline editing keywords (NIH Guidelines
// Section III-C), Federal Select Agents and Toxins (42 CFR Part 73), and
// dual-use research of concern indicators (USG DURC Policy).
package safety

import (
	"fmt"
	"strings"
)

// Flag represents a biosafety concern raised during screening.
type Flag struct {
	Category string // "germline", "select_agent", "dual_use"
	Trigger  string // the matched keyword
	Message  string
}

var germlineKeywords = []string{
	"embryo editing",
	"germline editing",
	"germline modification",
	"heritable editing",
	"heritable genome editing",
	"human embryo",
	"human germ cell",
	"human germline",
	"human oocyte",
	"human sperm",
	"reproductive cloning",
	"zygote editing",
}

// Partial list from the Federal Select Agent Program (selectagents.gov).
var selectAgents = []string{
	"bacillus anthracis",
	"bacillus cereus biovar anthracis",
	"botulinum neurotoxin",
	"brucella abortus",
	"brucella melitensis",
	"brucella suis",
	"burkholderia mallei",
	"burkholderia pseudomallei",
	"clostridium botulinum",
	"coxiella burnetii",
	"ebola virus",
	"francisella tularensis",
	"marburg virus",
	"nipah virus",
	"reconstructed 1918 influenza",
	"ricin",
	"rickettsia prowazekii",
	"sars-cov",
	"staphylococcal enterotoxin",
	"variola major virus",
	"variola minor virus",
	"yersinia pestis",
}

var durcKeywords = []string{
	"enhance transmissibility",
	"enhance virulence",
	"evasion of countermeasures",
	"gain of function",
	"immune evasion",
	"pandemic potential",
	"pathogen enhancement",
	"resistance to therapeutics",
	"weaponization",
}

// Check screens text (user input, gene names, prompts) for biosafety
// concerns. An empty result means no concerns were detected.
func Check(text string) []Flag {
	lowered := strings.ToLower(text)
	var flags []Flag

	for _, kw := range germlineKeywords {
		if strings.Contains(lowered, kw) {
			flags = append(flags, Flag{
				Category: "germline",
				Trigger:  kw,
				Message:  "Human germline or embryo editing is outside the scope of this tool (NIH Guidelines Section III-C).",
			})
		}
	}
	for _, kw := range selectAgents {
		if strings.Contains(lowered, kw) {
			flags = append(flags, Flag{
				Category: "select_agent",
				Trigger:  kw,
				Message:  fmt.Sprintf("%q is a regulated select agent (42 CFR Part 73); work requires Federal Select Agent Program registration.", kw),
			})
		}
	}
	for _, kw := range durcKeywords {
		if strings.Contains(lowered, kw) {
			flags = append(flags, Flag{
				Category: "dual_use",
				Trigger:  kw,
				Message:  fmt.Sprintf("%q matches a dual-use research of concern indicator (USG DURC Policy).", kw),
			})
		}
	}
	return flags
}

// FormatWarnings renders the flags as a markdown bullet list.
func FormatWarnings(flags []Flag) string {
	var b strings.Builder
	for _, f := range flags {
		fmt.Fprintf(&b, "- **[%s]** %s\n", f.Category, f.Message)
	}
	return b.String()
}

// Screen adapts Check to the runner's InputScreen interface.
type Screen struct{}

// NewScreen constructs the keyword-based biosafety screen.
func NewScreen() Screen { return Screen{} }

// Check reports whether text is blocked and, if so, the user-facing notice.
func (Screen) Check(text string) (bool, string) {
	flags := Check(text)
	if len(flags) == 0 {
		return false, ""
	}
	notice := "**Safety Notice**\n\n" + FormatWarnings(flags) +
		"\nPlease consult your institutional biosafety committee before proceeding."
	return true, notice
}
