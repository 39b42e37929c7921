package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCleanInput(t *testing.T) {
	assert.Empty(t, Check("knockout of TP53 in human HEK293T cells"))
	assert.Empty(t, Check(""))
}

func TestCheckCategories(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
		trigger  string
	}{
		{
			name:     "germline keyword",
			text:     "I want to try human germline editing for this variant",
			category: "germline",
			trigger:  "human germline",
		},
		{
			name:     "select agent case-insensitive",
			text:     "Design guides against Yersinia Pestis virulence genes",
			category: "select_agent",
			trigger:  "yersinia pestis",
		},
		{
			name:     "dual use indicator",
			text:     "could we enhance transmissibility of the strain",
			category: "dual_use",
			trigger:  "enhance transmissibility",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := Check(tt.text)
			require.NotEmpty(t, flags)
			assert.Equal(t, tt.category, flags[0].Category)
			assert.Equal(t, tt.trigger, flags[0].Trigger)
			assert.NotEmpty(t, flags[0].Message)
		})
	}
}

func TestCheckMultipleFlags(t *testing.T) {
	flags := Check("gain of function work on ebola virus")
	require.Len(t, flags, 2)

	categories := []string{flags[0].Category, flags[1].Category}
	assert.Contains(t, categories, "select_agent")
	assert.Contains(t, categories, "dual_use")
}

func TestFormatWarnings(t *testing.T) {
	flags := Check("ricin")
	out := FormatWarnings(flags)
	assert.Contains(t, out, "- **[select_agent]**")
	assert.Contains(t, out, "42 CFR Part 73")
}

func TestScreenBlocksAndPasses(t *testing.T) {
	screen := NewScreen()

	blocked, notice := screen.Check("knockout of BRCA1 in mouse")
	assert.False(t, blocked)
	assert.Empty(t, notice)

	blocked, notice = screen.Check("edit a human embryo")
	assert.True(t, blocked)
	assert.Contains(t, notice, "Safety Notice")
	assert.Contains(t, notice, "institutional biosafety committee")
}
