package crm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harperreed/taxdesk/models"
)

func TestGenerateGreeting(t *testing.T) {
	tests := []struct {
		style  Style
		first  string
		last   string
		gender models.Gender
		want   string
	}{
		{StyleCasual, "john", "smith", models.GenderMale, "Hi John,"},
		{StyleFormal, "john", "smith", models.GenderMale, "Dear Mr. Smith,"},
		{StyleFormal, "jane", "smith", models.GenderFemale, "Dear Ms. Smith,"},
		{StyleFormal, "john", "", models.GenderUnknown, "Dear John,"},
		{StyleFormal, "pat", "doe", models.GenderUnknown, "Dear Pat Doe,"},
		{StyleCasual, "  mary ann ", "", models.GenderFemale, "Hi Mary Ann,"},
		{StyleCasual, "", "smith", models.GenderMale, "Hi Client,"},
		{StyleFormal, "", "", models.GenderUnknown, "Dear Client,"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateGreeting(tt.style, tt.first, tt.last, tt.gender))
		})
	}
}

func TestParseStyle(t *testing.T) {
	assert.Equal(t, StyleFormal, ParseStyle("formal"))
	assert.Equal(t, StyleCasual, ParseStyle("Casual"))
	assert.Equal(t, StyleCasual, ParseStyle("anything"))
}

func TestMergeTemplate(t *testing.T) {
	assert.Equal(t, "Thanks Ann, see you soon Ann", MergeTemplate("Thanks {Name}, see you soon {Name}", " ann "))
	assert.Equal(t, "Hello Client", MergeTemplate("Hello {Name}", ""))
	assert.Equal(t, "No placeholder", MergeTemplate("No placeholder", "ann"))
}
