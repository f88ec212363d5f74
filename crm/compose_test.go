package crm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/taxdesk/models"
)

func coupleClient() models.Client {
	return models.Client{
		ID:              "CLI-1",
		FirstName:       "john",
		LastName:        "smith",
		SpouseFirstName: "jane",
		SpouseLastName:  "smith",
		Email:           "john@example.com",
		SpouseEmail:     "jane@example.com",
		Gender:          "Male",
	}
}

func TestRecipients(t *testing.T) {
	assert.Len(t, Recipients(coupleClient()), 2)
	assert.Empty(t, Recipients(models.Client{Email: "not-an-address"}))

	single := models.Client{SpouseEmail: " jane@example.com "}
	r, err := ResolveRecipient(single, "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSpouse, r.Role)
	assert.Equal(t, "jane@example.com", r.Address)
}

func TestResolveRecipientErrors(t *testing.T) {
	_, err := ResolveRecipient(coupleClient(), "")
	assert.ErrorIs(t, err, ErrRecipientAmbiguous)

	_, err = ResolveRecipient(models.Client{}, models.RoleTaxpayer)
	assert.ErrorIs(t, err, ErrNoRecipient)

	_, err = ResolveRecipient(models.Client{Email: "a@b.c"}, models.RoleSpouse)
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestComposeTaxpayer(t *testing.T) {
	tmpl := models.Template{Type: "Follow Up", Subject: "Your return", Body: "Hello {Name}, your return is ready."}

	email, err := Compose(tmpl, coupleClient(), StyleFormal, models.RoleTaxpayer, "<b>Kim</b>")
	require.NoError(t, err)

	assert.Equal(t, "john@example.com", email.To)
	assert.Equal(t, "Your return", email.Subject)
	assert.Equal(t, "Dear Mr. Smith,\n\nHello John, your return is ready.", email.PlainBody)
	assert.Equal(t, "Dear Mr. Smith,<br><br>Hello John, your return is ready.<br><br><b>Kim</b>", email.HTMLBody)
}

func TestComposeSpouseUsesSpouseNameAndUnknownGender(t *testing.T) {
	tmpl := models.Template{Type: "Follow Up", Body: "Hi again {Name}"}

	email, err := Compose(tmpl, coupleClient(), StyleFormal, models.RoleSpouse, "")
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", email.To)
	assert.Equal(t, "Dear Jane Smith,\n\nHi again Jane", email.PlainBody)
}

func TestRenderHTML(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt;<br>c", RenderHTML("a <b>\r\nc", ""))
	assert.Equal(t, "x<br><br>sig", RenderHTML("x", "sig"))
	assert.Equal(t, "x", RenderHTML("x", "  "))
}

func TestFindTemplate(t *testing.T) {
	templates := []models.Template{{Type: "A"}, {Type: "B", Subject: "b"}}

	got, err := FindTemplate(templates, "B")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Subject)

	_, err = FindTemplate(templates, "b")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}
