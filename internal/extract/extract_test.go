package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScan_Empty(t *testing.T) {
	t.Parallel()

	c := Scan("")
	assert.Empty(t, c.Emails)
	assert.Empty(t, c.Phones)
	assert.Empty(t, c.Mentions)
}

func TestScan_EmailAndMention(t *testing.T) {
	t.Parallel()

	c := Scan("contact me at a@b.com or @carol")
	assert.Equal(t, []string{"a@b.com"}, c.Emails)
	assert.Empty(t, c.Phones)
	assert.Equal(t, []string{"carol"}, c.Mentions)
}

func TestScan_EmailDomainIsNotAMention(t *testing.T) {
	t.Parallel()

	c := Scan("write sales@acme.io today")
	assert.Equal(t, []string{"sales@acme.io"}, c.Emails)
	assert.Empty(t, c.Mentions)
}

func TestScan_Phones(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"international", "Call +49 170 123 4567 now", []string{"+49 170 123 4567"}},
		{"hyphenated", "555-123-4567", []string{"555-123-4567"}},
		{"dotted", "call 0171.2345.678", []string{"0171.2345.678"}},
		{"parenthesized area code", "(212) 555-0187", []string{"(212) 555-0187"}},
		{"short runs ignored", "room 42, floor 3", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := Scan(tt.text)
			assert.Equal(t, tt.want, c.Phones)
		})
	}
}

func TestScan_OrderPreservedNoDedupe(t *testing.T) {
	t.Parallel()

	c := Scan("first a@b.com then c@d.org then a@b.com again, ping @zoe and @adam and @zoe")
	assert.Equal(t, []string{"a@b.com", "c@d.org", "a@b.com"}, c.Emails)
	assert.Equal(t, []string{"zoe", "adam", "zoe"}, c.Mentions)
}

func TestScan_MentionAtStart(t *testing.T) {
	t.Parallel()

	c := Scan("@bob is the best")
	assert.Equal(t, []string{"bob"}, c.Mentions)
}

func TestScan_MentionCharset(t *testing.T) {
	t.Parallel()

	c := Scan("see @some_user.99 and @other-user")
	// the hyphen ends the second handle
	assert.Equal(t, []string{"some_user.99", "other"}, c.Mentions)
}

func TestScan_Idempotent(t *testing.T) {
	t.Parallel()

	text := "reach me: a@b.com / +1 555 123 4567 / @alice"
	first := Scan(text)
	second := Scan(text)
	assert.Equal(t, first, second)
}
