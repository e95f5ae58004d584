package moderation

import (
	"cube-race/errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"badger", "snake", "mushroom"}, replacementChar)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Simple word and space preservation", input: "The badger team", expected: "The ****** team"},
		{name: "Multiple occurrences", input: "badger badger", expected: "****** ******"},
		// B (index 4) . 4 . d . g . € r (index 13) -> 10 characters
		{name: "Leet speak and internal punctuation", input: "Mr. B.4.d.g.€r !", expected: "Mr. ********** !"},
		{name: "Uppercase and extreme noise", input: "S-N-A-K-E club", expected: "********* club"},
		{name: "Accents", input: "Été badger", expected: "Été ******"},
		{name: "Trailing punctuation", input: "badger!", expected: "******!"},
		{name: "Nothing to censor", input: "Sub-10 Squad", expected: "Sub-10 Squad"},
		{name: "Empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.expected, mod.Censor(tt.input), "test=%s,", tt.name)
		})
	}
}

func TestModerator_CornerCases(t *testing.T) {
	req := require.New(t)

	// Given real noise and not Leet Speak associated
	mod, err := NewModerator([]string{"...", ",,,", "", "badger"}, replacementChar)
	req.NoError(err)

	// Then the name is censored
	req.Equal("The ****** is safe", mod.Censor("The badger is safe"))

	// Then real noise is uncensored
	req.Equal("Hello ...", mod.Censor("Hello ..."))
}

func TestModerator_WithoutWordsLetsEverythingThrough(t *testing.T) {
	req := require.New(t)

	mod, err := NewModerator(nil, replacementChar)
	req.NoError(err)
	req.Equal("badger", mod.Censor("badger"))

	var missing *Moderator
	req.Equal("badger", missing.Censor("badger"))
}

func TestLoadWords(t *testing.T) {
	req := require.New(t)
	fsys := fstest.MapFS{
		"censored/en.txt":    {Data: []byte("badger\r\nsnake\n\n")},
		"censored/fr.txt":    {Data: []byte("blaireau\nbadger\n")},
		"censored/README":    {Data: []byte("not a dictionary")},
		"censored/old/x.txt": {Data: []byte("ignored")},
	}

	words, err := LoadWords(fsys, "censored")

	req.NoError(err)
	req.Equal([]string{"badger", "blaireau", "snake"}, words.Words)
	req.Equal([]string{"en", "fr"}, words.Languages)

	_, err = LoadWords(fstest.MapFS{"censored/en.txt": {Data: []byte("\n")}}, "censored")
	req.ErrorIs(err, errors.ErrEmptyWords)
}
