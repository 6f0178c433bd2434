package model

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	tcases := map[string]struct {
		name string
		want error
	}{
		"simple":          {name: "johndoe", want: nil},
		"mixed case":      {name: "JohnDoe", want: nil},
		"digits":          {name: "john42", want: nil},
		"underscore":      {name: "john_doe", want: nil},
		"hyphen":          {name: "john-doe", want: nil},
		"single char":     {name: "j", want: nil},
		"max length":      {name: strings.Repeat("a", MaxUsernameLength), want: nil},
		"empty":           {name: "", want: ErrUsernameEmpty},
		"too long":        {name: strings.Repeat("a", MaxUsernameLength+1), want: ErrUsernameTooLong},
		"space":           {name: "john doe", want: ErrUsernameInvalidChars},
		"punctuation":     {name: "john!", want: ErrUsernameInvalidChars},
		"non-ascii":       {name: "jöhn", want: ErrUsernameInvalidChars},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			got := ValidateUsername(tc.name)
			if !errors.Is(got, tc.want) {
				t.Fatalf("ValidateUsername(%q): want %v got %v", tc.name, tc.want, got)
			}
		})
	}
}

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	valid := Message{Text: "hi", FromUserID: 1, ToUserID: 2, Time: 1000}

	tcases := map[string]struct {
		mutate func(*Message)
		want   error
	}{
		"valid":        {mutate: func(*Message) {}, want: nil},
		"empty text":   {mutate: func(m *Message) { m.Text = "" }, want: ErrMessageTextEmpty},
		"blank text":   {mutate: func(m *Message) { m.Text = "   " }, want: ErrMessageTextEmpty},
		"too long":     {mutate: func(m *Message) { m.Text = strings.Repeat("x", MessageMaxTextLength+1) }, want: ErrMessageTextTooLong},
		"no sender":    {mutate: func(m *Message) { m.FromUserID = 0 }, want: ErrMessageNoSender},
		"no recipient": {mutate: func(m *Message) { m.ToUserID = 0 }, want: ErrMessageNoRecipient},
		"no time":      {mutate: func(m *Message) { m.Time = 0 }, want: ErrMessageNoTime},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			m := valid
			tc.mutate(&m)
			got := m.Validate()
			if !errors.Is(got, tc.want) {
				t.Fatalf("Validate(%+v): want %v got %v", m, tc.want, got)
			}
		})
	}
}

func TestMessageValidateMaxLengthCountsRunes(t *testing.T) {
	t.Parallel()

	m := Message{Text: strings.Repeat("ü", MessageMaxTextLength), FromUserID: 1, ToUserID: 2, Time: 1}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: multi-byte text at the limit must pass, got %v", err)
	}
}
