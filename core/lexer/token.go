package lexer

import "fmt"

// Kind classifies a lexed token.
type Kind int

const (
	// Command is the first non-flag word of a simple command.
	Command Kind = iota
	// Argument is any plain word that isn't a command or flag.
	Argument
	// Flag is a word starting with '-'.
	Flag
	// Pipe is a single '|'.
	Pipe
	// And is '&&'.
	And
	// Or is '||'.
	Or
	// Semicolon is ';'.
	Semicolon
	// Background is a single '&'.
	Background
	// Redirect is one of '>', '>>' or '<'.
	Redirect
	// String is a quoted region including its quotes.
	String
	// Comment runs from '#' to the end of the input.
	Comment
	// Whitespace is a run of spaces or tabs.
	Whitespace
)

func (k Kind) String() string {
	switch k {
	case Command:
		return "Command"
	case Argument:
		return "Argument"
	case Flag:
		return "Flag"
	case Pipe:
		return "Pipe"
	case And:
		return "And"
	case Or:
		return "Or"
	case Semicolon:
		return "Semicolon"
	case Background:
		return "Background"
	case Redirect:
		return "Redirect"
	case String:
		return "String"
	case Comment:
		return "Comment"
	case Whitespace:
		return "Whitespace"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is a single lexed region of the input line. Start and End are byte
// offsets; Text is input[Start:End].
type Token struct {
	Kind  Kind
	Text  string
	Start int
	End   int
}

// IsOperator reports whether the token separates commands.
func (t Token) IsOperator() bool {
	switch t.Kind {
	case Pipe, And, Or, Semicolon, Background:
		return true
	default:
		return false
	}
}
