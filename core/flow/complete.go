package flow

// Completion predicates for multi-line input: the front end keeps reading
// lines until the construct's closer appears. These are conservative
// balance checks, not full parsers.

// LeadingKeyword returns the control-flow keyword a statement starts with,
// or "" for plain commands.
func LeadingKeyword(input string) string {
	kts := scanKeywords(input)
	if len(kts) == 0 || !kts[0].atCmd {
		return ""
	}
	switch kts[0].tok.Text {
	case "for", "while", "until", "case":
		return kts[0].tok.Text
	}
	return ""
}

// IsForComplete reports whether a for statement has its do...done closer.
func IsForComplete(input string) bool {
	return loopComplete(input)
}

// IsWhileComplete reports whether a while statement has its do...done
// closer.
func IsWhileComplete(input string) bool {
	return loopComplete(input)
}

// IsUntilComplete reports whether an until statement has its do...done
// closer.
func IsUntilComplete(input string) bool {
	return loopComplete(input)
}

func loopComplete(input string) bool {
	kts := scanKeywords(input)
	if len(kts) == 0 {
		return true
	}
	doIdx := findKeyword(kts, 1, "do")
	if doIdx < 0 {
		return false
	}
	return findKeyword(kts, doIdx+1, "done") >= 0
}

// IsCaseComplete reports whether a case statement has its esac closer.
func IsCaseComplete(input string) bool {
	kts := scanKeywords(input)
	if len(kts) == 0 {
		return true
	}
	return findKeyword(kts, 1, "esac") >= 0
}

// IsComplete reports whether the statement needs more input lines. Plain
// commands are always complete.
func IsComplete(input string) bool {
	switch LeadingKeyword(input) {
	case "for":
		return IsForComplete(input)
	case "while":
		return IsWhileComplete(input)
	case "until":
		return IsUntilComplete(input)
	case "case":
		return IsCaseComplete(input)
	}
	return true
}
