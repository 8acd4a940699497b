package shell

import (
	"strings"

	"github.com/rushshell/rush/core/expand"
	"github.com/rushshell/rush/core/flow"
	"github.com/rushshell/rush/core/glob"
)

// executeFor binds each expanded word to the loop variable and runs the body
// once per item. The variable keeps its final value after the loop.
func (s *Shell) executeFor(stmt string, ctx *ExecutionContext) int {
	loop, err := flow.ParseFor(stmt)
	if err != nil {
		return s.report(ctx, err)
	}

	ex := s.expanderFor(ctx)
	var items []string
	for _, word := range loop.Words {
		expanded, err := ex.ExpandWord(word)
		if err != nil {
			return s.report(ctx, err)
		}
		items = append(items, expanded...)
	}

	code := 0
	for _, item := range items {
		s.Env.Set(loop.Var, item)
		code = s.executeList(loop.BodyRaw, ctx)
	}
	return code
}

// executeWhile runs while and until loops. The loop exits with the last body
// code, or 0 when the body never ran.
func (s *Shell) executeWhile(stmt string, ctx *ExecutionContext) int {
	var loop *flow.WhileLoop
	var err error
	if flow.LeadingKeyword(stmt) == "until" {
		loop, err = flow.ParseUntil(stmt)
	} else {
		loop, err = flow.ParseWhile(stmt)
	}
	if err != nil {
		return s.report(ctx, err)
	}

	code := 0
	for {
		condCode := s.executeList(loop.Cond, ctx)
		if (condCode == 0) == loop.Until {
			break
		}
		code = s.executeList(loop.BodyRaw, ctx)
	}
	return code
}

// executeCase matches the expanded value against each arm's patterns in
// order. ;& falls through to the next body unconditionally; ;;& resumes
// pattern testing at the next arm.
func (s *Shell) executeCase(stmt string, ctx *ExecutionContext) int {
	cs, err := flow.ParseCase(stmt)
	if err != nil {
		return s.report(ctx, err)
	}

	ex := s.expanderFor(ctx)
	value, err := ex.ExpandString(cs.Value)
	if err != nil {
		return s.report(ctx, err)
	}

	code := 0
	i := matchArm(ex, cs.Arms, 0, value)
	for i >= 0 && i < len(cs.Arms) {
		arm := cs.Arms[i]
		if strings.TrimSpace(arm.BodyRaw) != "" {
			code = s.executeList(arm.BodyRaw, ctx)
		}
		switch {
		case arm.FallThrough:
			i++
		case arm.TestNext:
			i = matchArm(ex, cs.Arms, i+1, value)
		default:
			i = -1
		}
	}
	return code
}

// matchArm returns the index of the first arm at or after from whose
// patterns match value, or -1.
func matchArm(ex *expand.Expander, arms []flow.CasePattern, from int, value string) int {
	for i := from; i < len(arms); i++ {
		for _, pattern := range arms[i].Patterns {
			expanded, err := ex.ExpandString(pattern)
			if err != nil {
				continue
			}
			if glob.Match(expanded, value) {
				return i
			}
		}
	}
	return -1
}
