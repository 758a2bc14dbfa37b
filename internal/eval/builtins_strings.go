package eval

import (
	"crypto/md5"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/rillshell/rill/internal/ast"
	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/engine"
	"github.com/rillshell/rill/internal/pipeline"
	"github.com/rillshell/rill/internal/span"
	"github.com/rillshell/rill/internal/value"
)

func cmdLines() engine.Command {
	return &builtin{
		name:  "lines",
		usage: "Split string input into a stream of lines, dropping empty ones.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			v := input.IntoValue(call.Sp)
			s, ok := v.(*value.String)
			if !ok {
				return pipeline.Empty(), diag.NewUnsupportedInput("expected string input", v.Span())
			}
			var items []value.Value
			for _, line := range strings.Split(s.Value, "\n") {
				line = strings.TrimRight(line, "\r")
				if line == "" {
					continue
				}
				items = append(items, &value.String{Value: line, Sp: s.Sp})
			}
			return pipeline.FromStream(pipeline.FromSlice(items), input.Meta), nil
		},
	}
}

func cmdStrCollect() engine.Command {
	return &builtin{
		name:  "str-collect",
		usage: "Concatenate the input strings, with an optional separator.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			sep := ""
			if len(call.Args) > 0 {
				var err *diag.Error
				sep, err = argString(ctx, call, 0)
				if err != nil {
					return pipeline.Empty(), err
				}
			}
			return pipeline.FromValue(&value.String{Value: input.CollectString(sep), Sp: call.Sp}), nil
		},
	}
}

// stringOp applies a per-string transform either to the whole string input
// or, when cell path arguments are given, to each addressed cell of every
// row.
func stringOp(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData, argOffset int, f func(string) (string, *diag.Error)) (pipeline.PipelineData, *diag.Error) {
	apply := func(v value.Value) (value.Value, *diag.Error) {
		s, ok := v.(*value.String)
		if !ok {
			return nil, diag.NewUnsupportedInput("expected string", v.Span())
		}
		out, err := f(s.Value)
		if err != nil {
			return nil, err
		}
		return &value.String{Value: out, Sp: s.Sp}, nil
	}
	if len(call.Args) == argOffset {
		if input.Stream != nil {
			return input.Map(ctx.Interrupt(), func(v value.Value) value.Value {
				out, err := apply(v)
				if err != nil {
					return value.NewError(err)
				}
				return out
			}), nil
		}
		out, err := apply(input.IntoValue(call.Sp))
		if err != nil {
			return pipeline.Empty(), err
		}
		return pipeline.FromValue(out), nil
	}
	var paths [][]value.PathMember
	for i := argOffset; i < len(call.Args); i++ {
		members, err := argCellPath(ctx, call, i)
		if err != nil {
			return pipeline.Empty(), err
		}
		paths = append(paths, members)
	}
	patch := func(row value.Value) value.Value {
		for _, members := range paths {
			next, err := value.UpdateCellPath(row, members, apply)
			if err != nil {
				return value.NewError(err)
			}
			row = next
		}
		return row
	}
	if input.Stream != nil {
		return input.Map(ctx.Interrupt(), patch), nil
	}
	v := input.IntoValue(call.Sp)
	if list, ok := v.(*value.List); ok {
		items := make([]value.Value, len(list.Items))
		for i, row := range list.Items {
			items[i] = patch(row)
		}
		return pipeline.FromValue(&value.List{Items: items, Sp: list.Sp}), nil
	}
	return pipeline.FromValue(patch(v)), nil
}

func cmdStrScreamingSnakeCase() engine.Command {
	return &builtin{
		name:  "str-screaming-snake-case",
		usage: "Convert strings to SCREAMING_SNAKE_CASE, in place when cell paths are given.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			return stringOp(ctx, call, input, 0, func(s string) (string, *diag.Error) {
				return screamingSnake(s), nil
			})
		},
	}
}

// screamingSnake splits on delimiters and lower-to-upper transitions, then
// upper-joins with underscores: "this-is_the first" and "thisIsTheFirst"
// both become "THIS_IS_THE_FIRST".
func screamingSnake(s string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = nil
		}
	}
	prevLower := false
	for _, r := range s {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
			prevLower = false
		case unicode.IsUpper(r) && prevLower:
			flush()
			cur = append(cur, r)
			prevLower = false
		default:
			cur = append(cur, r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	flush()
	for i, w := range words {
		words[i] = strings.ToUpper(w)
	}
	return strings.Join(words, "_")
}

func cmdStrSubstring() engine.Command {
	return &builtin{
		name:  "str-substring",
		usage: "Take the \"start,end\" byte slice of strings; either bound may be omitted.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			spec, err := argString(ctx, call, 0)
			if err != nil {
				return pipeline.Empty(), err
			}
			startStr, endStr, found := strings.Cut(spec, ",")
			if !found {
				return pipeline.Empty(), diag.NewUnsupportedInput("expected a \"start,end\" bound", call.Sp)
			}
			parse := func(s string, fallback int) (int, bool) {
				s = strings.TrimSpace(s)
				if s == "" {
					return fallback, true
				}
				n, perr := strconv.Atoi(s)
				return n, perr == nil
			}
			return stringOp(ctx, call, input, 1, func(s string) (string, *diag.Error) {
				start, okS := parse(startStr, 0)
				end, okE := parse(endStr, len(s))
				if !okS || !okE {
					return "", diag.NewUnsupportedInput("expected a \"start,end\" bound", call.Sp)
				}
				// Negative bounds count back from the end of the string.
				if start < 0 {
					start += len(s)
				}
				if end < 0 {
					end += len(s)
				}
				start = clamp(start, 0, len(s))
				end = clamp(end, 0, len(s))
				if end < start {
					return "", nil
				}
				return s[start:end], nil
			})
		},
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

func cmdAnsiStrip() engine.Command {
	return &builtin{
		name:  "ansi-strip",
		usage: "Remove ANSI escape sequences from strings.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			return stringOp(ctx, call, input, 0, func(s string) (string, *diag.Error) {
				return ansiEscape.ReplaceAllString(s, ""), nil
			})
		},
	}
}

func cmdHashMd5() engine.Command {
	return &builtin{
		name:  "hash-md5",
		usage: "Hash strings with MD5, in place when cell paths are given.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			return stringOp(ctx, call, input, 0, func(s string) (string, *diag.Error) {
				return fmt.Sprintf("%x", md5.Sum([]byte(s))), nil
			})
		},
	}
}

func cmdParse() engine.Command {
	return &builtin{
		name:  "parse",
		usage: "Parse columns out of string rows with a {column} pattern.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			pattern, err := argString(ctx, call, 0)
			if err != nil {
				return pipeline.Empty(), err
			}
			patSp := call.Args[0].Span()
			raw := false
			if len(call.Args) > 1 {
				v, err := argValue(ctx, call, 1)
				if err != nil {
					return pipeline.Empty(), err
				}
				b, ok := v.(*value.Bool)
				if !ok {
					return pipeline.Empty(), diag.NewTypeMismatch("expected bool regex switch", v.Span())
				}
				raw = b.Value
			}
			expr := pattern
			if !raw {
				expr, err = buildParsePattern(pattern, patSp)
				if err != nil {
					return pipeline.Empty(), err
				}
			}
			re, rerr := regexp.Compile(expr)
			if rerr != nil {
				return pipeline.Empty(), diag.NewUnsupportedInput("invalid pattern", patSp)
			}
			cols := captureColumns(re)

			var rows []value.Value
			iter := input.IntoIter()
			for {
				item, more := iter.Next()
				if !more {
					break
				}
				s, ok := item.(*value.String)
				if !ok {
					return pipeline.Empty(), diag.NewUnsupportedInput("expected string input", item.Span())
				}
				for _, m := range re.FindAllStringSubmatch(s.Value, -1) {
					recCols := make([]string, len(cols))
					vals := make([]value.Value, len(cols))
					for i, name := range cols {
						got := ""
						if i+1 < len(m) {
							got = m[i+1]
						}
						recCols[i] = name
						vals[i] = &value.String{Value: got, Sp: s.Sp}
					}
					rows = append(rows, &value.Record{Cols: recCols, Vals: vals, Sp: call.Sp})
				}
			}
			return pipeline.FromStream(pipeline.FromSlice(rows), input.Meta), nil
		},
	}
}

// buildParsePattern compiles a "{column}" template into an anchored regex:
// literal text is quoted, "{{" stands for a literal brace, and each
// {column} becomes a named non-greedy capture.
func buildParsePattern(pattern string, sp span.Span) (string, *diag.Error) {
	var out strings.Builder
	out.WriteString(`(?s)\A`)
	runes := []rune(pattern)
	i := 0
	for i < len(runes) {
		var before []rune
		open := false
		for i < len(runes) {
			if runes[i] == '{' {
				if i+1 < len(runes) && runes[i+1] == '{' {
					before = append(before, '{')
					i += 2
					continue
				}
				open = true
				i++
				break
			}
			before = append(before, runes[i])
			i++
		}
		if len(before) > 0 {
			out.WriteString(regexp.QuoteMeta(string(before)))
		}
		if !open {
			break
		}
		start := i
		for i < len(runes) && runes[i] != '}' {
			i++
		}
		if i == len(runes) {
			return "", diag.NewUnsupportedInput("found opening '{' without a closing '}'", sp)
		}
		if i > start {
			out.WriteString("(?P<")
			out.WriteString(string(runes[start:i]))
			out.WriteString(">.*?)")
		}
		i++
	}
	out.WriteString(`\z`)
	return out.String(), nil
}

// captureColumns names the capture groups, Capture<N> when unnamed.
func captureColumns(re *regexp.Regexp) []string {
	names := re.SubexpNames()
	cols := make([]string, 0, len(names)-1)
	for i, name := range names[1:] {
		if name == "" {
			name = fmt.Sprintf("Capture%d", i+1)
		}
		cols = append(cols, name)
	}
	return cols
}
