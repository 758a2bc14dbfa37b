package eval

import (
	"net/url"

	"github.com/rillshell/rill/internal/ast"
	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/engine"
	"github.com/rillshell/rill/internal/format"
	"github.com/rillshell/rill/internal/pipeline"
	"github.com/rillshell/rill/internal/span"
	"github.com/rillshell/rill/internal/value"
)

// decodeCmd builds a from-* command around one decoder. Input may be a
// string or binary value.
func decodeCmd(name, usage string, decode func(data []byte, sp span.Span) (value.Value, *diag.Error)) engine.Command {
	return &builtin{
		name:  name,
		usage: usage,
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			v := input.IntoValue(call.Sp)
			var data []byte
			switch t := v.(type) {
			case *value.String:
				data = []byte(t.Value)
			case *value.Binary:
				data = t.Value
			default:
				return pipeline.Empty(), diag.NewUnsupportedInput("expected string or binary input", v.Span())
			}
			out, err := decode(data, call.Sp)
			if err != nil {
				return pipeline.Empty(), err
			}
			return pipeline.FromValue(out), nil
		},
	}
}

func cmdFromJSON() engine.Command {
	return decodeCmd("from-json", "Parse JSON text into structured data.", format.FromJSON)
}

func cmdFromTOML() engine.Command {
	return decodeCmd("from-toml", "Parse TOML text into structured data.", format.FromTOML)
}

func cmdFromINI() engine.Command {
	return decodeCmd("from-ini", "Parse INI text into a record of sections.", format.FromINI)
}

func cmdFromYAML() engine.Command {
	return decodeCmd("from-yaml", "Parse YAML text into structured data.", format.FromYAML)
}

func cmdFromURL() engine.Command {
	return decodeCmd("from-url", "Parse a url-encoded body into a record.", format.FromURLEncoded)
}

// urlPartCmd builds a url-* command extracting one component per string.
func urlPartCmd(name, usage string, part func(u *url.URL) string) engine.Command {
	return &builtin{
		name:  name,
		usage: usage,
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			return stringOp(ctx, call, input, 0, func(s string) (string, *diag.Error) {
				u, err := url.Parse(s)
				if err != nil {
					return "", diag.NewCantConvert("url", "string", call.Sp)
				}
				return part(u), nil
			})
		},
	}
}

func cmdURLHost() engine.Command {
	return urlPartCmd("url-host", "Extract the host of each URL.", func(u *url.URL) string {
		return u.Hostname()
	})
}

func cmdURLQuery() engine.Command {
	return urlPartCmd("url-query", "Extract the query string of each URL.", func(u *url.URL) string {
		return u.RawQuery
	})
}
