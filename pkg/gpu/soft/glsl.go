package soft

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/taigrr/icoviz/pkg/gpu"
)

// declaration is a global-scope uniform, input or output variable.
type declaration struct {
	qualifier string
	typ       string
	name      string
	line      int
}

// parsedShader is what the scanner extracts from one stage's source.
type parsedShader struct {
	kernel   string
	uniforms []declaration
	inputs   []declaration
	outputs  []declaration
}

var (
	declRe    = regexp.MustCompile(`^(?:layout\s*\([^)]*\)\s*)?(uniform|in|out|attribute|varying)\s+(?:(?:highp|mediump|lowp|flat|smooth)\s+)*(\w+)\s+(\w+)\s*$`)
	mainRe    = regexp.MustCompile(`\bvoid\s+main\s*\(\s*(?:void\s*)?\)`)
	pragmaRe  = regexp.MustCompile(`^#\s*pragma\s+kernel\s+([\w-]+)\s*$`)
	versionRe = regexp.MustCompile(`^#\s*version\s+\d+(\s+\w+)?\s*$`)
)

var glslTypes = map[string]bool{
	"float": true, "int": true, "bool": true,
	"vec2": true, "vec3": true, "vec4": true,
	"mat3": true, "mat4": true, "sampler2D": true,
}

// compileLog collects diagnostics in the "ERROR: 0:<line>: msg" shape GL
// drivers use.
type compileLog []string

func (l *compileLog) errorf(line int, format string, args ...any) {
	*l = append(*l, fmt.Sprintf("ERROR: 0:%d: %s", line, fmt.Sprintf(format, args...)))
}

func (l compileLog) String() string {
	return strings.Join(l, "\n")
}

// parseShader validates src and extracts its interface. It checks the parts
// of the language the software context relies on: the #version directive,
// balanced delimiters, a main function, well-formed global declarations and
// the kernel pragma.
func parseShader(kind gpu.ShaderKind, src string) (parsedShader, compileLog) {
	var (
		ps  parsedShader
		log compileLog
	)

	lines := strings.Split(stripComments(src), "\n")

	sawVersion := false
	var body strings.Builder
	lineOf := make([]int, 0, len(src))
	for i, raw := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "#") {
			switch {
			case versionRe.MatchString(trimmed):
				if sawVersion || body.Len() > 0 {
					log.errorf(lineNo, "'#version' : must occur first in shader")
				}
				sawVersion = true
			case pragmaRe.MatchString(trimmed):
				ps.kernel = pragmaRe.FindStringSubmatch(trimmed)[1]
			}
			continue
		}
		if trimmed != "" && !sawVersion {
			log.errorf(lineNo, "'' : missing #version directive")
			sawVersion = true
		}
		for range len(raw) + 1 {
			lineOf = append(lineOf, lineNo)
		}
		body.WriteString(raw)
		body.WriteByte('\n')
	}
	if !sawVersion {
		log.errorf(1, "'' : missing #version directive")
	}

	text := body.String()
	if !mainRe.MatchString(text) {
		log.errorf(len(lines), "'main' : function not defined")
	}

	depth, parens := 0, 0
	stmtStart := 0
	for i, r := range text {
		switch r {
		case '{':
			if depth == 0 {
				stmtStart = i + 1
			}
			depth++
		case '}':
			depth--
			if depth < 0 {
				log.errorf(lineOf[i], "'}' : syntax error")
				depth = 0
			}
			if depth == 0 {
				stmtStart = i + 1
			}
		case '(':
			parens++
		case ')':
			parens--
			if parens < 0 {
				log.errorf(lineOf[i], "')' : syntax error")
				parens = 0
			}
		case ';':
			if depth == 0 {
				stmt := strings.TrimSpace(text[stmtStart:i])
				if err := ps.addDeclaration(kind, stmt, lineOf[i]); err != "" {
					log.errorf(lineOf[i], "%s", err)
				}
				stmtStart = i + 1
			}
		}
	}
	if depth != 0 {
		log.errorf(len(lines), "'' : unexpected end of file, missing '}'")
	}
	if parens != 0 {
		log.errorf(len(lines), "'' : unexpected end of file, missing ')'")
	}

	if ps.kernel == "" {
		ps.kernel = defaultKernel(kind)
	}
	if !kernelExists(kind, ps.kernel) {
		log.errorf(1, "'%s' : unknown %s kernel", ps.kernel, kind)
	}

	return ps, log
}

// addDeclaration records stmt when it is an interface declaration. It
// returns a diagnostic for malformed ones and ignores other global
// statements (precision, const, struct).
func (ps *parsedShader) addDeclaration(kind gpu.ShaderKind, stmt string, line int) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	m := declRe.FindStringSubmatch(stmt)
	if m == nil {
		for _, q := range []string{"uniform ", "in ", "out ", "attribute ", "varying "} {
			if strings.HasPrefix(stmt, q) {
				return fmt.Sprintf("'%s' : syntax error", strings.TrimSpace(q))
			}
		}
		return ""
	}

	d := declaration{qualifier: m[1], typ: m[2], name: m[3], line: line}
	if !glslTypes[d.typ] {
		return fmt.Sprintf("'%s' : unknown type", d.typ)
	}

	switch d.qualifier {
	case "uniform":
		ps.uniforms = append(ps.uniforms, d)
	case "attribute":
		ps.inputs = append(ps.inputs, d)
	case "varying":
		if kind == gpu.VertexShader {
			ps.outputs = append(ps.outputs, d)
		} else {
			ps.inputs = append(ps.inputs, d)
		}
	case "in":
		ps.inputs = append(ps.inputs, d)
	case "out":
		ps.outputs = append(ps.outputs, d)
	}
	return ""
}

// stripComments blanks comments while keeping newlines so line numbers in
// diagnostics stay aligned with the source.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); i++ {
		switch {
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				b.WriteByte('\n')
			}
		case strings.HasPrefix(src[i:], "/*"):
			i += 2
			for i < len(src) && !strings.HasPrefix(src[i:], "*/") {
				if src[i] == '\n' {
					b.WriteByte('\n')
				}
				i++
			}
			i++
		default:
			b.WriteByte(src[i])
		}
	}
	return b.String()
}

// linkedProgram is the result of a successful link.
type linkedProgram struct {
	vertexKernel   string
	fragmentKernel string
	uniforms       []uniformSlot
	attribs        []declaration
}

// link checks the attached stages against each other and lays out uniform
// and attribute locations.
func link(stages []*shaderObject) (*linkedProgram, compileLog) {
	var (
		log      compileLog
		vert     *shaderObject
		frag     *shaderObject
		attached int
	)
	for _, s := range stages {
		attached++
		if !s.compiled {
			log.errorf(0, "'' : %s shader is not compiled", s.kind)
			continue
		}
		switch s.kind {
		case gpu.VertexShader:
			if vert != nil {
				log.errorf(0, "'' : multiple vertex shaders attached")
			}
			vert = s
		case gpu.FragmentShader:
			if frag != nil {
				log.errorf(0, "'' : multiple fragment shaders attached")
			}
			frag = s
		}
	}
	if attached == 0 || vert == nil || frag == nil {
		log.errorf(0, "'' : linking requires a compiled vertex and fragment shader")
		return nil, log
	}
	if len(log) > 0 {
		return nil, log
	}

	outputs := make(map[string]string, len(vert.parsed.outputs))
	for _, o := range vert.parsed.outputs {
		outputs[o.name] = o.typ
	}
	for _, in := range frag.parsed.inputs {
		typ, ok := outputs[in.name]
		switch {
		case !ok:
			log.errorf(0, "'%s' : fragment input has no matching vertex output", in.name)
		case typ != in.typ:
			log.errorf(0, "'%s' : type mismatch between stages (%s vs %s)", in.name, typ, in.typ)
		}
	}

	lp := &linkedProgram{
		vertexKernel:   vert.parsed.kernel,
		fragmentKernel: frag.parsed.kernel,
		attribs:        vert.parsed.inputs,
	}
	seen := make(map[string]int)
	for _, d := range append(append([]declaration{}, vert.parsed.uniforms...), frag.parsed.uniforms...) {
		if idx, ok := seen[d.name]; ok {
			if lp.uniforms[idx].typ != d.typ {
				log.errorf(0, "'%s' : uniform declared with different types (%s vs %s)", d.name, lp.uniforms[idx].typ, d.typ)
			}
			continue
		}
		seen[d.name] = len(lp.uniforms)
		lp.uniforms = append(lp.uniforms, uniformSlot{name: d.name, typ: d.typ})
	}
	if len(log) > 0 {
		return nil, log
	}
	return lp, nil
}
