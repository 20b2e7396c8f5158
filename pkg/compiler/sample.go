package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"rfcode/pkg/forest"
)

// rawSample is the three lines after the sample marker, not yet checked
// against the rules.
type rawSample struct {
	labels, values, objective Token
}

// parseSample consumes the marker and the three lines that follow it. Any
// problem is recorded rather than returned.
func (p *Parser) parseSample() {
	marker := p.advance()
	var lines [3]Token
	for i := range lines {
		tok := p.peek()
		if tok.Type == EOF {
			p.recordSampleErr(&SampleFormatError{Line: marker.Line,
				Msg: fmt.Sprintf("expected 3 lines after the marker, found %d", i)})
			return
		}
		p.advance()
		if tok.Type == BLANK {
			p.recordSampleErr(&SampleFormatError{Line: tok.Line, Msg: "blank line inside the sample block"})
			return
		}
		lines[i] = tok
	}
	if p.sample != nil {
		p.recordSampleErr(&SampleFormatError{Line: marker.Line, Msg: "more than one sample block"})
		return
	}
	p.sample = &rawSample{labels: lines[0], values: lines[1], objective: lines[2]}
}

func (p *Parser) recordSampleErr(err *SampleFormatError) {
	if p.sampleErr == nil {
		p.sampleErr = err
	}
}

// splitList splits a comma separated sample line; Weka quotes are removed.
func splitList(s string) []string {
	parts := strings.Split(strings.TrimSpace(s), ",")
	for i := range parts {
		parts[i] = forest.Unquote(strings.TrimSpace(parts[i]))
	}
	return parts
}

// resolveSample validates the raw block against the attributes the rules use.
func (p *Parser) resolveSample(raw *rawSample) (*forest.Sample, error) {
	labels := splitList(raw.labels.Lexeme)
	values := splitList(raw.values.Lexeme)
	if len(labels) != len(values) {
		return nil, &SampleFormatError{Line: raw.values.Line,
			Msg: fmt.Sprintf("%d values for %d labels", len(values), len(labels))}
	}

	idxText := strings.TrimSpace(raw.objective.Lexeme)
	idx, err := strconv.Atoi(idxText)
	if err != nil {
		return nil, &SampleFormatError{Line: raw.objective.Line,
			Msg: fmt.Sprintf("objective index %q is not an integer", idxText)}
	}
	if idx < 0 || idx >= len(labels) {
		return nil, &SampleFormatError{Line: raw.objective.Line,
			Msg: fmt.Sprintf("objective index %d is out of range for %d labels", idx, len(labels))}
	}

	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if l == "" {
			return nil, &SampleFormatError{Line: raw.labels.Line, Msg: "empty attribute label"}
		}
		if seen[l] {
			return nil, &SampleFormatError{Line: raw.labels.Line, Msg: fmt.Sprintf("duplicate label %q", l)}
		}
		seen[l] = true
	}
	for _, name := range p.names {
		if !seen[name] {
			return nil, &SampleFormatError{Line: raw.labels.Line,
				Msg: fmt.Sprintf("attribute %q used by the model is missing from the labels", name)}
		}
	}
	if _, used := p.index[labels[idx]]; used {
		return nil, &SampleFormatError{Line: raw.objective.Line,
			Msg: fmt.Sprintf("objective attribute %q is tested by the model", labels[idx])}
	}
	for i, l := range labels {
		j, ok := p.index[l]
		if !ok || !p.numeric[j] {
			continue
		}
		if v := values[i]; v != forest.Missing && !forest.IsNumeric(v) {
			return nil, &SampleFormatError{Line: raw.values.Line,
				Msg: fmt.Sprintf("value %q of numeric attribute %q is not a number", v, l)}
		}
	}

	return &forest.Sample{Labels: labels, Values: values, ObjectiveIndex: idx}, nil
}
