package verify

import (
	"math"
	"strconv"

	"rfcode/pkg/forest"
)

// OtherValue is the nominal value that matches no category of the model.
const OtherValue = "__other__"

// candidates collects, per schema index, the values worth probing: every
// numeric threshold with a value just below and just above it, and every
// nominal category plus one unseen value.
func candidates(f *forest.Forest) [][]string {
	out := make([][]string, len(f.Schema))
	seen := make([]map[string]bool, len(f.Schema))
	add := func(i int, v string) {
		if seen[i] == nil {
			seen[i] = make(map[string]bool)
		}
		if !seen[i][v] {
			seen[i][v] = true
			out[i] = append(out[i], v)
		}
	}

	for _, nd := range f.Nodes {
		if nd.Kind != forest.Internal {
			continue
		}
		numeric := f.Schema[nd.Attr].Kind == forest.Numeric
		values := nd.Categories
		if nd.Op != forest.OpIn {
			values = []string{nd.Threshold}
		}
		for _, v := range values {
			if !numeric {
				add(nd.Attr, v)
				continue
			}
			x, ok := forest.ParseNumber(v)
			if !ok {
				continue
			}
			d := math.Max(1e-3, math.Abs(x)*1e-3)
			add(nd.Attr, v)
			add(nd.Attr, formatNumber(x-d))
			add(nd.Attr, formatNumber(x+d))
		}
	}

	for _, i := range f.Features() {
		if f.Schema[i].Kind == forest.Nominal {
			add(i, OtherValue)
		} else if len(out[i]) == 0 {
			add(i, "0")
		}
	}
	return out
}

func formatNumber(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// Records builds deterministic records that reach every branch of the model
// at least once per attribute value: a base record, one record per single
// attribute variation, then up to extra records mixing candidates. Records
// never contain missing values.
func Records(f *forest.Forest, extra int) []forest.Record {
	cands := candidates(f)
	feats := f.Features()

	base := make(forest.Record, len(f.Schema))
	for i := range base {
		base[i] = forest.Missing
	}
	for _, i := range feats {
		base[i] = cands[i][0]
	}

	records := []forest.Record{base}
	for _, i := range feats {
		for _, v := range cands[i][1:] {
			rec := append(forest.Record(nil), base...)
			rec[i] = v
			records = append(records, rec)
		}
	}

	for k := 1; k <= extra; k++ {
		rec := append(forest.Record(nil), base...)
		for n, i := range feats {
			c := cands[i]
			rec[i] = c[(k*(n+2)+n)%len(c)]
		}
		records = append(records, rec)
	}
	return records
}
