package render

import (
	"encoding/json"
	"io"

	"github.com/komsit37/ticker/pkg/ticker/columns"
)

type jsonSection struct {
	Title   string           `json:"title"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Totals  map[string]any   `json:"totals"`
}

type jsonDetailSection struct {
	Title   string       `json:"title"`
	Since   string       `json:"since,omitempty"`
	Details []jsonDetail `json:"details"`
}

type jsonDetail struct {
	Symbol  string       `json:"symbol"`
	Latest  json.Number  `json:"latest"`
	Changes []jsonChange `json:"changes"`
}

type jsonChange struct {
	Label string       `json:"label"`
	Pct   *json.Number `json:"pct"`
	Abs   *json.Number `json:"abs"`
}

type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Render(w io.Writer, sections []Section, opts Options) error {
	out := make([]jsonSection, 0, len(sections))
	for _, sec := range sections {
		cols, err := resolve(sec.Columns)
		if err != nil {
			return err
		}
		js := jsonSection{Title: sec.Title, Rows: make([]map[string]any, 0, len(sec.Rows)), Totals: map[string]any{}}
		for _, c := range cols {
			js.Columns = append(js.Columns, c.Key)
		}
		for _, h := range sec.Rows {
			row := make(map[string]any, len(cols))
			for _, c := range cols {
				row[c.Key] = jsonValue(c.Value(h))
			}
			js.Rows = append(js.Rows, row)
		}
		for _, c := range cols {
			if v := c.TotalValue(sec.Totals); !v.Blank {
				js.Totals[c.Key] = jsonValue(v)
			}
		}
		out = append(out, js)
	}
	return encode(w, out, opts)
}

func (r *JSONRenderer) RenderDetail(w io.Writer, sections []DetailSection, opts Options) error {
	out := make([]jsonDetailSection, 0, len(sections))
	for _, sec := range sections {
		js := jsonDetailSection{Title: sec.Title, Details: make([]jsonDetail, 0, len(sec.Details))}
		if !sec.Since.IsZero() {
			js.Since = sec.Since.Format(SinceLayout)
		}
		for _, d := range sec.Details {
			jd := jsonDetail{Symbol: d.Symbol.String(), Latest: json.Number(d.Latest.String())}
			for _, ch := range d.Changes {
				jc := jsonChange{Label: ch.Label}
				if ch.Defined {
					pct, abs := json.Number(ch.Pct.String()), json.Number(ch.Abs.String())
					jc.Pct, jc.Abs = &pct, &abs
				}
				jd.Changes = append(jd.Changes, jc)
			}
			js.Details = append(js.Details, jd)
		}
		out = append(out, js)
	}
	return encode(w, out, opts)
}

func jsonValue(v columns.Value) any {
	switch {
	case v.Blank, !v.Valid:
		return nil
	case v.Kind == columns.Text:
		return v.Text
	}
	return json.Number(v.Num.String())
}

func encode(w io.Writer, v any, opts Options) error {
	enc := json.NewEncoder(w)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
