package render

import (
	"fmt"
	"io"
	"strings"
)

// SymsRenderer prints every symbol on a single comma-separated line.
type SymsRenderer struct{}

func NewSymsRenderer() *SymsRenderer { return &SymsRenderer{} }

func (SymsRenderer) Render(w io.Writer, sections []Section, _ Options) error {
	var symbols []string
	for _, sec := range sections {
		for _, h := range sec.Rows {
			if sym := strings.TrimSpace(h.Symbol.String()); sym != "" {
				symbols = append(symbols, sym)
			}
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(symbols, ","))
	return err
}

func (SymsRenderer) RenderDetail(w io.Writer, sections []DetailSection, _ Options) error {
	var symbols []string
	for _, sec := range sections {
		for _, d := range sec.Details {
			symbols = append(symbols, d.Symbol.String())
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(symbols, ","))
	return err
}
