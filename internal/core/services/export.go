package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
)

// ExportFormat selects which artifact(s) ExportPack writes to disk.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportPDF  ExportFormat = "pdf"
	ExportBoth ExportFormat = "both"
)

// ExportResult is the {hash, generated_at, urls} contract POST /q/export
// returns.
type ExportResult struct {
	Hash        string    `json:"hash"`
	GeneratedAt time.Time `json:"generatedAt"`
	CSVPath     string    `json:"csvPath,omitempty"`
	PDFPath     string    `json:"pdfPath,omitempty"`
}

// Exporter writes an assembled pack to a stable-JSON-hashed CSV and/or
// templated-HTML "PDF" artifact under dir, named per the
// {pack}_{generated_at}_{hash8} convention.
type Exporter struct {
	packs *PackAssembler
	dir   string
}

func NewExporter(packs *PackAssembler, dir string) *Exporter {
	return &Exporter{packs: packs, dir: dir}
}

// ExportPack assembles pack, canonicalizes it as stable JSON, hashes it
// against generatedAt, and writes the requested artifact(s). Identical store
// state and identical generatedAt always produce an identical hash.
func (e *Exporter) ExportPack(ctx context.Context, pack string, asOf, periodStart, periodEnd domain.Day, format ExportFormat, redactMemos bool, generatedAt time.Time) (*ExportResult, error) {
	assembled, err := e.packs.Assemble(ctx, pack, asOf, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if redactMemos {
		redactPackMemos(assembled)
	}

	stable, err := stableJSON(assembled)
	if err != nil {
		return nil, err
	}
	hash := Hash(stable, generatedAt)
	hash8 := hash[:8]

	result := &ExportResult{Hash: hash, GeneratedAt: generatedAt}
	base := fmt.Sprintf("%s_%s_%s", pack, generatedAt.UTC().Format("20060102T150405Z"), hash8)

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, apperrors.Internal("create export dir", err)
	}

	if format == ExportCSV || format == ExportBoth {
		path := filepath.Join(e.dir, base+".csv")
		if err := writeCSV(path, assembled, hash, generatedAt); err != nil {
			return nil, err
		}
		result.CSVPath = path
	}
	if format == ExportPDF || format == ExportBoth {
		path := filepath.Join(e.dir, base+".pdf")
		if err := writePDF(path, assembled, hash, generatedAt); err != nil {
			return nil, err
		}
		result.PDFPath = path
	}
	return result, nil
}

// Hash implements sha256(stable_json || "|" || generated_at_iso).
func Hash(stableJSON []byte, generatedAt time.Time) string {
	h := sha256.New()
	h.Write(stableJSON)
	h.Write([]byte("|"))
	h.Write([]byte(generatedAt.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(h.Sum(nil))
}

// stableJSON round-trips v through the generic decoder so object keys come
// out alphabetically sorted (encoding/json always sorts map[string]any keys
// on marshal) with no insignificant whitespace.
func stableJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.Internal("marshal pack", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, apperrors.Internal("canonicalize pack", err)
	}
	stable, err := json.Marshal(generic)
	if err != nil {
		return nil, apperrors.Internal("marshal canonical pack", err)
	}
	return stable, nil
}

func redactPackMemos(p *Pack) {
	for _, section := range p.Sections {
		for _, item := range section.Items {
			if rows, ok := item.(SupportingTransactionsResult); ok {
				for i := range rows.Rows {
					rows.Rows[i].Memo = ""
				}
			}
		}
	}
}

func writeCSV(path string, p *Pack, hash string, generatedAt time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Internal("create csv export", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write([]string{"pack", p.Pack})
	_ = w.Write([]string{"period", p.Period})
	_ = w.Write([]string{"generated_at", generatedAt.UTC().Format(time.RFC3339)})
	_ = w.Write([]string{"hash", hash})
	_ = w.Write(nil)

	for _, section := range p.Sections {
		_ = w.Write([]string{"# " + section.Title})
		for _, item := range section.Items {
			_ = w.Write(flattenItem(item))
		}
		_ = w.Write(nil)
	}
	w.Flush()
	return w.Error()
}

// flattenItem renders one pack item as a single CSV row: it round-trips
// through JSON so every item shape (QueryResult, IncomeSummaryResult, a raw
// map) reduces to the same flat key=value form.
func flattenItem(item any) []string {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return []string{string(raw)}
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	row := make([]string, 0, len(keys))
	for _, k := range keys {
		row = append(row, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return row
}

var pdfTemplate = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Pack.Pack}}</title></head>
<body>
<h1>{{.Pack.Pack}}</h1>
<p>Period: {{.Pack.Period}}</p>
{{range .Pack.Sections}}
<h2>{{.Title}}</h2>
<ul>
{{range .Items}}<li>{{printf "%v" .}}</li>
{{end}}
</ul>
{{end}}
<footer>
<p>Generated at {{.GeneratedAt}}</p>
<p>Hash: {{.Hash}}</p>
</footer>
</body>
</html>
`))

func writePDF(path string, p *Pack, hash string, generatedAt time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Internal("create pdf export", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := pdfTemplate.Execute(&buf, map[string]any{
		"Pack":        p,
		"Hash":        hash,
		"GeneratedAt": generatedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return apperrors.Internal("render pdf template", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return apperrors.Internal("write pdf export", err)
	}
	return nil
}
