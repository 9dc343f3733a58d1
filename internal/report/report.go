// report рендерит сводную выдачу в JSON, HTML и текстовую таблицу
// и атомарно записывает файлы отчёта на диск.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pribylovaa/hn-digest/internal/config"
	"github.com/pribylovaa/hn-digest/internal/models"
)

// Имена файлов отчёта по форматам.
var fileNames = map[string]string{
	config.FormatJSON:  "HackerReport.json",
	config.FormatHTML:  "HackerReport.html",
	config.FormatTable: "HackerReport.txt",
}

// JSON пишет записи отчёта массивом с отступами.
func JSON(w io.Writer, r *models.Report) error {
	const op = "report.JSON"

	stories := r.Stories
	if stories == nil {
		stories = []models.Story{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(stories); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

var htmlTmpl = template.Must(template.New("report").Parse(`<html><head><meta charset="utf-8"><title>Hacker News Report</title></head><body>
<h1>Hacker News Report</h1>
<p>Generated {{.Generated.Format "2006-01-02 15:04 MST"}}{{range .Days}} · {{.Day}}: {{.Outcome}} ({{.Records}}){{end}}</p>
<ul>
{{- range .Stories}}
<li><a href="{{.URL}}">{{.Title}}</a> - {{.Score}} points, {{.Comments}} comments</li>
{{- end}}
</ul></body></html>
`))

// HTML пишет страницу со списком записей. Значения экранируются html/template.
func HTML(w io.Writer, r *models.Report) error {
	const op = "report.HTML"

	if err := htmlTmpl.Execute(w, r); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Table пишет записи отчёта текстовой таблицей для терминала.
func Table(w io.Writer, r *models.Report) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Score", "Comments", "Title", "Site", "Day"})

	for i, s := range r.Stories {
		t.AppendRow(table.Row{i + 1, s.Score.String(), s.Comments.String(), s.Title, s.Site, s.Day.String()})
	}

	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d stories, %d days", len(r.Stories), len(r.Days))})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, WidthMax: 80},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()

	return nil
}

// Render выбирает рендерер по имени формата.
func Render(w io.Writer, format string, r *models.Report) error {
	switch format {
	case config.FormatJSON:
		return JSON(w, r)
	case config.FormatHTML:
		return HTML(w, r)
	case config.FormatTable:
		return Table(w, r)
	default:
		return fmt.Errorf("report.Render: unknown format %q", format)
	}
}

// WriteFiles пишет отчёт в dir во всех форматах formats и возвращает пути файлов.
//
// Каждый файл сначала пишется во временный в том же каталоге и затем
// переименовывается, поэтому частично записанный отчёт не виден читателям.
func WriteFiles(dir string, formats []string, r *models.Report) ([]string, error) {
	const op = "report.WriteFiles"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: mkdir: %w", op, err)
	}

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		name, ok := fileNames[f]
		if !ok {
			return paths, fmt.Errorf("%s: unknown format %q", op, f)
		}

		path := filepath.Join(dir, name)
		if err := writeAtomic(path, func(w io.Writer) error { return Render(w, f, r) }); err != nil {
			return paths, fmt.Errorf("%s: %w", op, err)
		}

		paths = append(paths, path)
	}

	return paths, nil
}

func writeAtomic(path string, render func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = render(tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
