package html

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/younsl/n8n-model-tracker/pkg/models"
)

//go:embed templates/report.html
var defaultTemplate string

type HTMLPublisher struct {
	outputPath   string
	templatePath string
	n8nBaseURL   string
}

// Section is one category table in the rendered report.
type Section struct {
	Title string
	Rows  []models.WorkflowInfo
}

// NewHTMLPublisher creates an HTML publisher. An empty templatePath uses the
// embedded report template.
func NewHTMLPublisher(outputPath, templatePath, n8nBaseURL string) *HTMLPublisher {
	return &HTMLPublisher{
		outputPath:   outputPath,
		templatePath: templatePath,
		n8nBaseURL:   n8nBaseURL,
	}
}

func (p *HTMLPublisher) PublishScanResult(_ context.Context, result *models.ScanResult) error {
	if p.outputPath == "" {
		return fmt.Errorf("invalid configuration: missing output path")
	}
	if result == nil {
		return fmt.Errorf("cannot publish nil scan result")
	}

	tmpl, err := p.loadTemplate()
	if err != nil {
		return err
	}

	// 출력 디렉토리 생성
	if err := os.MkdirAll(filepath.Dir(p.outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// 출력 파일 생성
	file, err := os.Create(p.outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	return p.render(file, tmpl, result)
}

func (p *HTMLPublisher) loadTemplate() (*template.Template, error) {
	funcs := template.FuncMap{
		"workflowURL": func(id string) string {
			return models.WorkflowURL(p.n8nBaseURL, id)
		},
	}

	tmpl := template.New("report.html").Funcs(funcs)
	if p.templatePath == "" {
		return tmpl.Parse(defaultTemplate)
	}

	data, err := os.ReadFile(p.templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	tmpl, err = tmpl.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return tmpl, nil
}

func (p *HTMLPublisher) render(w io.Writer, tmpl *template.Template, result *models.ScanResult) error {
	data := map[string]interface{}{
		"Result": result,
		"Sections": []Section{
			{Title: "Workflows Using OpenRouter", Rows: result.Preferred},
			{Title: "Workflows Using Other Chat Models", Rows: result.Other},
			{Title: "All Workflows", Rows: result.All},
		},
		"N8NBaseURL":  p.n8nBaseURL,
		"GeneratedAt": time.Now().Format(time.RFC1123),
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

func (p *HTMLPublisher) GetName() string {
	return "html"
}
