package renderdocument

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "enrichment-workers/internal/common/errors"
	"enrichment-workers/internal/common/config"
	"enrichment-workers/internal/common/logger"
	"enrichment-workers/internal/injector"
	"enrichment-workers/internal/templatestore"
)

// ==========================
// Test Helper Functions
// ==========================

const letterTemplate = `<p>Madame, Monsieur {{recipient}},</p>
<!-- IF: hasProjects --><ul>
<!-- REPEAT: projects --><li>{{name}} ({{year}})</li>
<!-- END REPEAT: projects --></ul><!-- ENDIF: hasProjects -->
<footer>{{CURRENT_DATE}}</footer>`

func writeTemplates(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"registry.json": `{"version":"1","templates":[
			{"id":"letter","kind":"letter","path":"letters/default.html"},
			{"id":"broken","kind":"letter","path":"letters/broken.html"}
		]}`,
		"letters/default.html": letterTemplate,
		"letters/broken.html":  "<!-- REPEAT: items --><li>{{VALUE}}</li>",
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
	return dir
}

func createTestHandler(t *testing.T, templates templatestore.Loader) *Handler {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return NewHandler(
		LoadConfig(config.WorkerConfig{Timeout: 5000}),
		templates,
		injector.New(injector.WithClock(clock)),
		logger.NewTestLogger(t),
	)
}

func createFileHandler(t *testing.T) *Handler {
	t.Helper()
	dir := writeTemplates(t)
	loader, err := templatestore.New(config.TemplateConfig{
		Source:       config.TemplateSourceFile,
		RegistryPath: filepath.Join(dir, "registry.json"),
		Directory:    dir,
	}, nil)
	require.NoError(t, err)
	return createTestHandler(t, loader)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name: "repeat and computed flag",
			input: &Input{
				TemplateID: "letter",
				Data: map[string]interface{}{
					"recipient": "Dupont <admin>",
					"projects": []interface{}{
						map[string]interface{}{"name": "Refonte", "year": 2024},
					},
				},
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Contains(t, output.Document, "Monsieur Dupont &lt;admin&gt;,")
				assert.Contains(t, output.Document, "<li>Refonte (2024)</li>")
				assert.Contains(t, output.Document, "<footer>2026-03-14</footer>")
				assert.NotContains(t, output.Document, "<!--")
				assert.Equal(t, len(output.Document), output.DocumentLength)
			},
		},
		{
			name: "empty list drops the block",
			input: &Input{
				TemplateID: "letter",
				Data:       map[string]interface{}{"recipient": "Dupont", "projects": []interface{}{}},
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.NotContains(t, output.Document, "<ul>")
			},
		},
		{
			name: "explicit flag wins",
			input: &Input{
				TemplateID: "letter",
				Data: map[string]interface{}{
					"projects": []interface{}{map[string]interface{}{"name": "Audit", "year": 2025}},
				},
				Flags: map[string]bool{"hasProjects": false},
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.NotContains(t, output.Document, "Audit")
				assert.Contains(t, output.Document, "Monsieur ,")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := createFileHandler(t).Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.input.TemplateID, output.TemplateID)
			tt.validateOutput(t, output)
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     *Input
		wantErr   error
		wantCode  apperrors.ErrorCode
		retryable bool
	}{
		{
			name:     "missing template id",
			input:    &Input{Data: map[string]interface{}{}},
			wantErr:  ErrInvalidInput,
			wantCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name:     "missing data",
			input:    &Input{TemplateID: "letter"},
			wantErr:  ErrInvalidInput,
			wantCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name:     "unknown template",
			input:    &Input{TemplateID: "nope", Data: map[string]interface{}{}},
			wantErr:  ErrTemplateNotFound,
			wantCode: apperrors.ErrCodeTemplateNotFound,
		},
		{
			name:     "unbalanced markers",
			input:    &Input{TemplateID: "broken", Data: map[string]interface{}{"items": []interface{}{"a"}}},
			wantErr:  ErrTemplateMalformed,
			wantCode: apperrors.ErrCodeTemplateMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := createFileHandler(t).Execute(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)

			stdErr := toStandardError(err)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_PostgresTemplates(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	query := regexp.QuoteMeta("SELECT body FROM document_templates WHERE id = $1 AND active")
	sqlMock.ExpectQuery(query).WithArgs("letter").
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow("<p>{{recipient}}</p>"))
	sqlMock.ExpectQuery(query).WithArgs("letter").
		WillReturnError(errors.New("connection reset by peer"))

	handler := createTestHandler(t, templatestore.NewPostgresLoader(db))
	input := &Input{TemplateID: "letter", Data: map[string]interface{}{"recipient": "Dupont"}}

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "<p>Dupont</p>", output.Document)

	_, err = handler.Execute(context.Background(), input)
	require.ErrorIs(t, err, ErrTemplateLoadFailed)
	stdErr := toStandardError(err)
	assert.Equal(t, apperrors.ErrCodeTemplateLoadFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "templateId: letter")

	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestInputSchema(t *testing.T) {
	tests := []struct {
		vars  string
		valid bool
	}{
		{`{"templateId": "letter", "data": {}}`, true},
		{`{"templateId": "letter", "data": {}, "flags": {"hasX": true}}`, true},
		{`{"templateId": "letter", "data": {}, "flags": {"hasX": "yes"}}`, false},
		{`{"templateId": "", "data": {}}`, false},
		{`{"data": {}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.vars, func(t *testing.T) {
			assert.Equal(t, tt.valid, schema.ValidateJSON([]byte(tt.vars)).Valid)
		})
	}
}
