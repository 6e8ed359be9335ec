package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"dokugen/internal/docgen"
	"dokugen/internal/domain"
)

// Errors surfaced to the tool-execution layer. Store failures are
// propagated unmodified; no retry happens here.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidBase64     = errors.New("invalid base64 content")
)

// textExtensions is the allow-list for CreateTextFile.
var textExtensions = map[string]bool{
	"md":   true,
	"txt":  true,
	"html": true,
	"json": true,
	"xml":  true,
	"csv":  true,
}

// operationForExtension points callers of CreateTextFile at the right
// operation for binary formats.
var operationForExtension = map[string]string{
	"docx": "CreateWordFile",
	"doc":  "CreateWordFile",
	"xlsx": "CreateExcelFile",
	"xls":  "CreateExcelFile",
	"pptx": "CreatePowerPointFile",
	"ppt":  "CreatePowerPointFile",
	"pdf":  "CreatePdfFile",
}

// GeneratedFileStore persists generated-file records. It carries no
// business logic; errors pass through the service unchanged.
type GeneratedFileStore interface {
	Create(ctx context.Context, file *domain.GeneratedFile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GeneratedFile, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// FileGenerationService validates and coerces file names, dispatches to a
// builder, persists the result and returns a retrieval URL. Exactly one
// record is persisted per successful call; records are never mutated.
type FileGenerationService struct {
	store  GeneratedFileStore
	engine *docgen.TemplateEngine
	now    func() time.Time
}

// NewFileGenerationService wires the store and, optionally, the corporate
// template engine. A nil engine means presentations use the generic builder.
func NewFileGenerationService(store GeneratedFileStore, engine *docgen.TemplateEngine) *FileGenerationService {
	return &FileGenerationService{
		store:  store,
		engine: engine,
		now:    time.Now,
	}
}

// CreateTextFile stores content verbatim under fileName. Only plain-text
// extensions are accepted; anything else is rejected with an error naming
// the extension and the operation to use instead.
func (s *FileGenerationService) CreateTextFile(ctx context.Context, baseURL, chatID, userID, fileName, content string) (string, error) {
	ext := extensionOf(fileName)
	if ext == "" {
		return "", fmt.Errorf("%w: file name %q has no extension (supported: md, txt, html, json, xml, csv)", ErrUnsupportedFormat, fileName)
	}
	if !textExtensions[ext] {
		if op, ok := operationForExtension[ext]; ok {
			return "", fmt.Errorf("%w: .%s is not a text format, use %s instead", ErrUnsupportedFormat, ext, op)
		}
		return "", fmt.Errorf("%w: .%s is not a supported text format (supported: md, txt, html, json, xml, csv)", ErrUnsupportedFormat, ext)
	}
	return s.persist(ctx, baseURL, chatID, userID, fileName, []byte(content))
}

// CreateWordFile builds a Word document from plain text. The file name is
// coerced to .docx before building.
func (s *FileGenerationService) CreateWordFile(ctx context.Context, baseURL, chatID, userID, fileName, content string) (string, error) {
	fileName = coerceExtension(fileName, "docx")
	data, err := docgen.BuildDocx(content)
	if err != nil {
		return "", fmt.Errorf("failed to build Word document: %w", err)
	}
	return s.CreateBinaryFile(ctx, baseURL, chatID, userID, fileName, base64.StdEncoding.EncodeToString(data))
}

// CreateExcelFile builds a workbook from CSV or JSON tabular data. The file
// name is coerced to .xlsx before building.
func (s *FileGenerationService) CreateExcelFile(ctx context.Context, baseURL, chatID, userID, fileName, tableData string) (string, error) {
	fileName = coerceExtension(fileName, "xlsx")
	rows := docgen.ParseTabularData(tableData)
	data, err := docgen.BuildXlsx(rows)
	if err != nil {
		return "", fmt.Errorf("failed to build Excel workbook: %w", err)
	}
	return s.CreateBinaryFile(ctx, baseURL, chatID, userID, fileName, base64.StdEncoding.EncodeToString(data))
}

// CreatePowerPointFile builds a deck from slide-list JSON. The corporate
// template engine is used when configured, the generic builder otherwise.
// Slide parsing never fails; malformed JSON degrades to a single slide.
func (s *FileGenerationService) CreatePowerPointFile(ctx context.Context, baseURL, chatID, userID, fileName, slidesJSON string) (string, error) {
	fileName = coerceExtension(fileName, "pptx")
	parsed := docgen.ParseSlides(slidesJSON)

	var data []byte
	var err error
	if s.engine != nil {
		data, err = s.engine.Build(parsed.Slides)
	} else {
		data, err = docgen.BuildPptx(parsed.Slides)
	}
	if err != nil {
		return "", fmt.Errorf("failed to build PowerPoint presentation: %w", err)
	}
	return s.CreateBinaryFile(ctx, baseURL, chatID, userID, fileName, base64.StdEncoding.EncodeToString(data))
}

// CreatePdfFile builds a paginated PDF from content text and an optional
// title. The file name is coerced to .pdf before building.
func (s *FileGenerationService) CreatePdfFile(ctx context.Context, baseURL, chatID, userID, fileName, content, title string) (string, error) {
	fileName = coerceExtension(fileName, "pdf")
	data, err := docgen.BuildPdf(content, title)
	if err != nil {
		return "", fmt.Errorf("failed to build PDF: %w", err)
	}
	return s.CreateBinaryFile(ctx, baseURL, chatID, userID, fileName, base64.StdEncoding.EncodeToString(data))
}

// CreateBinaryFile decodes base64 content and persists it. Invalid base64
// is a hard error; the size is computed from the decoded bytes.
func (s *FileGenerationService) CreateBinaryFile(ctx context.Context, baseURL, chatID, userID, fileName, base64Content string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(base64Content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	return s.persist(ctx, baseURL, chatID, userID, fileName, data)
}

// GetFile fetches a stored record for the download endpoint.
func (s *FileGenerationService) GetFile(ctx context.Context, id uuid.UUID) (*domain.GeneratedFile, error) {
	return s.store.GetByID(ctx, id)
}

// CleanupExpired removes every record past its retention window. The
// scheduler in main calls this hourly.
func (s *FileGenerationService) CleanupExpired(ctx context.Context) error {
	deleted, err := s.store.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to clean up expired files: %w", err)
	}
	if deleted > 0 {
		log.Printf("Removed %d expired generated files", deleted)
	}
	return nil
}

func (s *FileGenerationService) persist(ctx context.Context, baseURL, chatID, userID, fileName string, content []byte) (string, error) {
	now := s.now()
	file := &domain.GeneratedFile{
		ID:          uuid.New(),
		ChatID:      chatID,
		UserID:      userID,
		FileName:    fileName,
		ContentType: domain.ContentTypeForExtension(extensionOf(fileName)),
		Content:     content,
		SizeBytes:   int64(len(content)),
		CreatedOn:   now,
		ExpiresOn:   now.Add(domain.RetentionPeriod),
	}

	if err := s.store.Create(ctx, file); err != nil {
		return "", err
	}

	return fileURL(baseURL, file.ID), nil
}

// fileURL joins the request's scheme/host/path-base with the download
// route, falling back to a relative path when no request context exists.
func fileURL(baseURL string, id uuid.UUID) string {
	path := "/files/" + id.String()
	if baseURL == "" {
		return path
	}
	return strings.TrimRight(baseURL, "/") + path
}

func extensionOf(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
}

// coerceExtension forces fileName to carry the wanted extension, replacing
// any other extension or appending when none is present.
func coerceExtension(fileName, ext string) string {
	if existing := filepath.Ext(fileName); existing != "" {
		fileName = strings.TrimSuffix(fileName, existing)
	}
	if fileName == "" {
		fileName = "fil"
	}
	return fileName + "." + ext
}
