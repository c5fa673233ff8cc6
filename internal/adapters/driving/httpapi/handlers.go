package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
)

const maxMultipartMemory = 8 << 20

type driveImportBody struct {
	DriveFileID string `json:"driveFileId"`
	AccessToken string `json:"accessToken"`
}

type supportUploadBody struct {
	FileName          string `json:"fileName"`
	MimeType          string `json:"mimeType"`
	Content           string `json:"content"`
	GoogleDriveFileID string `json:"googleDriveFileId"`
	AccessToken       string `json:"accessToken"`
}

type searchBody struct {
	Query               string `json:"query"`
	DocumentID          string `json:"documentId"`
	RequestedMatchCount int    `json:"requestedMatchCount"`
}

// analyzeProductsBody asks for comparison questions, or for a
// recommendation once answers is present.
type analyzeProductsBody struct {
	Products []domain.SearchResult `json:"products"`
	Answers  map[string]string     `json:"answers"`
}

type searchInDocumentBody struct {
	Query          string  `json:"query"`
	UploadedFileID string  `json:"uploadedFileId"`
	Count          int     `json:"count"`
	Threshold      float64 `json:"threshold"`
}

type deleteBody struct {
	DocumentID string `json:"documentId"`
}

type chatBody struct {
	Message             string           `json:"message"`
	ConversationHistory []historyTurnDTO `json:"conversationHistory"`
}

func (s *Server) uploadSales(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+maxMultipartMemory)

	if isJSON(r) {
		var body driveImportBody
		if err := decodeJSON(r, &body); err != nil {
			respondServiceError(w, err)
			return
		}
		doc, err := s.ports.Upload.ImportFromDrive(r.Context(), driving.DriveImportRequest{
			Owner:       owner,
			AccessToken: body.AccessToken,
			FileID:      body.DriveFileID,
			Context:     domain.ContextSales,
		})
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondUploaded(w, []domain.UploadedDocument{*doc})
		return
	}

	files, err := s.multipartFiles(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var docs []domain.UploadedDocument
	for _, fh := range files {
		doc, err := s.uploadPart(r, owner, fh, domain.ContextSales)
		if err != nil {
			respondServiceError(w, fmt.Errorf("%s: %w", fh.Filename, err))
			return
		}
		docs = append(docs, *doc)
	}
	respondUploaded(w, docs)
}

func (s *Server) uploadSupport(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.cfg.MaxUploadBytes+maxMultipartMemory)

	if !isJSON(r) {
		files, err := s.multipartFiles(r)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		doc, err := s.uploadPart(r, owner, files[0], domain.ContextSupport)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toDocumentDTO(doc))
		return
	}

	var body supportUploadBody
	if err := decodeJSON(r, &body); err != nil {
		respondServiceError(w, err)
		return
	}

	var (
		doc *domain.UploadedDocument
		err error
	)
	if body.GoogleDriveFileID != "" {
		doc, err = s.ports.Upload.ImportFromDrive(r.Context(), driving.DriveImportRequest{
			Owner:       owner,
			AccessToken: body.AccessToken,
			FileID:      body.GoogleDriveFileID,
			Context:     domain.ContextSupport,
		})
	} else {
		var content []byte
		content, err = decodeContent(body.Content)
		if err == nil {
			doc, err = s.ports.Upload.Upload(r.Context(), driving.UploadRequest{
				Owner:     owner,
				FileName:  body.FileName,
				MediaType: body.MimeType,
				Content:   content,
				Context:   domain.ContextSupport,
				Source:    domain.SourceUpload,
			})
		}
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toDocumentDTO(doc))
}

func (s *Server) multipartFiles(r *http.Request) ([]*multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, errors.Join(domain.ErrInvalidInput, err)
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		return nil, fmt.Errorf("no file uploaded: %w", domain.ErrInvalidInput)
	}
	return files, nil
}

func (s *Server) uploadPart(r *http.Request, owner string, fh *multipart.FileHeader, ctx domain.DocumentContext) (*domain.UploadedDocument, error) {
	if fh.Size > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("file exceeds %d bytes: %w", s.cfg.MaxUploadBytes, domain.ErrInvalidInput)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return s.ports.Upload.Upload(r.Context(), driving.UploadRequest{
		Owner:     owner,
		FileName:  fh.Filename,
		MediaType: fh.Header.Get("Content-Type"),
		Content:   content,
		Context:   ctx,
		Source:    domain.SourceUpload,
	})
}

func respondUploaded(w http.ResponseWriter, docs []domain.UploadedDocument) {
	message := "File uploaded successfully."
	if len(docs) > 1 {
		message = fmt.Sprintf("%d files uploaded successfully.", len(docs))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   message,
		"documents": toDocumentDTOs(docs),
	})
}

// decodeContent accepts plain text or a base64 data URL.
func decodeContent(content string) ([]byte, error) {
	if !strings.HasPrefix(content, "data:") {
		return []byte(content), nil
	}
	_, payload, ok := strings.Cut(content, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL: %w", domain.ErrInvalidInput)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidInput, err)
	}
	return data, nil
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func (s *Server) searchCatalog(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := decodeJSON(r, &body); err != nil {
		respondServiceError(w, err)
		return
	}
	if body.DocumentID != "" && !s.owns(w, r, body.DocumentID) {
		return
	}

	resp, err := s.ports.Search.SearchCatalog(r.Context(), domain.SearchRequest{
		Query:      body.Query,
		DocumentID: body.DocumentID,
		MatchCount: body.RequestedMatchCount,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSearch(w, resp)
}

func (s *Server) searchInDocument(w http.ResponseWriter, r *http.Request) {
	var body searchInDocumentBody
	if err := decodeJSON(r, &body); err != nil {
		respondServiceError(w, err)
		return
	}
	if body.UploadedFileID == "" {
		respondError(w, http.StatusBadRequest, "uploadedFileId is required")
		return
	}
	if !s.owns(w, r, body.UploadedFileID) {
		return
	}

	resp, err := s.ports.Search.SearchInDocument(r.Context(), domain.DocumentSearchRequest{
		Query:      body.Query,
		DocumentID: body.UploadedFileID,
		MatchCount: body.Count,
		Threshold:  body.Threshold,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSearch(w, resp)
}

func (s *Server) analyzeProducts(w http.ResponseWriter, r *http.Request) {
	var body analyzeProductsBody
	if err := decodeJSON(r, &body); err != nil {
		respondServiceError(w, err)
		return
	}
	if len(body.Products) == 0 {
		respondError(w, http.StatusBadRequest, "Invalid products data")
		return
	}

	if body.Answers != nil {
		rec, err := s.ports.Search.Recommend(r.Context(), domain.CompareRequest{Products: body.Products, Answers: body.Answers})
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"success": true, "recommendation": rec})
		return
	}

	questions, err := s.ports.Search.CompareQuestions(r.Context(), body.Products)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "questions": questions})
}

func respondSearch(w http.ResponseWriter, resp *domain.SearchResponse) {
	results := resp.Results
	if results == nil {
		results = []domain.SearchResult{}
	}
	body := map[string]any{
		"success": resp.Error == "",
		"results": results,
	}
	if resp.Parsed != nil {
		body["parsed"] = resp.Parsed
	}
	if resp.Fallback {
		body["fallback"] = true
	}
	if resp.Error != "" {
		body["error"] = resp.Error
	}
	respondJSON(w, http.StatusOK, body)
}

// owns writes an error response and returns false unless the caller owns
// documentID.
func (s *Server) owns(w http.ResponseWriter, r *http.Request, documentID string) bool {
	if _, err := s.ports.Documents.Get(r.Context(), ownerFrom(r), documentID); err != nil {
		respondServiceError(w, err)
		return false
	}
	return true
}

func (s *Server) listAnalyzed(w http.ResponseWriter, r *http.Request) {
	docs, err := s.ports.Documents.ListAnalyzed(r.Context(), ownerFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"documents": toDocumentDTOs(docs),
	})
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	details, err := s.ports.Documents.Get(r.Context(), ownerFrom(r), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	products := make([]productDTO, len(details.Entities))
	for i := range details.Entities {
		products[i] = toProductDTO(&details.Entities[i])
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"document": toDocumentDTO(&details.Document),
		"products": products,
		"chunks":   details.Chunks,
	})
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	s.removeDocument(w, r, mux.Vars(r)["id"])
}

func (s *Server) deleteDocumentByBody(w http.ResponseWriter, r *http.Request) {
	var body deleteBody
	if err := decodeJSON(r, &body); err != nil {
		respondServiceError(w, err)
		return
	}
	s.removeDocument(w, r, body.DocumentID)
}

func (s *Server) removeDocument(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		respondError(w, http.StatusBadRequest, "documentId is required")
		return
	}
	if err := s.ports.Documents.Delete(r.Context(), ownerFrom(r), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Document deleted successfully.",
	})
}

func (s *Server) listSupport(w http.ResponseWriter, r *http.Request) {
	docs, err := s.ports.Documents.ListSupport(r.Context(), ownerFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]supportDocumentDTO, len(docs))
	for i, d := range docs {
		out[i] = supportDocumentDTO{
			ID:               d.ID,
			FileName:         d.Name,
			MediaType:        d.MediaType,
			CreatedAt:        d.CreatedAt,
			ProcessingStatus: string(d.Status),
			Size:             d.Size,
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) deleteSupportDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Documents.Delete(r.Context(), ownerFrom(r), mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully."})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var body chatBody
	if err := decodeJSON(r, &body); err != nil {
		respondServiceError(w, err)
		return
	}
	reply, err := s.ports.Chat.Chat(r.Context(), body.Message, toChatTurns(body.ConversationHistory))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

func (s *Server) runStage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	stage := domain.Stage(vars["stage"])
	if !stage.IsValid() {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown stage %q", vars["stage"]))
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	if !s.owns(w, r, id) {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.cfg.StageTimeout)
	defer cancel()
	if err := s.ports.Ingestion.RunStage(ctx, domain.StageTask{DocumentID: id, Stage: stage, Force: force}); err != nil {
		respondServiceError(w, err)
		return
	}

	details, err := s.ports.Documents.Get(ctx, ownerFrom(r), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"document": toDocumentDTO(&details.Document),
	})
}
