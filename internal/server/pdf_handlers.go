package server

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/MeKo-Tech/codescan/internal/pdf"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
	"github.com/MeKo-Tech/codescan/internal/response"
)

const pdfFormField = "pdf"

// PDFImageResult is the search result for one embedded image.
type PDFImageResult struct {
	Page     int               `json:"page"`
	Index    int               `json:"index"`
	Name     string            `json:"name"`
	Envelope response.Envelope `json:"result"`
}

// PDFResponse is returned by POST /decode/pdf.
type PDFResponse struct {
	Found   bool             `json:"found"`
	Images  int              `json:"images"`
	Results []PDFImageResult `json:"results"`
}

// decodePDFHandler extracts the embedded images of an uploaded PDF and
// searches each of them.
func (s *Server) decodePDFHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := s.readFormFile(w, r, pdfFormField)
	if err != nil {
		recordRejected("pdf")
		if errors.Is(err, errNoUpload) {
			s.writeErrorResponse(w, response.ReasonNoData, "", http.StatusBadRequest)
			return
		}
		writeReadError(w, err)
		return
	}

	pageRange := r.FormValue("pages")
	if _, err := pdf.ParsePageRange(pageRange); err != nil {
		recordRejected("pdf")
		s.writeErrorResponse(w, "invalid page range", err.Error(), http.StatusBadRequest)
		return
	}

	tmp, err := os.CreateTemp("", "codescan-upload-*.pdf")
	if err != nil {
		s.writeErrorResponse(w, "failed to store upload", err.Error(), http.StatusInternalServerError)
		return
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		s.writeErrorResponse(w, "failed to store upload", err.Error(), http.StatusInternalServerError)
		return
	}
	_ = tmp.Close()

	images, err := pdf.ExtractImages(tmp.Name(), pageRange)
	if err != nil {
		recordRejected("pdf")
		s.writeErrorResponse(w, "failed to read pdf", err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	resp := PDFResponse{Images: len(images), Results: make([]PDFImageResult, 0, len(images))}
	for _, pi := range images {
		env, out := s.pipeline.ProcessImage(ctx, pi.Image.Image)
		recordOutcome("pdf", out)
		if out.Err != nil {
			s.writeErrorResponse(w, pipeline.ReasonCancelled, out.Err.Error(), http.StatusServiceUnavailable)
			return
		}
		resp.Found = resp.Found || env.Found
		resp.Results = append(resp.Results, PDFImageResult{Page: pi.Page, Index: pi.Index, Name: pi.Name, Envelope: env})
	}

	slog.Info("pdf request finished", "request_id", RequestID(r.Context()), "images", len(images), "found", resp.Found)
	writeJSON(w, http.StatusOK, resp)
}
