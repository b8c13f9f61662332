package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/MeKo-Tech/codescan/internal/pipeline"
	"github.com/MeKo-Tech/codescan/internal/response"
)

// imageFormField names the multipart field carrying the image.
const imageFormField = "image"

// decodeImageHandler accepts an image as multipart upload or as a raw image
// body and searches it.
func (s *Server) decodeImageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := s.readImageUpload(w, r)
	if err != nil {
		recordRejected("image")
		if errors.Is(err, errNoUpload) {
			s.writeErrorResponse(w, response.ReasonNoData, "", http.StatusBadRequest)
			return
		}
		writeReadError(w, err)
		return
	}

	img, err := s.pipeline.DecodeImage(data)
	if err != nil {
		recordRejected("image")
		s.writeErrorResponse(w, response.ReasonDecodeImage, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	env, out := s.pipeline.ProcessImage(ctx, img.Image)
	recordOutcome("image", out)
	if out.Err != nil {
		s.writeErrorResponse(w, pipeline.ReasonCancelled, out.Err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

var errNoUpload = errors.New("no upload in request")

// readImageUpload returns the bytes of the uploaded file. Multipart bodies
// are read from imageFormField; any other body is taken as the image itself.
func (s *Server) readImageUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		raw, err := s.readBody(w, r)
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			return nil, errNoUpload
		}
		return raw, nil
	}
	return s.readFormFile(w, r, imageFormField)
}

func (s *Server) readFormFile(w http.ResponseWriter, r *http.Request, field string) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB<<20)
	if err := r.ParseMultipartForm(s.maxUploadMB << 20); err != nil {
		return nil, err
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, errNoUpload
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	uploadSizeBytes.Observe(float64(header.Size))
	return io.ReadAll(file)
}
