package pantry

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// maxFrameSize bounds captured frames; phone cameras produce large JPEG/HEIC files
const maxFrameSize = int64(20 << 20) // 20MB

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes v with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// jsonError writes an {"error": message} body
func jsonError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript entry module
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}

// handleListItems returns the pantry filtered and sorted by the search and sort query parameters
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	order, err := ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, err := s.service.ListItems(ViewState{
		Search: r.URL.Query().Get("search"),
		Sort:   order,
	})
	if err != nil {
		slog.Error("Error listing items", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// handleAddItem stocks an item from the add dialog or a confirmed capture
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Note      string `json:"note"`
		CaptureID string `json:"capture_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := s.service.AddItem(req.Name, req.Note, req.CaptureID)
	if err != nil {
		if errors.Is(err, ErrEmptyName) || errors.Is(err, ErrInvalidCapture) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Error adding item", "name", req.Name, "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// handleIncrementItem adds one more of a listed item
func (s *Server) handleIncrementItem(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	item, err := s.service.AddItem(name, "", "")
	if err != nil {
		if errors.Is(err, ErrEmptyName) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Error incrementing item", "name", name, "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// handleDecrementItem removes one of an item, deleting it at zero
func (s *Server) handleDecrementItem(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.service.RemoveItem(name); err != nil {
		slog.Error("Error removing item", "name", name, "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRenameItem re-keys an item
func (s *Server) handleRenameItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	oldName := r.PathValue("name")
	item, err := s.service.RenameItem(oldName, req.Name)
	if err != nil {
		if errors.Is(err, ErrEmptyName) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Error renaming item", "from", oldName, "to", req.Name, "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// handleSetNote replaces an item's note
func (s *Server) handleSetNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	name := r.PathValue("name")
	item, err := s.service.SetNote(name, req.Note)
	if err != nil {
		slog.Error("Error setting note", "name", name, "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// handleGetItemPhoto serves the photo captured for an item
func (s *Server) handleGetItemPhoto(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.ItemPhoto(r.PathValue("name"))
	if err != nil {
		jsonError(w, "Photo not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// decodeDataURL decodes a base64 frame, with or without a data: URL header
func decodeDataURL(s string) ([]byte, string, error) {
	var contentType string
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
		if !isBase64 {
			return nil, "", fmt.Errorf("data URL is not base64 encoded")
		}
		contentType = mediaType
		s = payload
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, "", fmt.Errorf("decoding base64 image: %w", err)
	}
	return data, contentType, nil
}

// readFrame extracts the captured frame from a JSON data URL body or a multipart upload
func readFrame(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFrameSize*2)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFrameSize); err != nil {
			return nil, "", fmt.Errorf("parsing multipart form: %w", err)
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("getting file from form: %w", err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", fmt.Errorf("reading file data: %w", err)
		}
		return data, header.Header.Get("Content-Type"), nil
	}

	var req struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "", fmt.Errorf("decoding request body: %w", err)
	}
	return decodeDataURL(req.Image)
}

// handleCapture stores a camera frame and returns the suggested label
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := readFrame(w, r)
	if err != nil {
		slog.Error("Error reading captured frame", "error", err)
		jsonError(w, "Could not read the captured image", http.StatusBadRequest)
		return
	}

	capture, err := s.service.CaptureItem(r.Context(), data, contentType)
	if err != nil {
		if errors.Is(err, ErrEmptyFrame) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Error capturing item", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, capture)
}

// handleDiscardCapture drops a frame after a retake or when the capture dialog closes
func (s *Server) handleDiscardCapture(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.service.DiscardCapture(id); err != nil {
		if errors.Is(err, ErrInvalidCapture) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Warn("Error discarding capture", "capture_id", id, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
