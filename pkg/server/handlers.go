package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"qrseal/pkg/models"
	"qrseal/pkg/pdfstamp"
	"qrseal/pkg/sealbox"
	"qrseal/pkg/secureqr"
)

const maxUploadBytes = 32 << 20

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	store   *Store
	auth    *Auth
	box     *sealbox.Box
	log     *Logger
	gen     *secureqr.Generator
	det     *secureqr.Detector
	baseURL string
}

// New wires a Server. baseURL is the externally visible prefix encoded
// into generated QR payloads, e.g. "https://seals.example.com".
func New(store *Store, box *sealbox.Box, logger *Logger, baseURL string) *Server {
	return &Server{
		store:   store,
		auth:    NewAuth(store),
		box:     box,
		log:     logger,
		gen:     secureqr.NewGenerator(),
		det:     secureqr.NewDetector(),
		baseURL: baseURL,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	u, err := s.auth.Register(req.Username, req.Password)
	if errors.Is(err, ErrUserExists) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.log.Infof("registered user %s", u.Username)
	writeJSON(w, http.StatusCreated, map[string]string{"user_id": u.ID, "username": u.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	token, expiresAt, err := s.auth.Login(req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		s.log.Errorf("login failed for %s: %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	scanLimit := 0
	if v := r.FormValue("scan_limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "scan_limit must be a non-negative integer")
			return
		}
		scanLimit = n
	}

	filename := "document"
	var pdfBytes []byte
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		pdfBytes, err = io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}
		filename = header.Filename
	}

	docID := uuid.New().String()
	verifyURL := fmt.Sprintf("%s/verify/%s", s.baseURL, docID)

	qrPNG, meta, err := s.gen.Generate(verifyURL, docID, secureqr.DefaultOptions())
	if err != nil {
		s.log.Errorf("QR generation failed for document %s: %v", docID, err)
		writeError(w, http.StatusInternalServerError, "QR generation failed")
		return
	}
	sealed, err := s.box.Seal(meta)
	if err != nil {
		s.log.Errorf("metadata sealing failed for document %s: %v", docID, err)
		writeError(w, http.StatusInternalServerError, "failed to protect metadata")
		return
	}

	doc := Document{
		ID:             docID,
		OwnerID:        UserID(r.Context()),
		Filename:       filename,
		ScanLimit:      scanLimit,
		SealedMetadata: sealed,
		QRPNG:          qrPNG,
		PDF:            pdfBytes,
		CreatedAt:      time.Now(),
	}
	if err := s.store.CreateDocument(doc); err != nil {
		s.log.Errorf("failed to store document %s: %v", docID, err)
		writeError(w, http.StatusInternalServerError, "failed to store document")
		return
	}

	s.log.Infof("created document %s (%s) with scan limit %d", docID, filename, scanLimit)
	writeJSON(w, http.StatusCreated, map[string]any{
		"document_id": docID,
		"verify_url":  verifyURL,
		"scan_limit":  scanLimit,
	})
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.DocumentByID(mux.Vars(r)["id"])
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(doc.QRPNG)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	doc, err := s.store.DocumentByID(id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	count, err := s.store.IncrementScanCount(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "scan tracking failed")
		return
	}

	w.Header().Set("X-Scan-Count", strconv.Itoa(count))
	w.Header().Set("X-Scan-Limit", strconv.Itoa(doc.ScanLimit))
	if doc.ScanLimit > 0 && count > doc.ScanLimit {
		s.log.Warnf("document %s exceeded its scan limit (%d/%d)", id, count, doc.ScanLimit)
		writeError(w, http.StatusGone, "scan limit exceeded")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": id,
		"scan_count":  count,
		"scan_limit":  doc.ScanLimit,
		"status":      "valid",
	})
}

func (s *Server) handleVerifyImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	doc, err := s.store.DocumentByID(id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image field is required")
		return
	}
	defer file.Close()
	imageBytes, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded image")
		return
	}

	var meta models.SecurityMetadata
	if err := s.box.OpenJSON(doc.SealedMetadata, &meta); err != nil {
		s.log.Errorf("failed to unseal metadata for document %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "metadata unavailable")
		return
	}

	report, err := s.det.VerifyBytes(imageBytes, meta)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not decode image")
		return
	}
	s.log.Infof("document %s verified as %s (score %.2f)", id, report.Verdict, report.AuthenticityScore)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStamped(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	doc, err := s.store.DocumentByID(id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if len(doc.PDF) == 0 {
		writeError(w, http.StatusNotFound, "document has no PDF attachment")
		return
	}

	stamped, err := pdfstamp.StampLastPage(doc.PDF, doc.QRPNG)
	if err != nil {
		s.log.Errorf("stamping failed for document %s: %v", id, err)
		writeError(w, http.StatusUnprocessableEntity, "failed to stamp PDF")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "stamped-"+doc.Filename))
	w.Write(stamped)
}
