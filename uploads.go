package main

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/config"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
)

const (
	maxUploadFileSize = 10 << 20 // 10MB per file
	maxUploadFiles    = 10
	thumbnailWidth    = 240
)

// allowedUploadTypes maps accepted extensions to their expected MIME types.
var allowedUploadTypes = map[string][]string{
	".png":  {"image/png"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".pdf":  {"application/pdf"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
}

func uploadRoot() string {
	root := os.Getenv("UPLOAD_DIR")
	if root == "" {
		root = "uploads"
	}
	return root
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeFilename reduces a client-supplied name to a safe character set
// and strips any path components.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		name = "file"
	}
	return name
}

func storedFilename(original string) string {
	return fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeFilename(original))
}

func validateUpload(file *multipart.FileHeader) error {
	if file.Size > maxUploadFileSize {
		return utils.NewValidationError(fmt.Sprintf("file %s exceeds the 10MB limit", file.Filename))
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	mimes, ok := allowedUploadTypes[ext]
	if !ok {
		return utils.NewValidationError(fmt.Sprintf("file type %s is not accepted", ext))
	}
	contentType := file.Header.Get("Content-Type")
	for _, mime := range mimes {
		if contentType == mime {
			return nil
		}
	}
	return utils.NewValidationError(fmt.Sprintf("unexpected content type %s for %s", contentType, file.Filename))
}

func isImageExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// saveUploadedFiles writes the attachments into a role-specific directory
// under the uploads root and returns the document metadata plus the list of
// written paths so the caller can remove them if the DB insert fails.
func saveUploadedFiles(c *gin.Context, files []*multipart.FileHeader, role string) ([]models.NewDocument, []string, error) {
	if len(files) == 0 {
		return nil, nil, utils.NewValidationError("at least one file is required")
	}
	if len(files) > maxUploadFiles {
		return nil, nil, utils.NewValidationError(fmt.Sprintf("at most %d files per request", maxUploadFiles))
	}
	for _, file := range files {
		if err := validateUpload(file); err != nil {
			return nil, nil, err
		}
	}

	dir := filepath.Join(uploadRoot(), strings.ToLower(role))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, utils.NewInternalError(err)
	}

	var docs []models.NewDocument
	var written []string
	for _, file := range files {
		dst := filepath.Join(dir, storedFilename(file.Filename))
		if err := c.SaveUploadedFile(file, dst); err != nil {
			removeFiles(written)
			return nil, nil, utils.NewInternalError(err)
		}
		written = append(written, dst)

		doc := models.NewDocument{
			FileName: sanitizeFilename(file.Filename),
			FilePath: dst,
			FileSize: file.Size,
			MimeType: file.Header.Get("Content-Type"),
		}

		if isImageExt(dst) {
			if thumb, err := writeThumbnail(dst); err == nil {
				doc.ThumbnailPath = thumb
				written = append(written, thumb)
			}
			// A failed thumbnail never fails the submission.
		}
		docs = append(docs, doc)
	}
	return docs, written, nil
}

func writeThumbnail(path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", err
	}
	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	dir, name := filepath.Split(path)
	thumbPath := filepath.Join(dir, "thumb_"+name)
	if err := imaging.Save(thumb, thumbPath); err != nil {
		return "", err
	}
	return thumbPath, nil
}

// removeFiles is the compensating action when the DB write fails after the
// files already landed on disk.
func removeFiles(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			config.GetLogger().WithField("path", path).Warn("failed to remove orphaned upload: " + err.Error())
		}
	}
}
