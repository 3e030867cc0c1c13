package main

import (
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"cccd.jpg":             "cccd.jpg",
		"../../etc/passwd":     "passwd",
		"giấy xác nhận.pdf":    "gi_y_x_c_nh_n.pdf",
		"a b;c|d.png":          "a_b_c_d.png",
		"..":                   "file",
		"":                     "file",
		"/tmp/absolute/x.docx": "x.docx",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStoredFilename_Unique(t *testing.T) {
	first := storedFilename("cccd.jpg")
	second := storedFilename("cccd.jpg")
	if first == second {
		t.Errorf("stored names collide: %s", first)
	}
	if !strings.HasSuffix(first, "_cccd.jpg") {
		t.Errorf("stored name = %s, want original suffix", first)
	}
}

func fileHeader(name, contentType string, size int64) *multipart.FileHeader {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType)
	return &multipart.FileHeader{Filename: name, Header: header, Size: size}
}

func TestValidateUpload(t *testing.T) {
	cases := []struct {
		name   string
		file   *multipart.FileHeader
		wantOK bool
	}{
		{"jpeg", fileHeader("cccd.jpg", "image/jpeg", 1024), true},
		{"pdf", fileHeader("don.pdf", "application/pdf", 1024), true},
		{"docx", fileHeader("don.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 1024), true},
		{"oversize", fileHeader("big.jpg", "image/jpeg", maxUploadFileSize + 1), false},
		{"executable", fileHeader("virus.exe", "application/octet-stream", 10), false},
		{"mime mismatch", fileHeader("fake.jpg", "application/pdf", 10), false},
		{"case-insensitive ext", fileHeader("CCCD.JPG", "image/jpeg", 10), true},
	}

	for _, tc := range cases {
		err := validateUpload(tc.file)
		if tc.wantOK && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.wantOK && err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestIsImageExt(t *testing.T) {
	if !isImageExt("x.PNG") || !isImageExt("x.jpeg") {
		t.Error("image extensions not recognized")
	}
	if isImageExt("x.pdf") {
		t.Error("pdf treated as image")
	}
}
