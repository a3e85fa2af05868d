package iagon

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	"golang.org/x/text/unicode/norm"
)

// DefaultPassword is the encryption password applied when UploadRequest
// leaves Password empty. It must match on download. Other Iagon clients use
// the same default, so files round-trip between them.
const DefaultPassword = "default"

// Upload stores a file on the network and returns its gateway-assigned ID.
// The request is a single multipart POST; there is no chunking or resume —
// a failure means nothing observable was stored and the caller may retry.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (string, error) {
	if req.Name == "" {
		return "", fmt.Errorf("iagon: upload: %w: file name is required", ErrValidation)
	}

	if len(req.Data) == 0 {
		return "", fmt.Errorf("iagon: upload: %w: empty payload", ErrValidation)
	}

	name := norm.NFC.String(req.Name)

	password := req.Password
	if password == "" {
		password = DefaultPassword
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = VisibilityPrivate
	}

	c.logger.Info("uploading file",
		slog.String("name", name),
		slog.Int("size", len(req.Data)),
		slog.String("visibility", visibility),
		slog.String("dir_id", req.DirID),
	)

	body, contentType, err := encodeUploadForm(name, password, visibility, req.DirID, req.RegionID, req.Data)
	if err != nil {
		return "", err
	}

	var parsed createFileResponse

	err = c.doJSON(ctx, "upload", http.MethodPost, "/storage/upload/", contentType, body, &parsed)
	if err != nil {
		return "", err
	}

	if parsed.Data.ID == "" {
		return "", fmt.Errorf("iagon: upload: gateway returned no file id")
	}

	c.logger.Debug("upload complete", slog.String("file_id", parsed.Data.ID))

	return parsed.Data.ID, nil
}

// encodeUploadForm builds the multipart body for an upload: the metadata
// fields followed by the file part. Returns the body and its content type
// (which carries the multipart boundary).
func encodeUploadForm(
	name, password, visibility, dirID, regionID string, data []byte,
) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	fields := map[string]string{
		"filename":   name,
		"password":   password,
		"visibility": visibility,
	}

	if dirID != "" {
		fields["directoryId"] = dirID
	}

	if regionID != "" {
		fields["regionId"] = regionID
	}

	for field, value := range fields {
		if err := mw.WriteField(field, value); err != nil {
			return nil, "", fmt.Errorf("iagon: upload: encoding field %s: %w", field, err)
		}
	}

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("iagon: upload: creating file part: %w", err)
	}

	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("iagon: upload: writing file part: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("iagon: upload: finalizing multipart body: %w", err)
	}

	return body, mw.FormDataContentType(), nil
}
