package iagon

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Download streams the decrypted content of a file to w and returns the
// number of bytes written. password must match the password used at upload
// time — the gateway decrypts server-side. Pass "" for the default.
// An unknown file ID surfaces as ErrNotFound.
func (c *Client) Download(ctx context.Context, fileID, password string, w io.Writer) (int64, error) {
	if fileID == "" {
		return 0, fmt.Errorf("iagon: download: %w: file id is required", ErrValidation)
	}

	if password == "" {
		password = DefaultPassword
	}

	c.logger.Info("downloading file", slog.String("file_id", fileID))

	form := url.Values{
		"id":       {fileID},
		"password": {password},
	}

	resp, err := c.do(ctx, "download", http.MethodPost, "/storage/download/",
		formContentType, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, copyErr := io.Copy(w, resp.Body)
	if copyErr != nil {
		c.logger.Warn("streaming download failed",
			slog.String("file_id", fileID),
			slog.Int64("bytes_before_error", n),
			slog.String("error", copyErr.Error()),
		)

		return n, &TransportError{Op: "download", URL: c.baseURL + "/storage/download/", Err: copyErr}
	}

	c.logger.Debug("download complete",
		slog.String("file_id", fileID),
		slog.Int64("bytes", n),
	)

	return n, nil
}

// DownloadBytes is a convenience wrapper returning the payload in memory.
func (c *Client) DownloadBytes(ctx context.Context, fileID, password string) ([]byte, error) {
	var buf bytes.Buffer

	if _, err := c.Download(ctx, fileID, password, &buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
