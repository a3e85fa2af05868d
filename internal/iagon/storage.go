package iagon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// jsonContentType is used for the JSON storage endpoints.
const jsonContentType = "application/json"

type createDirectoryRequest struct {
	Name        string  `json:"directory_name"`
	ParentDirID *string `json:"parent_directory_id"`
}

// CreateDirectory creates a directory named name. parentID selects the
// parent directory; pass "" to create under the wallet root. The gateway
// rejects duplicate names within a parent with 409, surfaced as
// ErrDirectoryExists — callers treating mkdir as idempotent should resolve
// the existing entry via List on that error.
func (c *Client) CreateDirectory(ctx context.Context, name, parentID string) (*Directory, error) {
	name = norm.NFC.String(name)

	c.logger.Info("creating directory",
		slog.String("name", name),
		slog.String("parent_id", parentID),
	)

	reqBody := createDirectoryRequest{Name: name}
	if parentID != "" {
		reqBody.ParentDirID = &parentID
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("iagon: mkdir: marshaling request: %w", err)
	}

	var parsed createDirectoryResponse

	err = c.doJSON(ctx, "mkdir", http.MethodPost, "/storage/directory/create",
		jsonContentType, bytes.NewReader(bodyBytes), &parsed)
	if err != nil {
		return nil, err
	}

	dir := parsed.Data.toDirectory()

	return &dir, nil
}

// DeleteDirectory removes a directory and everything inside it.
func (c *Client) DeleteDirectory(ctx context.Context, dirID string) error {
	c.logger.Info("deleting directory", slog.String("dir_id", dirID))

	path := "/storage/directory/" + url.PathEscape(dirID)

	var env successEnvelope

	err := c.doJSON(ctx, "rmdir", http.MethodDelete, path, "", nil, &env)
	if err != nil {
		return err
	}

	if !env.Success {
		return fmt.Errorf("iagon: rmdir: gateway reported failure: %s", env.Message)
	}

	return nil
}

// List returns the children of a directory. dirPath is the chain of
// directory IDs from the root to the target; nil or empty lists the wallet
// root. private selects the private listing (files visible only to the
// wallet). An empty directory yields a Listing with empty slices.
func (c *Client) List(ctx context.Context, dirPath []string, private bool) (*Listing, error) {
	var path string

	if len(dirPath) == 0 {
		visibility := VisibilityPublic
		if private {
			visibility = VisibilityPrivate
		}

		path = "/storage/list/" + visibility
	} else {
		escaped := make([]string, len(dirPath))
		for i, id := range dirPath {
			escaped[i] = url.PathEscape(id)
		}

		path = "/storage/directory/" + strings.Join(escaped, "/") + "/list"
	}

	c.logger.Debug("listing directory",
		slog.Int("depth", len(dirPath)),
		slog.Bool("private", private),
	)

	var parsed listResponse

	err := c.doJSON(ctx, "list", http.MethodGet, path, "", nil, &parsed)
	if err != nil {
		return nil, err
	}

	listing := &Listing{
		Files:       make([]File, 0, len(parsed.Data.Files)),
		Directories: make([]Directory, 0, len(parsed.Data.Directories)),
	}

	for i := range parsed.Data.Files {
		listing.Files = append(listing.Files, parsed.Data.Files[i].toFile())
	}

	for i := range parsed.Data.Directories {
		listing.Directories = append(listing.Directories, parsed.Data.Directories[i].toDirectory())
	}

	c.logger.Debug("listed directory",
		slog.Int("files", len(listing.Files)),
		slog.Int("directories", len(listing.Directories)),
	)

	return listing, nil
}
