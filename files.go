package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iagon-community/iagon-go/pkg/iagonfs"
)

// parallelUploads bounds concurrent file uploads during recursive put.
const parallelUploads = 4

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List files and directories",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLs,
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <remote-path> [local-path]",
		Short: "Download a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runGet,
	}
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <local-path> [remote-path]",
		Short: "Upload a file or directory",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runPut,
	}

	cmd.Flags().BoolP("recursive", "r", false, "upload a directory tree")

	return cmd
}

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a directory (recursive)",
		Args:  cobra.ExactArgs(1),
		RunE:  runMkdir,
	}
}

func newRmdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rmdir <path>",
		Short: "Delete a directory and its contents",
		Args:  cobra.ExactArgs(1),
		RunE:  runRmdir,
	}
}

// cleanRemotePath strips leading/trailing slashes, returns "" for root.
func cleanRemotePath(p string) string {
	return strings.Trim(p, "/")
}

func runLs(cmd *cobra.Command, args []string) error {
	remotePath := "/"
	if len(args) > 0 {
		remotePath = args[0]
	}

	ctx := cmd.Context()

	cs, err := openCLISession(ctx)
	if err != nil {
		return err
	}
	defer cs.persistToken()

	entries, err := cs.fsys.ReadDir(ctx, remotePath)
	if err != nil {
		if notLoggedIn(err) {
			return fmt.Errorf("session expired — run 'iagon-go login' again")
		}

		return fmt.Errorf("listing %q: %w", remotePath, err)
	}

	if flagJSON {
		return printEntriesJSON(entries)
	}

	printEntriesTable(entries)

	return nil
}

// lsJSONItem is the JSON output schema for a single entry in ls output.
type lsJSONItem struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	IsDir      bool   `json:"is_dir"`
	ModifiedAt string `json:"modified_at"`
	ID         string `json:"id"`
}

func printEntriesJSON(entries []iagonfs.Entry) error {
	out := make([]lsJSONItem, 0, len(entries))
	for i := range entries {
		out = append(out, lsJSONItem{
			Name:       entries[i].Name,
			Size:       entries[i].Size,
			IsDir:      entries[i].IsDir,
			ModifiedAt: entries[i].ModTime.Format("2006-01-02T15:04:05Z"),
			ID:         entries[i].ID,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func printEntriesTable(entries []iagonfs.Entry) {
	// Sort: directories first, then alphabetical.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}

		return entries[i].Name < entries[j].Name
	})

	headers := []string{"NAME", "SIZE", "MODIFIED"}
	rows := make([][]string, 0, len(entries))

	for i := range entries {
		name := entries[i].Name
		size := formatSize(entries[i].Size)

		if entries[i].IsDir {
			name += "/"
			size = "-"
		}

		rows = append(rows, []string{name, size, formatTime(entries[i].ModTime)})
	}

	printTable(os.Stdout, headers, rows)
}

func runGet(cmd *cobra.Command, args []string) error {
	remotePath := args[0]
	ctx := cmd.Context()

	cs, err := openCLISession(ctx)
	if err != nil {
		return err
	}
	defer cs.persistToken()

	localPath := path.Base(cleanRemotePath(remotePath))
	if len(args) > 1 {
		localPath = args[1]
	}

	data, err := cs.fsys.ReadFile(ctx, remotePath)
	if err != nil {
		if notLoggedIn(err) {
			return fmt.Errorf("session expired — run 'iagon-go login' again")
		}

		return fmt.Errorf("downloading %q: %w", remotePath, err)
	}

	if err := os.WriteFile(localPath, data, 0o644); err != nil { //nolint:gosec // user-readable download
		return fmt.Errorf("writing %q: %w", localPath, err)
	}

	statusf("Downloaded %s (%s)\n", localPath, formatSize(int64(len(data))))

	return nil
}

func runPut(cmd *cobra.Command, args []string) error {
	localPath := args[0]
	ctx := cmd.Context()

	fi, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stating local path: %w", err)
	}

	recursive, err := cmd.Flags().GetBool("recursive")
	if err != nil {
		return err
	}

	if fi.IsDir() && !recursive {
		return fmt.Errorf("%q is a directory — use --recursive (-r)", localPath)
	}

	// Default remote path is root + local base name.
	remotePath := "/" + filepath.Base(localPath)
	if len(args) > 1 {
		remotePath = args[1]
	}

	cs, err := openCLISession(ctx)
	if err != nil {
		return err
	}
	defer cs.persistToken()

	if fi.IsDir() {
		return putTree(cmd, cs, localPath, remotePath)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading local file: %w", err)
	}

	fileID, err := cs.fsys.WriteFile(ctx, remotePath, data)
	if err != nil {
		if notLoggedIn(err) {
			return fmt.Errorf("session expired — run 'iagon-go login' again")
		}

		return fmt.Errorf("uploading %q: %w", remotePath, err)
	}

	cs.logger.Debug("upload complete", "remote_path", remotePath, "file_id", fileID)
	statusf("Uploaded %s (%s)\n", remotePath, formatSize(fi.Size()))

	return nil
}

// putTree uploads a local directory tree. Remote directories are created
// up-front (directory creation is ordered), then files upload concurrently
// with a bounded worker count.
func putTree(cmd *cobra.Command, cs *cliSession, localRoot, remoteRoot string) error {
	ctx := cmd.Context()

	var files []string

	dirs := []string{""}

	walkErr := filepath.WalkDir(localRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(localRoot, p)
		if relErr != nil {
			return relErr
		}

		if rel == "." {
			return nil
		}

		if d.IsDir() {
			dirs = append(dirs, filepath.ToSlash(rel))
			return nil
		}

		files = append(files, filepath.ToSlash(rel))

		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walking %q: %w", localRoot, walkErr)
	}

	for _, dir := range dirs {
		if _, err := cs.fsys.MkdirAll(ctx, path.Join(remoteRoot, dir)); err != nil {
			return fmt.Errorf("creating remote directory %q: %w", dir, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelUploads)

	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(localRoot, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("reading %q: %w", rel, err)
			}

			remote := path.Join(remoteRoot, rel)

			if _, err := cs.fsys.WriteFile(gctx, remote, data); err != nil {
				return fmt.Errorf("uploading %q: %w", remote, err)
			}

			if progressEnabled() {
				statusf("Uploaded %s (%s)\n", remote, formatSize(int64(len(data))))
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	statusf("Uploaded %d files to %s\n", len(files), remoteRoot)

	return nil
}

// mkdirJSONOutput is the JSON output schema for the mkdir command.
type mkdirJSONOutput struct {
	Created string `json:"created"`
	ID      string `json:"id"`
}

func runMkdir(cmd *cobra.Command, args []string) error {
	remotePath := cleanRemotePath(args[0])
	if remotePath == "" {
		return fmt.Errorf("cannot create root directory")
	}

	ctx := cmd.Context()

	cs, err := openCLISession(ctx)
	if err != nil {
		return err
	}
	defer cs.persistToken()

	dirID, err := cs.fsys.MkdirAll(ctx, remotePath)
	if err != nil {
		if notLoggedIn(err) {
			return fmt.Errorf("session expired — run 'iagon-go login' again")
		}

		return fmt.Errorf("creating directory %q: %w", remotePath, err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(mkdirJSONOutput{Created: remotePath, ID: dirID})
	}

	statusf("Created %s\n", remotePath)

	return nil
}

func runRmdir(cmd *cobra.Command, args []string) error {
	remotePath := cleanRemotePath(args[0])
	if remotePath == "" {
		return fmt.Errorf("cannot remove root directory")
	}

	ctx := cmd.Context()

	cs, err := openCLISession(ctx)
	if err != nil {
		return err
	}
	defer cs.persistToken()

	if err := cs.fsys.RemoveDir(ctx, remotePath); err != nil {
		if notLoggedIn(err) {
			return fmt.Errorf("session expired — run 'iagon-go login' again")
		}

		return fmt.Errorf("removing directory %q: %w", remotePath, err)
	}

	statusf("Removed %s\n", remotePath)

	return nil
}
