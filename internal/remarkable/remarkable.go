// Package remarkable uploads generated planners to a reMarkable tablet by
// shelling out to the rmapi CLI.
package remarkable

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/shlex"

	appLog "dailyplanner/internal/log"
)

var (
	ErrNotInstalled = errors.New("rmapi not found in PATH")
	// ErrAuth is returned when rmapi reports that it is not logged in.
	// Running Register once fixes it.
	ErrAuth = errors.New("rmapi is not authenticated")
)

// runFunc executes one command. Tests swap it out.
type runFunc func(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) error

func execRun(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Uploader puts PDFs into one folder on the device.
type Uploader struct {
	argv   []string
	folder string
	run    runFunc
}

// New parses command (e.g. `rmapi` or `/opt/rmapi -ni`) with shell
// quoting rules and targets folder.
func New(command, folder string) (*Uploader, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("rmapi command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("rmapi command is empty")
	}
	folder = strings.TrimSpace(folder)
	if folder == "" {
		folder = "Daily Planner"
	}
	if !strings.HasPrefix(folder, "/") {
		folder = "/" + folder
	}
	return &Uploader{argv: argv, folder: folder, run: execRun}, nil
}

// Folder is the absolute destination folder on the device.
func (u *Uploader) Folder() string { return u.folder }

// Available checks that the rmapi binary can be found.
func (u *Uploader) Available() error {
	if _, err := exec.LookPath(u.argv[0]); err != nil {
		return fmt.Errorf("%w: %v", ErrNotInstalled, err)
	}
	return nil
}

func (u *Uploader) cmd(args ...string) []string {
	return append(append([]string(nil), u.argv...), args...)
}

// Upload puts pdfPath into the folder as documentName. rmapi names
// documents after the file, so a differently named copy is staged in a
// temp directory first.
func (u *Uploader) Upload(ctx context.Context, pdfPath, documentName string) error {
	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	upload := pdfPath
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	if documentName != "" && documentName != base {
		dir, err := os.MkdirTemp("", "dailyplanner-upload-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		upload = filepath.Join(dir, documentName+".pdf")
		if err := copyFile(pdfPath, upload); err != nil {
			return fmt.Errorf("stage upload: %w", err)
		}
	}

	// mkdir fails when the folder already exists; that is fine.
	var mkdirErr bytes.Buffer
	if err := u.run(ctx, u.cmd("mkdir", u.folder), nil, io.Discard, &mkdirErr); err != nil {
		appLog.Debug("rmapi mkdir failed", "folder", u.folder, "error", err, "stderr", strings.TrimSpace(mkdirErr.String()))
	}

	appLog.Info("uploading to remarkable", "document", filepath.Base(upload), "folder", u.folder)
	var stdout, stderr bytes.Buffer
	if err := u.run(ctx, u.cmd("put", upload, u.folder), nil, &stdout, &stderr); err != nil {
		msg := strings.TrimSpace(stderr.String())
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "log in") || strings.Contains(lower, "auth") {
			return fmt.Errorf("%w: %s", ErrAuth, msg)
		}
		return fmt.Errorf("rmapi put: %w: %s", err, msg)
	}
	appLog.Info("uploaded to remarkable", "document", filepath.Base(upload))
	return nil
}

// Register runs rmapi interactively. Listing the root folder triggers the
// one-time device code prompt when rmapi is not yet authenticated.
func (u *Uploader) Register(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	if err := u.run(ctx, u.cmd("ls"), stdin, stdout, stderr); err != nil {
		return fmt.Errorf("rmapi ls: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
