package cmd

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/ulikunitz/xz"
)

// fetchCmd downloads a toolchain archive, verifies its checksum and unpacks
// it. Recipes use it to provision the external tools (transpilers, test
// runners, ...) the build depends on without requiring them system-wide.
var fetchCmd = &cobra.Command{
	Use:   "fetch <url> <dest>",
	Short: "Download and unpack a toolchain archive",
	Long: `Downloads the given URL, optionally verifies its SHA-256 checksum and
unpacks .tar.gz, .tar.xz and .tar.br archives into the destination directory.
Anything else is stored as a plain file.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		checksum, err := cmd.Flags().GetString("sha256")
		if err != nil {
			return err
		}

		strip, err := cmd.Flags().GetInt("strip")
		if err != nil {
			return err
		}

		url := args[0]
		dest := filepath.Clean(args[1])

		client := &http.Client{
			Timeout: time.Minute * 30,
		}

		resp, err := client.Get(url)
		if err != nil {
			return eris.Wrapf(err, "Failed to start download for %s", url)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return eris.Errorf("Download of %s failed with status %s", url, resp.Status)
		}

		tmpHandle, err := os.CreateTemp("", "smake-dl-*")
		if err != nil {
			return eris.Wrap(err, "Failed to create download file")
		}
		defer func() {
			tmpHandle.Close()
			os.Remove(tmpHandle.Name())
		}()

		hash := sha256.New()
		bar := getProgressBar(resp.ContentLength, "     download")
		_, err = io.Copy(io.MultiWriter(tmpHandle, hash, bar), resp.Body)
		if err != nil {
			return eris.Wrapf(err, "Failed to download %s", url)
		}

		if checksum != "" {
			actual := hex.EncodeToString(hash.Sum(nil))
			if actual != checksum {
				return eris.Errorf("Checksum mismatch for %s: expected %s but got %s", url, checksum, actual)
			}
		}

		_, err = tmpHandle.Seek(0, io.SeekStart)
		if err != nil {
			return eris.Wrap(err, "Failed to rewind download file")
		}

		switch {
		case strings.HasSuffix(url, ".tar.gz") || strings.HasSuffix(url, ".tgz"):
			reader, err := gzip.NewReader(tmpHandle)
			if err != nil {
				return eris.Wrapf(err, "Failed to decompress %s", url)
			}

			return extractTar(tar.NewReader(reader), dest, strip)
		case strings.HasSuffix(url, ".tar.xz"):
			reader, err := xz.NewReader(tmpHandle)
			if err != nil {
				return eris.Wrapf(err, "Failed to decompress %s", url)
			}

			return extractTar(tar.NewReader(reader), dest, strip)
		case strings.HasSuffix(url, ".tar.br"):
			return extractTar(tar.NewReader(brotli.NewReader(tmpHandle)), dest, strip)
		default:
			err = os.MkdirAll(filepath.Dir(dest), 0770)
			if err != nil {
				return eris.Wrapf(err, "Failed to create %s", filepath.Dir(dest))
			}

			destHandle, err := os.Create(dest)
			if err != nil {
				return eris.Wrapf(err, "Failed to create %s", dest)
			}
			defer destHandle.Close()

			_, err = io.Copy(destHandle, tmpHandle)
			if err != nil {
				return eris.Wrapf(err, "Failed to write %s", dest)
			}

			return nil
		}
	},
}

func init() {
	toolCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().String("sha256", "", "expected SHA-256 checksum of the download")
	fetchCmd.Flags().Int("strip", 0, "strip this many leading path components while unpacking")
}

func getProgressBar(length int64, desc string) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.DefaultBytes(length, desc)
}

func extractTar(archive *tar.Reader, dest string, strip int) error {
	for {
		header, err := archive.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return eris.Wrap(err, "Failed to read archive")
		}

		name := filepath.ToSlash(filepath.Clean(header.Name))
		if strip > 0 {
			parts := strings.SplitN(name, "/", strip+1)
			if len(parts) <= strip {
				continue
			}
			name = parts[strip]
		}

		if name == "." || strings.HasPrefix(name, "..") {
			continue
		}

		itemPath := filepath.Join(dest, filepath.FromSlash(name))

		switch header.Typeflag {
		case tar.TypeDir:
			err = os.MkdirAll(itemPath, 0770)
			if err != nil {
				return eris.Wrapf(err, "Failed to create %s", itemPath)
			}
		case tar.TypeReg:
			err = os.MkdirAll(filepath.Dir(itemPath), 0770)
			if err != nil {
				return eris.Wrapf(err, "Failed to create %s", filepath.Dir(itemPath))
			}

			handle, err := os.OpenFile(itemPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(header.Mode))
			if err != nil {
				return eris.Wrapf(err, "Failed to create %s", itemPath)
			}

			_, err = io.Copy(handle, archive)
			handle.Close()
			if err != nil {
				return eris.Wrapf(err, "Failed to unpack %s", itemPath)
			}
		}
	}

	return nil
}
