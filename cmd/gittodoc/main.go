// Command gittodoc generates a repository digest from the command line,
// using the same ingestion pipeline as the web service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/filiksyos/gittodoc/internal/cfg"
	"github.com/filiksyos/gittodoc/internal/ingest"
	"github.com/filiksyos/gittodoc/internal/upload"
)

type patternList []string

func (p *patternList) String() string { return strings.Join(*p, ",") }

func (p *patternList) Set(value string) error {
	*p = append(*p, value)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		output          string
		maxSize         int64
		branch          string
		excludePatterns patternList
		includePatterns patternList
	)
	flag.StringVar(&output, "output", "", "output file path (defaults to <slug>.txt)")
	flag.Int64Var(&maxSize, "max-size", 1024*1024, "maximum file size to process in bytes")
	flag.StringVar(&branch, "branch", "", "branch to clone and ingest")
	flag.Var(&excludePatterns, "exclude-pattern", "glob pattern to exclude (repeatable)")
	flag.Var(&includePatterns, "include-pattern", "glob pattern to include (repeatable)")
	flag.Parse()

	source := flag.Arg(0)
	if source == "" {
		source = "."
	}

	conf := cfg.Load()
	logger := log.New(os.Stderr, "[gittodoc] ", log.LstdFlags)

	var uploader ingest.Uploader
	if conf.S3Bucket != "" {
		storage, err := upload.New(upload.Options{
			Endpoint:  conf.S3Endpoint,
			AccessKey: conf.S3AccessKey,
			SecretKey: conf.S3SecretKey,
			Region:    conf.S3Region,
			Bucket:    conf.S3Bucket,
			UseSSL:    conf.S3UseSSL,
			PublicURL: conf.S3PublicURL,
		})
		if err != nil {
			return err
		}
		uploader = storage
	}

	service := ingest.NewService(ingest.Config{
		TempDir:           conf.TempDir,
		CloneTimeout:      conf.CloneTimeout,
		MaxFiles:          conf.MaxFiles,
		MaxTotalSizeBytes: conf.MaxTotalSizeBytes,
		MaxDirectoryDepth: conf.MaxDirectoryDepth,
		GitHubPAT:         conf.GitHubPAT,
	}, uploader, logger)

	query, err := ingest.ParseQuery(source, maxSize)
	if err != nil {
		return err
	}
	if branch != "" && query.Branch == "" {
		query.Branch = branch
	}
	query.IgnorePatterns = append(query.IgnorePatterns, excludePatterns...)
	query.IncludePatterns = append(query.IncludePatterns, includePatterns...)

	digest, err := service.Ingest(context.Background(), query)
	if err != nil {
		return err
	}

	fmt.Println("Summary:")
	fmt.Println(digest.Summary)
	fmt.Println("\nDirectory Structure:")
	fmt.Println(digest.Tree)

	if digest.RemoteURL != "" {
		fmt.Printf("\nContent digest uploaded to: %s\n", digest.RemoteURL)
		return nil
	}
	if digest.UploadFailed {
		fmt.Fprintln(os.Stderr, "\nupload failed, writing digest locally instead")
	}

	path := output
	if path == "" {
		path = digest.Slug + ".txt"
	}
	if filepath.Ext(path) == "" {
		path += ".txt"
	}
	if err := os.WriteFile(path, []byte(digest.FullText()), 0o644); err != nil {
		return fmt.Errorf("write digest to %s: %w", path, err)
	}
	abs, _ := filepath.Abs(path)
	fmt.Printf("\nContent digest written to: %s\n", abs)
	return nil
}
