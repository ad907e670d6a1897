// Command migrate imports a directory of plain text and markdown files as drafts.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/debemdeboas/stylus/internal/config"
	"github.com/debemdeboas/stylus/internal/db"
	"github.com/debemdeboas/stylus/internal/draft"
)

var importExtensions = []string{".md", ".txt"}

func main() {
	path := flag.String("path", "", "Path to the directory containing .md or .txt files")
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	flag.Parse()

	if *path == "" {
		log.Fatal("The --path flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	conn := db.NewSQLite(cfg.Database.Path)
	if err := conn.InitDB(); err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer conn.Close()

	store := draft.NewSQLStore(conn)
	n, err := importDir(context.Background(), store, *path, cfg.Drafts.SavePreviewLength)
	if err != nil {
		log.Fatalf("Error reading directory %s: %v", *path, err)
	}
	log.Printf("Imported %d drafts from %s", n, *path)
}

// importDir saves every importable file in dir as a new draft and returns how many were saved.
// Files that fail are logged and skipped.
func importDir(ctx context.Context, store draft.Store, dir string, previewLength int) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, file := range files {
		if file.IsDir() || !importable(file.Name()) {
			continue
		}
		if err := importFile(ctx, store, dir, file, previewLength); err != nil {
			log.Printf("Error processing file %s: %v", file.Name(), err)
			continue
		}
		n++
		log.Printf("Saved draft from file: %s", file.Name())
	}
	return n, nil
}

func importable(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range importExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func importFile(ctx context.Context, store draft.Store, dir string, file os.DirEntry, previewLength int) error {
	content, err := os.ReadFile(filepath.Join(dir, file.Name()))
	if err != nil {
		return err
	}
	if draft.IsBlank(string(content)) {
		return errBlankFile
	}

	info, err := file.Info()
	if err != nil {
		return err
	}

	text := string(content)
	preview := draft.Preview(text, previewLength)
	title := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))

	return store.Upsert(ctx, draft.Draft{
		ID:             draft.NewID(),
		Content:        text,
		LastModified:   info.ModTime().UTC(),
		ContentPreview: &preview,
		Title:          &title,
	})
}
