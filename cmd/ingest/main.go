// Command ingest loads text documents into the search index: it splits each
// file into overlapping chunks, embeds them and upserts them with
// deterministic IDs so re-running on the same corpus is idempotent.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/foodiary/foodiary-chat/internal/genai/gemini"
	"github.com/foodiary/foodiary-chat/internal/logger"
	"github.com/foodiary/foodiary-chat/internal/searchindex"
)

func main() {
	var (
		dataDir      string
		indexURL     string
		apiKey       string
		embedModel   string
		chunkSize    int
		chunkOverlap int
	)

	flag.StringVar(&dataDir, "data", "data", "Directory of .txt/.md documents to ingest")
	flag.StringVar(&indexURL, "index-url", "localhost:8081", "Search index base URL")
	flag.StringVar(&apiKey, "api-key", os.Getenv("FOODIARY_GEMINI_API_KEY"), "Gemini API key")
	flag.StringVar(&embedModel, "embed-model", "text-embedding-004", "Embedding model name")
	flag.IntVar(&chunkSize, "chunk-size", 1500, "Max chunk length in bytes")
	flag.IntVar(&chunkOverlap, "chunk-overlap", 80, "Overlap between consecutive chunks in bytes")
	flag.Parse()

	log := logger.New("ingest")

	if apiKey == "" {
		log.Fatal().Msg("Gemini API key required (--api-key or FOODIARY_GEMINI_API_KEY)")
	}

	ctx := context.Background()

	idx, err := searchindex.NewWeaviateIndex(indexURL)
	if err != nil {
		log.Fatal().Err(err).Msg("search index client failed")
	}
	if err := searchindex.EnsureSchema(ctx, indexURL); err != nil {
		log.Fatal().Err(err).Msg("search index schema bootstrap failed")
	}

	emb := gemini.New(apiKey, "", embedModel, "")

	paths, err := collectFiles(dataDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", dataDir).Msg("document scan failed")
	}
	if len(paths) == 0 {
		log.Warn().Str("dir", dataDir).Msg("no documents found")
		return
	}

	total := 0
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("read failed, skipping")
			continue
		}
		filename := filepath.Base(path)
		chunks := splitText(string(raw), chunkSize, chunkOverlap)
		for i, chunk := range chunks {
			vec, err := emb.Embed(ctx, chunk)
			if err != nil {
				log.Error().Err(err).Str("file", filename).Int("chunk", i).Msg("embedding failed, skipping")
				continue
			}
			id := chunkID(filename, i)
			if err := idx.UpsertDocument(ctx, id, vec, chunk, filename); err != nil {
				log.Error().Err(err).Str("file", filename).Int("chunk", i).Msg("upsert failed, skipping")
				continue
			}
			total++
		}
		log.Info().Str("file", filename).Int("chunks", len(chunks)).Msg("ingested")
	}
	log.Info().Int("documents", len(paths)).Int("chunks", total).Msg("ingest complete")
}

func collectFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".txt", ".md":
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// chunkID derives a stable Weaviate object ID from the chunk's position in
// its source file.
func chunkID(filename string, n int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("foodiary/%s/%d", filename, n))).String()
}
